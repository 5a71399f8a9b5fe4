package adoption

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/notification"
)

type fakeAdoptionRepo struct {
	adoptions map[id.ID]*Adoption
}

func newFakeAdoptionRepo() *fakeAdoptionRepo {
	return &fakeAdoptionRepo{adoptions: make(map[id.ID]*Adoption)}
}

func (r *fakeAdoptionRepo) Create(_ context.Context, a *Adoption) error {
	cp := *a
	r.adoptions[a.ID] = &cp
	return nil
}

func (r *fakeAdoptionRepo) GetByID(_ context.Context, adoptionID id.ID) (*Adoption, error) {
	a, ok := r.adoptions[adoptionID]
	if !ok {
		return nil, apperror.NewNotFound("adoption", adoptionID.String())
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAdoptionRepo) Update(_ context.Context, a *Adoption) error {
	if _, ok := r.adoptions[a.ID]; !ok {
		return apperror.NewNotFound("adoption", a.ID.String())
	}
	cp := *a
	r.adoptions[a.ID] = &cp
	return nil
}

func (r *fakeAdoptionRepo) SetDeletionMark(_ context.Context, adoptionID id.ID, marked bool) error {
	if a, ok := r.adoptions[adoptionID]; ok {
		a.DeletionMark = marked
	}
	return nil
}

func (r *fakeAdoptionRepo) FindActiveByIndividual(_ context.Context, individualID id.ID) (*Adoption, error) {
	for _, a := range r.adoptions {
		if a.IndividualID == individualID && !a.DeletionMark {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("adoption", individualID.String())
}

func (r *fakeAdoptionRepo) ListByOwner(_ context.Context, ownerID id.ID, _ domain.ListFilter) (domain.ListResult[*Adoption], error) {
	var out []*Adoption
	for _, a := range r.adoptions {
		if a.OwnerID == ownerID && !a.DeletionMark {
			cp := *a
			out = append(out, &cp)
		}
	}
	return domain.ListResult[*Adoption]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakeIndividualRepo struct {
	individuals map[id.ID]*individual.Individual
}

func (r *fakeIndividualRepo) Create(_ context.Context, ind *individual.Individual) error {
	r.individuals[ind.ID] = ind
	return nil
}

func (r *fakeIndividualRepo) GetByID(_ context.Context, individualID id.ID) (*individual.Individual, error) {
	ind, ok := r.individuals[individualID]
	if !ok {
		return nil, apperror.NewNotFound("individual", individualID.String())
	}
	return ind, nil
}

func (r *fakeIndividualRepo) Update(_ context.Context, ind *individual.Individual) error {
	r.individuals[ind.ID] = ind
	return nil
}

func (r *fakeIndividualRepo) SetDeletionMark(_ context.Context, individualID id.ID, marked bool) error {
	if ind, ok := r.individuals[individualID]; ok {
		ind.DeletionMark = marked
	}
	return nil
}

func (r *fakeIndividualRepo) UpdateSaleStatus(_ context.Context, individualID id.ID, status individual.SaleStatus) error {
	if ind, ok := r.individuals[individualID]; ok {
		ind.SaleStatus = status
	}
	return nil
}

func (r *fakeIndividualRepo) Exists(_ context.Context, individualID id.ID) (bool, error) {
	ind, ok := r.individuals[individualID]
	return ok && !ind.DeletionMark, nil
}

func (r *fakeIndividualRepo) List(_ context.Context, _ individual.ListFilter) (domain.ListResult[*individual.Individual], error) {
	return domain.ListResult[*individual.Individual]{}, nil
}

type fakeUserDirectory struct {
	users map[id.ID]bool
}

func (d *fakeUserDirectory) Exists(_ context.Context, userID id.ID) (bool, error) {
	return d.users[userID], nil
}

type fakeNotifier struct {
	kinds []notification.Kind
}

func (n *fakeNotifier) Notify(_ context.Context, _ id.ID, kind notification.Kind, _ any) error {
	n.kinds = append(n.kinds, kind)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	inds     *fakeIndividualRepo
	notifier *fakeNotifier

	sellerID id.ID
	buyerID  id.ID
	pet      *individual.Individual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sellerID, buyerID := id.New(), id.New()
	pet := individual.New(sellerID, "Python regius")

	inds := &fakeIndividualRepo{individuals: map[id.ID]*individual.Individual{pet.ID: pet}}
	indSvc := individual.NewService(inds, passthroughTxManager{})
	notifier := &fakeNotifier{}
	users := &fakeUserDirectory{users: map[id.ID]bool{buyerID: true}}

	svc := NewService(newFakeAdoptionRepo(), indSvc, users, notifier, passthroughTxManager{})

	return &fixture{
		svc:      svc,
		inds:     inds,
		notifier: notifier,
		sellerID: sellerID,
		buyerID:  buyerID,
		pet:      pet,
	}
}

func asUser(userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID})
}

func TestDerivedStatus(t *testing.T) {
	buyerID := id.New()
	sold := individual.SaleStatusSold

	tests := []struct {
		name     string
		buyer    *id.ID
		explicit *individual.SaleStatus
		want     individual.SaleStatus
	}{
		{"no buyer, no explicit", nil, nil, individual.SaleStatusOnSale},
		{"buyer, no explicit", &buyerID, nil, individual.SaleStatusOnReservation},
		{"explicit wins over buyer", &buyerID, &sold, individual.SaleStatusSold},
		{"explicit without buyer", nil, &sold, individual.SaleStatusSold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(id.New(), id.New())
			a.BuyerID = tt.buyer
			a.ExplicitStatus = tt.explicit
			assert.Equal(t, tt.want, a.DerivedStatus())
		})
	}
}

func TestServiceCreate(t *testing.T) {
	t.Run("no buyer lists the individual for sale", func(t *testing.T) {
		f := newFixture(t)
		a := New(f.sellerID, f.pet.ID)

		require.NoError(t, f.svc.Create(asUser(f.sellerID), a))
		assert.Equal(t, individual.SaleStatusOnSale, f.pet.SaleStatus)
		assert.Empty(t, f.notifier.kinds)
	})

	t.Run("buyer without explicit status reserves", func(t *testing.T) {
		f := newFixture(t)
		a := New(f.sellerID, f.pet.ID)
		a.BuyerID = &f.buyerID
		price := decimal.NewFromInt(250)
		a.Price = &price

		require.NoError(t, f.svc.Create(asUser(f.sellerID), a))
		assert.Equal(t, individual.SaleStatusOnReservation, f.pet.SaleStatus)
		require.Len(t, f.notifier.kinds, 1)
		assert.Equal(t, notification.KindAdoptionReserved, f.notifier.kinds[0])
	})

	t.Run("explicit sold soft-deletes the individual", func(t *testing.T) {
		f := newFixture(t)
		a := New(f.sellerID, f.pet.ID)
		a.BuyerID = &f.buyerID
		sold := individual.SaleStatusSold
		a.ExplicitStatus = &sold

		require.NoError(t, f.svc.Create(asUser(f.sellerID), a))
		assert.Equal(t, individual.SaleStatusSold, f.pet.SaleStatus)
		assert.True(t, f.pet.DeletionMark)
		require.Len(t, f.notifier.kinds, 1)
		assert.Equal(t, notification.KindAdoptionCompleted, f.notifier.kinds[0])

		// the individual no longer exists as an active record
		err := f.svc.Create(asUser(f.sellerID), New(f.sellerID, f.pet.ID))
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("second active adoption is a conflict", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Create(asUser(f.sellerID), New(f.sellerID, f.pet.ID)))

		err := f.svc.Create(asUser(f.sellerID), New(f.sellerID, f.pet.ID))
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("unknown buyer is not found", func(t *testing.T) {
		f := newFixture(t)
		a := New(f.sellerID, f.pet.ID)
		ghost := id.New()
		a.BuyerID = &ghost

		err := f.svc.Create(asUser(f.sellerID), a)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Create(asUser(f.buyerID), New(f.buyerID, f.pet.ID))
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		f := newFixture(t)
		a := New(f.sellerID, f.pet.ID)
		price := decimal.NewFromInt(-5)
		a.Price = &price

		err := f.svc.Create(asUser(f.sellerID), a)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})
}

func TestServiceUpdate(t *testing.T) {
	t.Run("removing the buyer reverts to on sale", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.sellerID)

		a := New(f.sellerID, f.pet.ID)
		a.BuyerID = &f.buyerID
		require.NoError(t, f.svc.Create(ctx, a))
		require.Equal(t, individual.SaleStatusOnReservation, f.pet.SaleStatus)

		patch := *a
		patch.BuyerID = nil
		require.NoError(t, f.svc.Update(ctx, &patch))
		assert.Equal(t, individual.SaleStatusOnSale, f.pet.SaleStatus)
	})

	t.Run("marking sold completes the sale", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.sellerID)

		a := New(f.sellerID, f.pet.ID)
		a.BuyerID = &f.buyerID
		require.NoError(t, f.svc.Create(ctx, a))

		patch := *a
		sold := individual.SaleStatusSold
		patch.ExplicitStatus = &sold
		now := time.Now().UTC()
		patch.AdoptedOn = &now
		require.NoError(t, f.svc.Update(ctx, &patch))

		assert.Equal(t, individual.SaleStatusSold, f.pet.SaleStatus)
		assert.True(t, f.pet.DeletionMark)
	})

	t.Run("sold individual cannot be updated again", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.sellerID)

		a := New(f.sellerID, f.pet.ID)
		a.BuyerID = &f.buyerID
		sold := individual.SaleStatusSold
		a.ExplicitStatus = &sold
		require.NoError(t, f.svc.Create(ctx, a))
		require.True(t, f.pet.DeletionMark)
		f.notifier.kinds = nil

		patch := *a
		patch.ExplicitStatus = nil
		err := f.svc.Update(ctx, &patch)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))

		// the completed sale stays untouched
		assert.True(t, f.pet.DeletionMark)
		assert.Equal(t, individual.SaleStatusSold, f.pet.SaleStatus)
		assert.Empty(t, f.notifier.kinds)
	})

	t.Run("other users cannot update", func(t *testing.T) {
		f := newFixture(t)
		a := New(f.sellerID, f.pet.ID)
		require.NoError(t, f.svc.Create(asUser(f.sellerID), a))

		err := f.svc.Update(asUser(f.buyerID), a)
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})
}

func TestServiceDelete(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.sellerID)

	a := New(f.sellerID, f.pet.ID)
	a.BuyerID = &f.buyerID
	require.NoError(t, f.svc.Create(ctx, a))

	require.NoError(t, f.svc.Delete(ctx, a.ID))
	assert.Equal(t, individual.SaleStatusNotForSale, f.pet.SaleStatus)
	assert.False(t, f.pet.DeletionMark)

	// the slot is free again
	require.NoError(t, f.svc.Create(ctx, New(f.sellerID, f.pet.ID)))
}

func TestGuardActiveAdoption(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.sellerID)

	t.Run("no adoption, no block", func(t *testing.T) {
		require.NoError(t, f.svc.GuardActiveAdoption(ctx, f.pet))
	})

	t.Run("active adoption blocks deletion", func(t *testing.T) {
		require.NoError(t, f.svc.Create(ctx, New(f.sellerID, f.pet.ID)))

		err := f.svc.GuardActiveAdoption(ctx, f.pet)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})
}
