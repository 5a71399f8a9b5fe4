package clutch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/mating"
	"herptrack/internal/domain/notification"
)

type fakeClutchRepo struct {
	clutches map[id.ID]*Clutch
	eggs     map[id.ID]*Egg
}

func newFakeClutchRepo() *fakeClutchRepo {
	return &fakeClutchRepo{
		clutches: make(map[id.ID]*Clutch),
		eggs:     make(map[id.ID]*Egg),
	}
}

func (r *fakeClutchRepo) CreateClutch(_ context.Context, c *Clutch, eggs []*Egg) error {
	cp := *c
	r.clutches[c.ID] = &cp
	for _, e := range eggs {
		ecp := *e
		r.eggs[e.ID] = &ecp
	}
	return nil
}

func (r *fakeClutchRepo) GetClutchByID(_ context.Context, clutchID id.ID) (*Clutch, error) {
	c, ok := r.clutches[clutchID]
	if !ok {
		return nil, apperror.NewNotFound("clutch", clutchID.String())
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClutchRepo) UpdateClutch(_ context.Context, c *Clutch) error {
	if _, ok := r.clutches[c.ID]; !ok {
		return apperror.NewNotFound("clutch", c.ID.String())
	}
	cp := *c
	r.clutches[c.ID] = &cp
	return nil
}

func (r *fakeClutchRepo) SetClutchDeletionMark(_ context.Context, clutchID id.ID, marked bool) error {
	if c, ok := r.clutches[clutchID]; ok {
		c.DeletionMark = marked
	}
	return nil
}

func (r *fakeClutchRepo) ListByMating(_ context.Context, matingID id.ID) ([]*Clutch, error) {
	var out []*Clutch
	for _, c := range r.clutches {
		if c.MatingID != nil && *c.MatingID == matingID && !c.DeletionMark {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeClutchRepo) CountActiveByMating(ctx context.Context, matingID id.ID) (int, error) {
	clutches, _ := r.ListByMating(ctx, matingID)
	return len(clutches), nil
}

func (r *fakeClutchRepo) GetEggByID(_ context.Context, eggID id.ID) (*Egg, error) {
	e, ok := r.eggs[eggID]
	if !ok {
		return nil, apperror.NewNotFound("egg", eggID.String())
	}
	cp := *e
	return &cp, nil
}

func (r *fakeClutchRepo) UpdateEgg(_ context.Context, e *Egg) error {
	if _, ok := r.eggs[e.ID]; !ok {
		return apperror.NewNotFound("egg", e.ID.String())
	}
	cp := *e
	r.eggs[e.ID] = &cp
	return nil
}

func (r *fakeClutchRepo) ListEggsByClutch(_ context.Context, clutchID id.ID) ([]*Egg, error) {
	var out []*Egg
	for _, e := range r.eggs {
		if e.ClutchID == clutchID && !e.DeletionMark {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeClutchRepo) HasHatchedEgg(_ context.Context, clutchID id.ID) (bool, error) {
	for _, e := range r.eggs {
		if e.ClutchID == clutchID && !e.DeletionMark && e.IsHatched() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeClutchRepo) MarkEggsDeletedByClutch(_ context.Context, clutchID id.ID) error {
	for _, e := range r.eggs {
		if e.ClutchID == clutchID && !e.IsHatched() {
			e.DeletionMark = true
		}
	}
	return nil
}

func (r *fakeClutchRepo) CountUnhatchedByParent(_ context.Context, _ id.ID) (int, error) {
	count := 0
	for _, e := range r.eggs {
		if !e.DeletionMark && !e.IsHatched() {
			count++
		}
	}
	return count, nil
}

type fakeMatingRepo struct {
	matings map[id.ID]*mating.Mating
}

func (r *fakeMatingRepo) Create(_ context.Context, m *mating.Mating) error {
	r.matings[m.ID] = m
	return nil
}

func (r *fakeMatingRepo) GetByID(_ context.Context, matingID id.ID) (*mating.Mating, error) {
	m, ok := r.matings[matingID]
	if !ok {
		return nil, apperror.NewNotFound("mating", matingID.String())
	}
	return m, nil
}

func (r *fakeMatingRepo) Update(_ context.Context, m *mating.Mating) error {
	r.matings[m.ID] = m
	return nil
}

func (r *fakeMatingRepo) SetDeletionMark(_ context.Context, matingID id.ID, marked bool) error {
	if m, ok := r.matings[matingID]; ok {
		m.DeletionMark = marked
	}
	return nil
}

func (r *fakeMatingRepo) TupleExists(_ context.Context, _ id.ID, _, _ *id.ID, _ time.Time, _ id.ID) (bool, error) {
	return false, nil
}

func (r *fakeMatingRepo) ListViews(_ context.Context, _ id.ID, _ domain.ListFilter) (domain.ListResult[*mating.View], error) {
	return domain.ListResult[*mating.View]{}, nil
}

type fakeIndividualRepo struct {
	individuals map[id.ID]*individual.Individual
}

func (r *fakeIndividualRepo) Create(_ context.Context, ind *individual.Individual) error {
	cp := *ind
	r.individuals[ind.ID] = &cp
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

type linkedPair struct {
	childID  id.ID
	fatherID *id.ID
	motherID *id.ID
}

type fakeLinker struct {
	pairs []linkedPair
}

func (l *fakeLinker) CreateApprovedPair(_ context.Context, childID id.ID, fatherID, motherID *id.ID, _ id.ID) error {
	l.pairs = append(l.pairs, linkedPair{childID: childID, fatherID: fatherID, motherID: motherID})
	return nil
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

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	svc         *Service
	repo        *fakeClutchRepo
	individuals *fakeIndividualRepo
	linker      *fakeLinker
	notifier    *fakeNotifier

	ownerID id.ID
	mating  *mating.Mating
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ownerID := id.New()
	fatherID, motherID := id.New(), id.New()
	m := mating.New(ownerID, &fatherID, &motherID, day("2024-01-01"))

	repo := newFakeClutchRepo()
	matings := &fakeMatingRepo{matings: map[id.ID]*mating.Mating{m.ID: m}}
	individuals := &fakeIndividualRepo{individuals: make(map[id.ID]*individual.Individual)}
	linker := &fakeLinker{}
	notifier := &fakeNotifier{}

	svc := NewService(repo, matings, individuals, linker, notifier, passthroughTxManager{})

	return &fixture{
		svc:         svc,
		repo:        repo,
		individuals: individuals,
		linker:      linker,
		notifier:    notifier,
		ownerID:     ownerID,
		mating:      m,
	}
}

func asUser(userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID})
}

func (f *fixture) createClutch(t *testing.T, order int, date string, eggCount int) *Clutch {
	t.Helper()
	c, err := f.svc.CreateClutch(asUser(f.ownerID), CreateClutchInput{
		MatingID:    &f.mating.ID,
		LaidOn:      day(date),
		ClutchOrder: order,
		Species:     "Python regius",
		EggCount:    eggCount,
	})
	require.NoError(t, err)
	return c
}

func TestServiceCreateClutch(t *testing.T) {
	t.Run("seeds eggs as fertilized", func(t *testing.T) {
		f := newFixture(t)
		c := f.createClutch(t, 1, "2024-01-10", 2)

		eggs, err := f.svc.ListEggs(asUser(f.ownerID), c.ID)
		require.NoError(t, err)
		require.Len(t, eggs, 2)
		for _, e := range eggs {
			assert.Equal(t, EggFertilized, e.Status)
			assert.False(t, e.IsHatched())
		}
	})

	t.Run("order reuse is a conflict", func(t *testing.T) {
		f := newFixture(t)
		f.createClutch(t, 1, "2024-01-10", 2)

		_, err := f.svc.CreateClutch(asUser(f.ownerID), CreateClutchInput{
			MatingID:    &f.mating.ID,
			LaidOn:      day("2024-01-15"),
			ClutchOrder: 1,
			Species:     "Python regius",
		})
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("later order with earlier date is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.createClutch(t, 1, "2024-01-10", 2)

		_, err := f.svc.CreateClutch(asUser(f.ownerID), CreateClutchInput{
			MatingID:    &f.mating.ID,
			LaidOn:      day("2024-01-09"),
			ClutchOrder: 2,
			Species:     "Python regius",
		})
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("later order with later date succeeds", func(t *testing.T) {
		f := newFixture(t)
		f.createClutch(t, 1, "2024-01-10", 2)
		f.createClutch(t, 2, "2024-01-15", 0)
	})

	t.Run("date before the mating is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateClutch(asUser(f.ownerID), CreateClutchInput{
			MatingID:    &f.mating.ID,
			LaidOn:      day("2023-12-30"),
			ClutchOrder: 1,
			Species:     "Python regius",
		})
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("unlinked clutch skips sibling ordering", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateClutch(asUser(f.ownerID), CreateClutchInput{
			LaidOn:      day("2023-05-01"),
			ClutchOrder: 1,
			Species:     "Python regius",
			EggCount:    3,
		})
		require.NoError(t, err)
	})

	t.Run("another user's mating is forbidden", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateClutch(asUser(id.New()), CreateClutchInput{
			MatingID:    &f.mating.ID,
			LaidOn:      day("2024-01-10"),
			ClutchOrder: 1,
			Species:     "Python regius",
		})
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})
}

func TestServiceUpdateClutchDate(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.ownerID)
	first := f.createClutch(t, 1, "2024-01-10", 0)
	second := f.createClutch(t, 2, "2024-01-20", 0)
	f.createClutch(t, 3, "2024-01-30", 0)

	t.Run("moves inside the neighbor window", func(t *testing.T) {
		updated, err := f.svc.UpdateClutchDate(ctx, second.ID, day("2024-01-25"))
		require.NoError(t, err)
		assert.Equal(t, day("2024-01-25"), updated.LaidOn)
	})

	t.Run("no-op edit is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateClutchDate(ctx, second.ID, day("2024-01-25"))
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("crossing the predecessor is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateClutchDate(ctx, second.ID, day("2024-01-10"))
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidTransition(err))
	})

	t.Run("crossing the successor is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateClutchDate(ctx, second.ID, day("2024-02-05"))
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidTransition(err))
	})

	t.Run("before the mating date is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateClutchDate(ctx, first.ID, day("2023-12-25"))
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})
}

func TestServiceEggStatus(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.ownerID)
	c := f.createClutch(t, 1, "2024-01-10", 1)
	eggs, err := f.svc.ListEggs(ctx, c.ID)
	require.NoError(t, err)
	egg := eggs[0]

	t.Run("free movement among unhatched states", func(t *testing.T) {
		for _, status := range []EggStatus{EggUnfertilized, EggDead, EggFertilized} {
			updated, err := f.svc.UpdateEggStatus(ctx, egg.ID, status)
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateEggStatus(ctx, egg.ID, EggStatus("pipping"))
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("hatched egg is read-only", func(t *testing.T) {
		_, err := f.svc.Hatch(ctx, egg.ID, day("2024-02-01"))
		require.NoError(t, err)

		_, err = f.svc.UpdateEggStatus(ctx, egg.ID, EggDead)
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidTransition(err))
	})
}

func TestServiceHatch(t *testing.T) {
	t.Run("mints an individual with approved parent links", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.ownerID)
		c := f.createClutch(t, 1, "2024-01-10", 1)
		eggs, err := f.svc.ListEggs(ctx, c.ID)
		require.NoError(t, err)

		hatchling, err := f.svc.Hatch(ctx, eggs[0].ID, day("2024-02-01"))
		require.NoError(t, err)
		assert.Equal(t, "Python regius", hatchling.Species)
		assert.Equal(t, individual.SexUnknown, hatchling.Sex)
		require.NotNil(t, hatchling.HatchedOn)
		assert.Equal(t, day("2024-02-01"), *hatchling.HatchedOn)
		require.NotNil(t, hatchling.ClutchID)
		assert.Equal(t, c.ID, *hatchling.ClutchID)

		stored, err := f.repo.GetEggByID(context.Background(), eggs[0].ID)
		require.NoError(t, err)
		require.NotNil(t, stored.HatchedIndividualID)
		assert.Equal(t, hatchling.ID, *stored.HatchedIndividualID)

		require.Len(t, f.linker.pairs, 1)
		assert.Equal(t, hatchling.ID, f.linker.pairs[0].childID)
		assert.Equal(t, f.mating.FatherID, f.linker.pairs[0].fatherID)
		assert.Equal(t, f.mating.MotherID, f.linker.pairs[0].motherID)

		require.Len(t, f.notifier.kinds, 1)
		assert.Equal(t, notification.KindEggHatched, f.notifier.kinds[0])
	})

	t.Run("second hatch fails and mints nothing", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.ownerID)
		c := f.createClutch(t, 1, "2024-01-10", 1)
		eggs, err := f.svc.ListEggs(ctx, c.ID)
		require.NoError(t, err)

		_, err = f.svc.Hatch(ctx, eggs[0].ID, day("2024-02-01"))
		require.NoError(t, err)
		minted := len(f.individuals.individuals)

		_, err = f.svc.Hatch(ctx, eggs[0].ID, day("2024-02-02"))
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidTransition(err))
		assert.Len(t, f.individuals.individuals, minted)
	})

	t.Run("hatch before laying date is rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.ownerID)
		c := f.createClutch(t, 1, "2024-01-10", 1)
		eggs, err := f.svc.ListEggs(ctx, c.ID)
		require.NoError(t, err)

		_, err = f.svc.Hatch(ctx, eggs[0].ID, day("2024-01-05"))
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("unlinked clutch hatches without parent links", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.ownerID)
		c, err := f.svc.CreateClutch(ctx, CreateClutchInput{
			LaidOn:      day("2023-05-01"),
			ClutchOrder: 1,
			Species:     "Eublepharis macularius",
			EggCount:    1,
		})
		require.NoError(t, err)
		eggs, err := f.svc.ListEggs(ctx, c.ID)
		require.NoError(t, err)

		hatchling, err := f.svc.Hatch(ctx, eggs[0].ID, day("2023-07-01"))
		require.NoError(t, err)
		assert.Equal(t, "Eublepharis macularius", hatchling.Species)
		assert.Empty(t, f.linker.pairs)
	})
}

func TestServiceDeleteClutch(t *testing.T) {
	t.Run("cascades unhatched eggs", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.ownerID)
		c := f.createClutch(t, 1, "2024-01-10", 3)

		require.NoError(t, f.svc.DeleteClutch(ctx, c.ID))

		_, err := f.svc.GetOwnedClutch(ctx, c.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))

		for _, e := range f.repo.eggs {
			assert.True(t, e.DeletionMark)
		}
	})

	t.Run("blocked once an egg has hatched", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.ownerID)
		c := f.createClutch(t, 1, "2024-01-10", 1)
		eggs, err := f.svc.ListEggs(ctx, c.ID)
		require.NoError(t, err)
		_, err = f.svc.Hatch(ctx, eggs[0].ID, day("2024-02-01"))
		require.NoError(t, err)

		err = f.svc.DeleteClutch(ctx, c.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})
}

func TestServiceGuardUnhatchedOffspring(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.ownerID)
	father := individual.New(f.ownerID, "Python regius")

	t.Run("blocks while unhatched eggs exist", func(t *testing.T) {
		f.createClutch(t, 1, "2024-01-10", 2)
		err := f.svc.GuardUnhatchedOffspring(ctx, father)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})
}
