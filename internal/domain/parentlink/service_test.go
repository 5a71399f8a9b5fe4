package parentlink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/notification"
)

type fakeLinkRepo struct {
	requests map[id.ID]*Request
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{requests: make(map[id.ID]*Request)}
}

func (r *fakeLinkRepo) Create(ctx context.Context, req *Request) error {
	if req.Status == StatusPending {
		exists, _ := r.PendingExists(ctx, req.ChildID, req.ParentID, req.Role)
		if exists {
			return apperror.NewConflict("a pending request for this parent link already exists")
		}
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeLinkRepo) GetByID(_ context.Context, requestID id.ID) (*Request, error) {
	req, ok := r.requests[requestID]
	if !ok {
		return nil, apperror.NewNotFound("parent link request", requestID.String())
	}
	cp := *req
	return &cp, nil
}

func (r *fakeLinkRepo) Update(_ context.Context, req *Request) error {
	if _, ok := r.requests[req.ID]; !ok {
		return apperror.NewNotFound("parent link request", req.ID.String())
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeLinkRepo) PendingExists(_ context.Context, childID, parentID id.ID, role Role) (bool, error) {
	for _, req := range r.requests {
		if req.ChildID == childID && req.ParentID == parentID && req.Role == role &&
			req.Status == StatusPending && !req.DeletionMark {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) ApprovedExists(_ context.Context, childID id.ID, role Role) (bool, error) {
	for _, req := range r.requests {
		if req.ChildID == childID && req.Role == role &&
			req.Status == StatusApproved && !req.DeletionMark {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) FindActive(_ context.Context, childID id.ID, role Role) (*Request, error) {
	var found *Request
	for _, req := range r.requests {
		if req.ChildID == childID && req.Role == role && req.IsActive() {
			if found == nil || req.CreatedAt.After(found.CreatedAt) {
				found = req
			}
		}
	}
	if found == nil {
		return nil, apperror.NewNotFound("parent link", childID.String())
	}
	cp := *found
	return &cp, nil
}

func (r *fakeLinkRepo) ListByIndividual(_ context.Context, individualID id.ID) ([]*Request, error) {
	var out []*Request
	for _, req := range r.requests {
		if req.DeletionMark {
			continue
		}
		if req.ChildID == individualID || req.ParentID == individualID {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) MarkDeletedByIndividual(_ context.Context, individualID id.ID) error {
	for _, req := range r.requests {
		if req.ChildID == individualID || req.ParentID == individualID {
			req.MarkLinkDeleted()
		}
	}
	return nil
}

type fakeIndividualRepo struct {
	individuals map[id.ID]*individual.Individual
}

func newFakeIndividualRepo(inds ...*individual.Individual) *fakeIndividualRepo {
	r := &fakeIndividualRepo{individuals: make(map[id.ID]*individual.Individual)}
	for _, ind := range inds {
		r.individuals[ind.ID] = ind
	}
	return r
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

type sentNotification struct {
	receiverID id.ID
	kind       notification.Kind
}

type fakeNotifier struct {
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, receiverID id.ID, kind notification.Kind, _ any) error {
	n.sent = append(n.sent, sentNotification{receiverID: receiverID, kind: kind})
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	links    *fakeLinkRepo
	notifier *fakeNotifier

	requesterID id.ID
	receiverID  id.ID
	child       *individual.Individual
	parent      *individual.Individual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	requesterID, receiverID := id.New(), id.New()
	child := individual.New(requesterID, "Python regius")
	parent := individual.New(receiverID, "Python regius")

	links := newFakeLinkRepo()
	notifier := &fakeNotifier{}
	svc := NewService(links, newFakeIndividualRepo(child, parent), notifier, passthroughTxManager{})

	return &fixture{
		svc:         svc,
		links:       links,
		notifier:    notifier,
		requesterID: requesterID,
		receiverID:  receiverID,
		child:       child,
		parent:      parent,
	}
}

func asUser(userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID})
}

func TestServicePropose(t *testing.T) {
	t.Run("pending request notifies receiver", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.requesterID)

		req, err := f.svc.Propose(ctx, ProposeInput{
			ChildID:  f.child.ID,
			ParentID: f.parent.ID,
			Role:     RoleFather,
			Message:  "from your 2024 pairing",
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, req.Status)
		assert.Equal(t, f.requesterID, req.RequesterID)
		assert.Equal(t, f.receiverID, req.ReceiverID)

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, f.receiverID, f.notifier.sent[0].receiverID)
		assert.Equal(t, notification.KindParentLinkProposed, f.notifier.sent[0].kind)
	})

	t.Run("own parent is auto approved without notification", func(t *testing.T) {
		f := newFixture(t)
		ownParent := individual.New(f.requesterID, "Python regius")
		svc := NewService(f.links, newFakeIndividualRepo(f.child, ownParent), f.notifier, passthroughTxManager{})

		req, err := svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: ownParent.ID,
			Role:     RoleMother,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, req.Status)
		require.NotNil(t, req.DecidedAt)
		assert.Empty(t, f.notifier.sent)
	})

	t.Run("duplicate pending is a conflict", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.requesterID)
		in := ProposeInput{ChildID: f.child.ID, ParentID: f.parent.ID, Role: RoleFather}

		_, err := f.svc.Propose(ctx, in)
		require.NoError(t, err)

		_, err = f.svc.Propose(ctx, in)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("same parent different role is allowed", func(t *testing.T) {
		f := newFixture(t)
		ctx := asUser(f.requesterID)

		_, err := f.svc.Propose(ctx, ProposeInput{ChildID: f.child.ID, ParentID: f.parent.ID, Role: RoleFather})
		require.NoError(t, err)
		_, err = f.svc.Propose(ctx, ProposeInput{ChildID: f.child.ID, ParentID: f.parent.ID, Role: RoleMother})
		require.NoError(t, err)
	})

	t.Run("proposing over an approved link is a conflict", func(t *testing.T) {
		f := newFixture(t)

		req, err := f.svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: f.parent.ID,
			Role:     RoleFather,
		})
		require.NoError(t, err)
		_, err = f.svc.Decide(asUser(f.receiverID), req.ID, StatusApproved, "")
		require.NoError(t, err)

		rival := individual.New(id.New(), "Python regius")
		svc := NewService(f.links, newFakeIndividualRepo(f.child, f.parent, rival), f.notifier, passthroughTxManager{})

		_, err = svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: rival.ID,
			Role:     RoleFather,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("non owner of the child is forbidden", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Propose(asUser(f.receiverID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: f.parent.ID,
			Role:     RoleFather,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("deleted parent reads as not found", func(t *testing.T) {
		f := newFixture(t)
		f.parent.DeletionMark = true

		_, err := f.svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: f.parent.ID,
			Role:     RoleFather,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestServiceDecide(t *testing.T) {
	propose := func(t *testing.T, f *fixture) *Request {
		t.Helper()
		req, err := f.svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: f.parent.ID,
			Role:     RoleFather,
		})
		require.NoError(t, err)
		f.notifier.sent = nil
		return req
	}

	t.Run("receiver approves and requester is notified", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		decided, err := f.svc.Decide(asUser(f.receiverID), req.ID, StatusApproved, "")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, decided.Status)

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, f.requesterID, f.notifier.sent[0].receiverID)
		assert.Equal(t, notification.KindParentLinkApproved, f.notifier.sent[0].kind)
	})

	t.Run("receiver rejects with reason", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		decided, err := f.svc.Decide(asUser(f.receiverID), req.ID, StatusRejected, "wrong animal")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, decided.Status)
		require.NotNil(t, decided.RejectReason)
		assert.Equal(t, "wrong animal", *decided.RejectReason)
	})

	t.Run("requester cancels and receiver is notified", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		decided, err := f.svc.Decide(asUser(f.requesterID), req.ID, StatusCancelled, "")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, decided.Status)

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, f.receiverID, f.notifier.sent[0].receiverID)
		assert.Equal(t, notification.KindParentLinkCancelled, f.notifier.sent[0].kind)
	})

	t.Run("requester cannot approve own request", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		_, err := f.svc.Decide(asUser(f.requesterID), req.ID, StatusApproved, "")
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("receiver cannot cancel", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		_, err := f.svc.Decide(asUser(f.receiverID), req.ID, StatusCancelled, "")
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("second decision is an invalid transition", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		_, err := f.svc.Decide(asUser(f.receiverID), req.ID, StatusApproved, "")
		require.NoError(t, err)

		_, err = f.svc.Decide(asUser(f.receiverID), req.ID, StatusRejected, "changed my mind")
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidTransition(err))
	})

	t.Run("approving into an occupied slot is a conflict", func(t *testing.T) {
		f := newFixture(t)
		rivalOwner := id.New()
		rival := individual.New(rivalOwner, "Python regius")
		svc := NewService(f.links, newFakeIndividualRepo(f.child, f.parent, rival), f.notifier, passthroughTxManager{})

		first, err := svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: f.parent.ID,
			Role:     RoleFather,
		})
		require.NoError(t, err)
		second, err := svc.Propose(asUser(f.requesterID), ProposeInput{
			ChildID:  f.child.ID,
			ParentID: rival.ID,
			Role:     RoleFather,
		})
		require.NoError(t, err)

		_, err = svc.Decide(asUser(f.receiverID), first.ID, StatusApproved, "")
		require.NoError(t, err)

		_, err = svc.Decide(asUser(rivalOwner), second.ID, StatusApproved, "")
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))

		stored, err := f.links.GetByID(context.Background(), second.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, stored.Status)
	})

	t.Run("unknown target status is a validation error", func(t *testing.T) {
		f := newFixture(t)
		req := propose(t, f)

		_, err := f.svc.Decide(asUser(f.receiverID), req.ID, StatusPending, "")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})
}

func TestServiceUnlink(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Propose(asUser(f.requesterID), ProposeInput{
		ChildID:  f.child.ID,
		ParentID: f.parent.ID,
		Role:     RoleFather,
	})
	require.NoError(t, err)
	_, err = f.svc.Decide(asUser(f.receiverID), req.ID, StatusApproved, "")
	require.NoError(t, err)

	t.Run("non owner is forbidden", func(t *testing.T) {
		err := f.svc.Unlink(asUser(f.receiverID), f.child.ID, RoleFather)
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("owner unlinks the active edge", func(t *testing.T) {
		require.NoError(t, f.svc.Unlink(asUser(f.requesterID), f.child.ID, RoleFather))

		stored, err := f.links.GetByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusDeleted, stored.Status)
		assert.True(t, stored.DeletionMark)
	})

	t.Run("nothing left to unlink", func(t *testing.T) {
		err := f.svc.Unlink(asUser(f.requesterID), f.child.ID, RoleFather)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestServiceResolveParents(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.requesterID)

	pendingFather, err := f.svc.Propose(ctx, ProposeInput{
		ChildID:  f.child.ID,
		ParentID: f.parent.ID,
		Role:     RoleFather,
	})
	require.NoError(t, err)

	t.Run("owner sees pending links", func(t *testing.T) {
		parents, err := f.svc.ResolveParents(ctx, f.child.ID)
		require.NoError(t, err)
		require.NotNil(t, parents.Father)
		assert.Equal(t, pendingFather.ID, parents.Father.ID)
		assert.Equal(t, StatusPending, parents.Father.Status)
		assert.Nil(t, parents.Mother)
	})

	t.Run("other users see pending links as absent", func(t *testing.T) {
		parents, err := f.svc.ResolveParents(asUser(f.receiverID), f.child.ID)
		require.NoError(t, err)
		assert.Nil(t, parents.Father)
	})

	t.Run("approved links are visible to everyone", func(t *testing.T) {
		_, err := f.svc.Decide(asUser(f.receiverID), pendingFather.ID, StatusApproved, "")
		require.NoError(t, err)

		parents, err := f.svc.ResolveParents(asUser(f.receiverID), f.child.ID)
		require.NoError(t, err)
		require.NotNil(t, parents.Father)
		assert.Equal(t, StatusApproved, parents.Father.Status)
	})
}

func TestServiceCascadeDeleteForIndividual(t *testing.T) {
	f := newFixture(t)
	ctx := asUser(f.requesterID)

	req, err := f.svc.Propose(ctx, ProposeInput{
		ChildID:  f.child.ID,
		ParentID: f.parent.ID,
		Role:     RoleFather,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.CascadeDeleteForIndividual(ctx, f.parent.ID))

	stored, err := f.links.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, stored.Status)

	_, err = f.links.FindActive(context.Background(), f.child.ID, RoleFather)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestServiceCreateApprovedPair(t *testing.T) {
	f := newFixture(t)
	hatchling := individual.New(f.requesterID, "Python regius")

	require.NoError(t, f.svc.CreateApprovedPair(
		context.Background(), hatchling.ID, &f.parent.ID, nil, f.requesterID))

	links, err := f.links.ListByIndividual(context.Background(), hatchling.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, StatusApproved, links[0].Status)
	assert.Equal(t, RoleFather, links[0].Role)
}
