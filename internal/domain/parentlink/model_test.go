package parentlink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/id"
)

func TestRequestValidate(t *testing.T) {
	ctx := context.Background()
	child, parent, owner := id.New(), id.New(), id.New()

	t.Run("valid", func(t *testing.T) {
		req := NewRequest(child, parent, RoleFather, owner, owner, "")
		require.NoError(t, req.Validate(ctx))
	})

	t.Run("self parent", func(t *testing.T) {
		req := NewRequest(child, child, RoleMother, owner, owner, "")
		err := req.Validate(ctx)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("bad role", func(t *testing.T) {
		req := NewRequest(child, parent, Role("uncle"), owner, owner, "")
		require.Error(t, req.Validate(ctx))
	})
}

func TestRequestDecisions(t *testing.T) {
	child, parent, owner := id.New(), id.New(), id.New()

	newPending := func() *Request {
		return NewRequest(child, parent, RoleFather, owner, id.New(), "hi")
	}

	t.Run("approve pending", func(t *testing.T) {
		req := newPending()
		require.NoError(t, req.Approve())
		assert.Equal(t, StatusApproved, req.Status)
		require.NotNil(t, req.DecidedAt)
		assert.True(t, req.IsTerminal())
		assert.True(t, req.IsActive())
	})

	t.Run("reject stores reason", func(t *testing.T) {
		req := newPending()
		require.NoError(t, req.Reject("not my animal"))
		assert.Equal(t, StatusRejected, req.Status)
		require.NotNil(t, req.RejectReason)
		assert.Equal(t, "not my animal", *req.RejectReason)
		assert.False(t, req.IsActive())
	})

	t.Run("cancel pending", func(t *testing.T) {
		req := newPending()
		require.NoError(t, req.Cancel())
		assert.Equal(t, StatusCancelled, req.Status)
	})

	t.Run("terminal states refuse further decisions", func(t *testing.T) {
		cases := []struct {
			name   string
			decide func(r *Request) error
		}{
			{"approved", func(r *Request) error { return r.Approve() }},
			{"rejected", func(r *Request) error { return r.Reject("no") }},
			{"cancelled", func(r *Request) error { return r.Cancel() }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				req := newPending()
				require.NoError(t, tc.decide(req))

				err := req.Approve()
				require.Error(t, err)
				assert.True(t, apperror.IsInvalidTransition(err))

				err = req.Cancel()
				require.Error(t, err)
				assert.True(t, apperror.IsInvalidTransition(err))
			})
		}
	})

	t.Run("deleted request reads as not found", func(t *testing.T) {
		req := newPending()
		req.MarkLinkDeleted()
		assert.Equal(t, StatusDeleted, req.Status)
		assert.True(t, req.DeletionMark)
		assert.False(t, req.IsActive())

		err := req.Approve()
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestNewApprovedRequest(t *testing.T) {
	child, parent, owner := id.New(), id.New(), id.New()
	req := NewApprovedRequest(child, parent, RoleMother, owner)

	assert.Equal(t, StatusApproved, req.Status)
	assert.Equal(t, owner, req.RequesterID)
	assert.Equal(t, owner, req.ReceiverID)
	require.NotNil(t, req.DecidedAt)
	assert.True(t, req.IsActive())
}
