// Package parentlink provides the parent link request manager: the state
// machine that proposes, approves, rejects and revokes father/mother edges
// between two individuals. Pedigree mutations originate here and nowhere
// else.
package parentlink

import (
	"context"
	"time"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
)

// Role of the proposed parent.
type Role string

const (
	RoleFather Role = "father"
	RoleMother Role = "mother"
)

// Status of a link request. Pending is the only state with outgoing
// transitions; approved, rejected and cancelled are terminal except for the
// superseding soft-deletion applied when either endpoint individual is
// deleted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusDeleted   Status = "deleted"
)

// Request proposes that individual ParentID fills Role for individual
// ChildID.
type Request struct {
	entity.Base

	ChildID  id.ID `db:"child_id" json:"childId"`
	ParentID id.ID `db:"parent_id" json:"parentId"`
	Role     Role  `db:"role" json:"role"`

	Status Status `db:"status" json:"status"`

	// RequesterID proposed the link; ReceiverID (the parent's owner)
	// decides on it
	RequesterID id.ID `db:"requester_id" json:"requesterId"`
	ReceiverID  id.ID `db:"receiver_id" json:"receiverId"`

	// Message is free text shown to the receiver
	Message string `db:"message" json:"message,omitempty"`

	// RejectReason is stored when the receiver rejects
	RejectReason *string `db:"reject_reason" json:"rejectReason,omitempty"`

	DecidedAt *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
}

// NewRequest creates a pending request.
func NewRequest(childID, parentID id.ID, role Role, requesterID, receiverID id.ID, message string) *Request {
	return &Request{
		Base:        entity.NewBase(),
		ChildID:     childID,
		ParentID:    parentID,
		Role:        role,
		Status:      StatusPending,
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Message:     message,
	}
}

// NewApprovedRequest creates a request already in the approved state: the
// self-registration fast path used when the requester owns both endpoints,
// and by the hatch flow.
func NewApprovedRequest(childID, parentID id.ID, role Role, ownerID id.ID) *Request {
	req := NewRequest(childID, parentID, role, ownerID, ownerID, "")
	now := time.Now().UTC()
	req.Status = StatusApproved
	req.DecidedAt = &now
	return req
}

// Validate implements entity.Validatable.
func (r *Request) Validate(ctx context.Context) error {
	if id.IsNil(r.ChildID) {
		return apperror.NewValidation("child is required").WithDetail("field", "childId")
	}
	if id.IsNil(r.ParentID) {
		return apperror.NewValidation("parent is required").WithDetail("field", "parentId")
	}
	if r.ChildID == r.ParentID {
		return apperror.NewValidation("an individual cannot be its own parent").
			WithDetail("childId", r.ChildID.String())
	}
	if r.Role != RoleFather && r.Role != RoleMother {
		return apperror.NewValidation("invalid parent role").
			WithDetail("field", "role").
			WithDetail("value", string(r.Role))
	}
	return nil
}

// IsTerminal reports whether no further decision is possible.
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case StatusApproved, StatusRejected, StatusCancelled, StatusDeleted:
		return true
	}
	return false
}

// IsActive reports whether the request still represents a visible pedigree
// edge (pending or approved, not soft-deleted).
func (r *Request) IsActive() bool {
	return !r.DeletionMark && (r.Status == StatusPending || r.Status == StatusApproved)
}

// terminalError explains why a decided request cannot change again. Each
// terminal state gets its own message so the UI can tell the user what
// actually happened to the request.
func (r *Request) terminalError() error {
	switch r.Status {
	case StatusApproved:
		return apperror.NewInvalidTransition("this parent link request has already been approved").
			WithDetail("requestId", r.ID.String())
	case StatusRejected:
		return apperror.NewInvalidTransition("this parent link request has already been rejected").
			WithDetail("requestId", r.ID.String())
	case StatusCancelled:
		return apperror.NewInvalidTransition("this parent link request was cancelled by the requester").
			WithDetail("requestId", r.ID.String())
	case StatusDeleted:
		return apperror.NewNotFound("parent link request", r.ID.String())
	}
	return nil
}

func (r *Request) decide(to Status) error {
	if err := r.terminalError(); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.Status = to
	r.DecidedAt = &now
	r.Touch()
	return nil
}

// Approve transitions pending -> approved.
func (r *Request) Approve() error {
	return r.decide(StatusApproved)
}

// Reject transitions pending -> rejected and stores the reason.
func (r *Request) Reject(reason string) error {
	if err := r.decide(StatusRejected); err != nil {
		return err
	}
	if reason != "" {
		r.RejectReason = &reason
	}
	return nil
}

// Cancel transitions pending -> cancelled (requester withdraws).
func (r *Request) Cancel() error {
	return r.decide(StatusCancelled)
}

// MarkLinkDeleted soft-deletes the request, superseding any state. Used by
// unlink and by the endpoint-deletion cascade; it never resurrects a prior
// rejected or cancelled request.
func (r *Request) MarkLinkDeleted() {
	r.Status = StatusDeleted
	r.MarkDeleted()
	r.Touch()
}
