package parentlink

import (
	"context"
	"fmt"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/core/tx"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/notification"
	"herptrack/pkg/logger"
)

// Service provides business operations for parent link requests.
type Service struct {
	repo        Repository
	individuals individual.Repository
	notifier    notification.Trigger
	txManager   tx.Manager
}

// NewService creates a new parent link service.
func NewService(repo Repository, individuals individual.Repository, notifier notification.Trigger, txManager tx.Manager) *Service {
	return &Service{
		repo:        repo,
		individuals: individuals,
		notifier:    notifier,
		txManager:   txManager,
	}
}

// ProposeInput carries the fields of a link proposal.
type ProposeInput struct {
	ChildID  id.ID
	ParentID id.ID
	Role     Role
	Message  string
}

// linkPayload is the notification payload for link lifecycle events.
type linkPayload struct {
	RequestID    string `json:"requestId"`
	ChildID      string `json:"childId"`
	ParentID     string `json:"parentId"`
	Role         Role   `json:"role"`
	Message      string `json:"message,omitempty"`
	RejectReason string `json:"rejectReason,omitempty"`
}

func payloadFor(req *Request) linkPayload {
	p := linkPayload{
		RequestID: req.ID.String(),
		ChildID:   req.ChildID.String(),
		ParentID:  req.ParentID.String(),
		Role:      req.Role,
		Message:   req.Message,
	}
	if req.RejectReason != nil {
		p.RejectReason = *req.RejectReason
	}
	return p
}

// activeIndividual loads an individual and treats soft-deleted records as
// missing.
func (s *Service) activeIndividual(ctx context.Context, individualID id.ID) (*individual.Individual, error) {
	ind, err := s.individuals.GetByID(ctx, individualID)
	if err != nil {
		return nil, err
	}
	if ind.DeletionMark {
		return nil, apperror.NewNotFound("individual", individualID.String())
	}
	return ind, nil
}

// Propose creates a link request from the acting user.
//
// The child must belong to the requester. When the requester owns the
// parent as well, the request is created directly in the approved state
// (self-registration fast path); otherwise it is left pending and the
// parent's owner is notified.
func (s *Service) Propose(ctx context.Context, in ProposeInput) (*Request, error) {
	acting := appctx.GetUserID(ctx)

	child, err := s.activeIndividual(ctx, in.ChildID)
	if err != nil {
		return nil, err
	}
	parent, err := s.activeIndividual(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}

	if !child.IsOwnedBy(acting) {
		return nil, apperror.NewForbidden("only the child's owner can propose a parent link").
			WithDetail("childId", in.ChildID.String())
	}

	exists, err := s.repo.PendingExists(ctx, in.ChildID, in.ParentID, in.Role)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflict("a pending request for this parent link already exists").
			WithDetail("childId", in.ChildID.String()).
			WithDetail("parentId", in.ParentID.String()).
			WithDetail("role", string(in.Role))
	}

	linked, err := s.repo.ApprovedExists(ctx, in.ChildID, in.Role)
	if err != nil {
		return nil, err
	}
	if linked {
		return nil, apperror.NewConflict("the child already has an approved link for this role").
			WithDetail("childId", in.ChildID.String()).
			WithDetail("role", string(in.Role))
	}

	var req *Request
	if parent.IsOwnedBy(acting) {
		req = NewApprovedRequest(in.ChildID, in.ParentID, in.Role, acting)
		req.Message = in.Message
	} else {
		req = NewRequest(in.ChildID, in.ParentID, in.Role, acting, parent.OwnerID, in.Message)
	}

	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, req); err != nil {
			return fmt.Errorf("create link request: %w", err)
		}
		if req.Status == StatusPending {
			return s.notifier.Notify(ctx, req.ReceiverID, notification.KindParentLinkProposed, payloadFor(req))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "parent link proposed",
		"request_id", req.ID,
		"role", req.Role,
		"status", req.Status)
	return req, nil
}

// CreateApprovedPair creates approved father and mother links for a freshly
// hatched individual in one step, with no observable pending state. Called
// by the hatch flow inside its transaction.
func (s *Service) CreateApprovedPair(ctx context.Context, childID id.ID, fatherID, motherID *id.ID, ownerID id.ID) error {
	mint := func(parentID id.ID, role Role) error {
		req := NewApprovedRequest(childID, parentID, role, ownerID)
		if err := req.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, req); err != nil {
			return fmt.Errorf("create %s link: %w", role, err)
		}
		return nil
	}

	if fatherID != nil && !id.IsNil(*fatherID) {
		if err := mint(*fatherID, RoleFather); err != nil {
			return err
		}
	}
	if motherID != nil && !id.IsNil(*motherID) {
		if err := mint(*motherID, RoleMother); err != nil {
			return err
		}
	}
	return nil
}

// Decide applies the counter-owner's accept/reject, or the requester's
// cancel, to a pending request. The status update and the notification back
// to the other party commit together or not at all.
func (s *Service) Decide(ctx context.Context, requestID id.ID, newStatus Status, rejectReason string) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	acting := appctx.GetUserID(ctx)

	var kind notification.Kind
	var notifyTarget id.ID
	switch newStatus {
	case StatusApproved:
		if acting != req.ReceiverID {
			return nil, apperror.NewForbidden("only the parent's owner can approve this request")
		}
		// Another request for the same slot may have been approved since
		// this one was proposed.
		linked, err := s.repo.ApprovedExists(ctx, req.ChildID, req.Role)
		if err != nil {
			return nil, err
		}
		if linked {
			return nil, apperror.NewConflict("the child already has an approved link for this role").
				WithDetail("childId", req.ChildID.String()).
				WithDetail("role", string(req.Role))
		}
		if err := req.Approve(); err != nil {
			return nil, err
		}
		kind, notifyTarget = notification.KindParentLinkApproved, req.RequesterID
	case StatusRejected:
		if acting != req.ReceiverID {
			return nil, apperror.NewForbidden("only the parent's owner can reject this request")
		}
		if err := req.Reject(rejectReason); err != nil {
			return nil, err
		}
		kind, notifyTarget = notification.KindParentLinkRejected, req.RequesterID
	case StatusCancelled:
		if acting != req.RequesterID {
			return nil, apperror.NewForbidden("only the requester can cancel this request")
		}
		if err := req.Cancel(); err != nil {
			return nil, err
		}
		kind, notifyTarget = notification.KindParentLinkCancelled, req.ReceiverID
	default:
		return nil, apperror.NewValidation("decision must be approved, rejected or cancelled").
			WithDetail("status", string(newStatus))
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, req); err != nil {
			return fmt.Errorf("update link request: %w", err)
		}
		// Skip the notification when requester and receiver are the same
		// user (fast-path requests never reach Decide, but cancels can).
		if notifyTarget != acting {
			return s.notifier.Notify(ctx, notifyTarget, kind, payloadFor(req))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "parent link decided",
		"request_id", req.ID,
		"status", req.Status)
	return req, nil
}

// Unlink revokes the active link for (child, role). Only the child's owner
// may unlink; prior rejected or cancelled requests stay untouched.
func (s *Service) Unlink(ctx context.Context, childID id.ID, role Role) error {
	child, err := s.activeIndividual(ctx, childID)
	if err != nil {
		return err
	}
	if !child.IsOwnedBy(appctx.GetUserID(ctx)) {
		return apperror.NewForbidden("only the owner can unlink a parent").
			WithDetail("childId", childID.String())
	}

	req, err := s.repo.FindActive(ctx, childID, role)
	if err != nil {
		return err
	}
	req.MarkLinkDeleted()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, req); err != nil {
			return fmt.Errorf("unlink %s: %w", role, err)
		}
		return nil
	})
}

// CascadeDeleteForIndividual bulk-marks every non-deleted request
// referencing the individual as deleted. Registered as an AfterDelete hook
// on the Individual registry, so it runs inside the deleting transaction.
func (s *Service) CascadeDeleteForIndividual(ctx context.Context, individualID id.ID) error {
	if err := s.repo.MarkDeletedByIndividual(ctx, individualID); err != nil {
		return fmt.Errorf("cascade link deletion: %w", err)
	}
	return nil
}

// Parents is the resolved father/mother view of a child.
type Parents struct {
	Father *Request `json:"father,omitempty"`
	Mother *Request `json:"mother,omitempty"`
}

// ResolveParents returns the current father/mother links for childID, each
// annotated with its status. Pending links are visible only to the child's
// owner; everyone else sees approved links only.
func (s *Service) ResolveParents(ctx context.Context, childID id.ID) (Parents, error) {
	child, err := s.activeIndividual(ctx, childID)
	if err != nil {
		return Parents{}, err
	}
	viewerOwns := child.IsOwnedBy(appctx.GetUserID(ctx))

	resolve := func(role Role) (*Request, error) {
		req, err := s.repo.FindActive(ctx, childID, role)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		if req.Status == StatusPending && !viewerOwns {
			return nil, nil
		}
		return req, nil
	}

	var parents Parents
	if parents.Father, err = resolve(RoleFather); err != nil {
		return Parents{}, err
	}
	if parents.Mother, err = resolve(RoleMother); err != nil {
		return Parents{}, err
	}
	return parents, nil
}
