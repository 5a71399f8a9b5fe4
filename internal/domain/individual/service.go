package individual

import (
	"context"
	"fmt"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/core/tx"
	"herptrack/internal/domain"
	"herptrack/pkg/logger"
)

// Service provides business logic for the Individual registry.
//
// Cross-aggregate rules attach through the hook registry at wiring time:
// BeforeDelete hooks are dependency guards (active adoption, unhatched
// offspring), AfterDelete hooks are cascades (parent link revocation) and
// run inside the deleting transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Individual]
}

// NewService creates a new Individual service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Individual](),
	}
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*Individual] {
	return s.hooks
}

// Create registers a new individual owned by the acting user.
func (s *Service) Create(ctx context.Context, ind *Individual) error {
	if id.IsNil(ind.OwnerID) {
		ind.OwnerID = appctx.GetUserID(ctx)
	}
	if err := ind.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, ind); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, ind); err != nil {
			return fmt.Errorf("create individual: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "individual created", "id", ind.ID, "species", ind.Species)
	return nil
}

// GetByID retrieves an individual by ID.
func (s *Service) GetByID(ctx context.Context, individualID id.ID) (*Individual, error) {
	return s.repo.GetByID(ctx, individualID)
}

// GetOwned retrieves an individual and verifies the acting user owns it.
func (s *Service) GetOwned(ctx context.Context, individualID id.ID) (*Individual, error) {
	ind, err := s.repo.GetByID(ctx, individualID)
	if err != nil {
		return nil, err
	}
	if !ind.IsOwnedBy(appctx.GetUserID(ctx)) {
		return nil, apperror.NewForbidden("individual belongs to another user").
			WithDetail("individualId", individualID.String())
	}
	return ind, nil
}

// Update modifies an owned individual.
func (s *Service) Update(ctx context.Context, ind *Individual) error {
	current, err := s.GetOwned(ctx, ind.ID)
	if err != nil {
		return err
	}
	ind.OwnerID = current.OwnerID
	if err := ind.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, ind); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, ind); err != nil {
			return fmt.Errorf("update individual: %w", err)
		}
		return nil
	})
}

// UpdateSaleStatus overwrites the sale status. Called by the adoption sync;
// the status is always recomputed from the adoption row, never patched
// incrementally.
func (s *Service) UpdateSaleStatus(ctx context.Context, individualID id.ID, status SaleStatus) error {
	if !isValidSaleStatus(status) {
		return apperror.NewValidation("invalid sale status").
			WithDetail("value", string(status))
	}
	return s.repo.UpdateSaleStatus(ctx, individualID, status)
}

// Delete soft-deletes an owned individual. BeforeDelete hooks may block the
// delete (active adoption, unhatched offspring); AfterDelete cascades run
// inside the same transaction so a partially applied delete is never
// observable.
func (s *Service) Delete(ctx context.Context, individualID id.ID) error {
	ind, err := s.GetOwned(ctx, individualID)
	if err != nil {
		return err
	}
	if ind.DeletionMark {
		return apperror.NewNotFound("individual", individualID.String())
	}

	if err := s.hooks.Run(ctx, domain.BeforeDelete, ind); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, individualID, true); err != nil {
			return fmt.Errorf("delete individual: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterDelete, ind)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "individual deleted", "id", individualID)
	return nil
}

// CascadeSoftDelete marks the individual deleted and runs the delete
// cascades, skipping the dependency guards. Used by the adoption sync when
// a sale completes: the guard against an active adoption obviously must not
// block the deletion that the sale itself triggers.
//
// Must be called inside the caller's transaction.
func (s *Service) CascadeSoftDelete(ctx context.Context, ind *Individual) error {
	if err := s.repo.SetDeletionMark(ctx, ind.ID, true); err != nil {
		return fmt.Errorf("cascade delete individual: %w", err)
	}
	return s.hooks.Run(ctx, domain.AfterDelete, ind)
}

// Exists checks for a non-deleted individual.
func (s *Service) Exists(ctx context.Context, individualID id.ID) (bool, error) {
	return s.repo.Exists(ctx, individualID)
}

// List retrieves individuals with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Individual], error) {
	return s.repo.List(ctx, filter)
}
