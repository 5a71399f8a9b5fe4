package mating

import (
	"context"
	"fmt"
	"time"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/core/tx"
	"herptrack/internal/domain"
	"herptrack/internal/domain/individual"
	"herptrack/pkg/logger"
)

// Service provides business logic for the mating register.
type Service struct {
	repo        Repository
	individuals individual.Repository
	clutches    ClutchCounter
	txManager   tx.Manager
}

// NewService creates a new mating service.
func NewService(repo Repository, individuals individual.Repository, clutches ClutchCounter, txManager tx.Manager) *Service {
	return &Service{
		repo:        repo,
		individuals: individuals,
		clutches:    clutches,
		txManager:   txManager,
	}
}

// checkParent verifies a referenced parent exists and is not deleted.
func (s *Service) checkParent(ctx context.Context, parentID *id.ID, field string) error {
	if parentID == nil || id.IsNil(*parentID) {
		return nil
	}
	ok, err := s.individuals.Exists(ctx, *parentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("individual", parentID.String()).
			WithDetail("field", field)
	}
	return nil
}

// checkTuple enforces the (owner, father, mother, date) uniqueness rule,
// excluding the record's own id on updates.
func (s *Service) checkTuple(ctx context.Context, m *Mating) error {
	exists, err := s.repo.TupleExists(ctx, m.OwnerID, m.FatherID, m.MotherID, m.MatedOn, m.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewConflict("this pair is already recorded as mated on that date").
			WithDetail("matedOn", m.MatedOn.Format(time.DateOnly))
	}
	return nil
}

// Record registers a mating for the acting user.
func (s *Service) Record(ctx context.Context, m *Mating) error {
	if id.IsNil(m.OwnerID) {
		m.OwnerID = appctx.GetUserID(ctx)
	}
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkParent(ctx, m.FatherID, "fatherId"); err != nil {
		return err
	}
	if err := s.checkParent(ctx, m.MotherID, "motherId"); err != nil {
		return err
	}
	if err := s.checkTuple(ctx, m); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return fmt.Errorf("create mating: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "mating recorded", "id", m.ID, "mated_on", m.MatedOn.Format(time.DateOnly))
	return nil
}

// GetOwned retrieves a mating and verifies the acting user owns it.
func (s *Service) GetOwned(ctx context.Context, matingID id.ID) (*Mating, error) {
	m, err := s.repo.GetByID(ctx, matingID)
	if err != nil {
		return nil, err
	}
	if m.DeletionMark {
		return nil, apperror.NewNotFound("mating", matingID.String())
	}
	if !m.IsOwnedBy(appctx.GetUserID(ctx)) {
		return nil, apperror.NewForbidden("mating belongs to another user").
			WithDetail("matingId", matingID.String())
	}
	return m, nil
}

// Update overwrites a mating's parents and date, re-validating tuple
// uniqueness against every other record.
func (s *Service) Update(ctx context.Context, m *Mating) error {
	current, err := s.GetOwned(ctx, m.ID)
	if err != nil {
		return err
	}
	m.OwnerID = current.OwnerID
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkParent(ctx, m.FatherID, "fatherId"); err != nil {
		return err
	}
	if err := s.checkParent(ctx, m.MotherID, "motherId"); err != nil {
		return err
	}
	if err := s.checkTuple(ctx, m); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("update mating: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a mating. Blocked while any non-deleted clutch still
// references it, so breeding history cannot be silently orphaned.
func (s *Service) Delete(ctx context.Context, matingID id.ID) error {
	if _, err := s.GetOwned(ctx, matingID); err != nil {
		return err
	}

	count, err := s.clutches.CountActiveByMating(ctx, matingID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.NewConflict("mating still has recorded clutches; delete them first").
			WithDetail("matingId", matingID.String()).
			WithDetail("clutchCount", count)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, matingID, true); err != nil {
			return fmt.Errorf("delete mating: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "mating deleted", "id", matingID)
	return nil
}

// ListByOwner returns the acting user's matings with parent summaries and
// nested clutches. Pure read.
func (s *Service) ListByOwner(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*View], error) {
	return s.repo.ListViews(ctx, appctx.GetUserID(ctx), filter)
}
