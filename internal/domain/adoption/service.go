package adoption

import (
	"context"
	"fmt"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/core/tx"
	"herptrack/internal/domain"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/notification"
	"herptrack/pkg/logger"
)

// Service provides business logic for adoptions and the sale status sync.
type Service struct {
	repo        Repository
	individuals *individual.Service
	users       UserDirectory
	notifier    notification.Trigger
	txManager   tx.Manager
}

// NewService creates a new adoption service.
func NewService(
	repo Repository,
	individuals *individual.Service,
	users UserDirectory,
	notifier notification.Trigger,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		individuals: individuals,
		users:       users,
		notifier:    notifier,
		txManager:   txManager,
	}
}

// adoptionPayload is the notification payload for adoption events.
type adoptionPayload struct {
	AdoptionID   string `json:"adoptionId"`
	IndividualID string `json:"individualId"`
	Status       string `json:"status"`
}

// checkBuyer verifies a supplied buyer id resolves to a real user.
func (s *Service) checkBuyer(ctx context.Context, buyerID *id.ID) error {
	if buyerID == nil || id.IsNil(*buyerID) {
		return nil
	}
	ok, err := s.users.Exists(ctx, *buyerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("user", buyerID.String()).
			WithDetail("field", "buyerId")
	}
	return nil
}

// syncStatus writes the derived sale status back to the individual and, on a
// completed sale, soft-deletes it with its cascades. Runs inside the
// adoption write transaction.
func (s *Service) syncStatus(ctx context.Context, a *Adoption, ind *individual.Individual) error {
	status := a.DerivedStatus()
	if err := s.individuals.UpdateSaleStatus(ctx, a.IndividualID, status); err != nil {
		return fmt.Errorf("sync sale status: %w", err)
	}

	switch status {
	case individual.SaleStatusSold:
		if err := s.individuals.CascadeSoftDelete(ctx, ind); err != nil {
			return err
		}
		if a.BuyerID != nil {
			return s.notifier.Notify(ctx, *a.BuyerID, notification.KindAdoptionCompleted, adoptionPayload{
				AdoptionID:   a.ID.String(),
				IndividualID: a.IndividualID.String(),
				Status:       string(status),
			})
		}
	case individual.SaleStatusOnReservation:
		if a.BuyerID != nil {
			return s.notifier.Notify(ctx, *a.BuyerID, notification.KindAdoptionReserved, adoptionPayload{
				AdoptionID:   a.ID.String(),
				IndividualID: a.IndividualID.String(),
				Status:       string(status),
			})
		}
	}
	return nil
}

// Create opens an adoption for an owned individual and derives its sale
// status. An explicit sold status completes the sale immediately.
func (s *Service) Create(ctx context.Context, a *Adoption) error {
	if id.IsNil(a.OwnerID) {
		a.OwnerID = appctx.GetUserID(ctx)
	}
	if err := a.Validate(ctx); err != nil {
		return err
	}

	ind, err := s.individuals.GetOwned(ctx, a.IndividualID)
	if err != nil {
		return err
	}
	if ind.DeletionMark {
		return apperror.NewNotFound("individual", a.IndividualID.String())
	}

	if _, err := s.repo.FindActiveByIndividual(ctx, a.IndividualID); err == nil {
		return apperror.NewConflict("an active adoption already exists for this individual").
			WithDetail("individualId", a.IndividualID.String())
	} else if !apperror.IsNotFound(err) {
		return err
	}

	if err := s.checkBuyer(ctx, a.BuyerID); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create adoption: %w", err)
		}
		return s.syncStatus(ctx, a, ind)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "adoption created",
		"id", a.ID,
		"individual_id", a.IndividualID,
		"status", a.DerivedStatus())
	return nil
}

// GetOwned retrieves an adoption and verifies the acting user owns it.
func (s *Service) GetOwned(ctx context.Context, adoptionID id.ID) (*Adoption, error) {
	a, err := s.repo.GetByID(ctx, adoptionID)
	if err != nil {
		return nil, err
	}
	if a.DeletionMark {
		return nil, apperror.NewNotFound("adoption", adoptionID.String())
	}
	if !a.IsOwnedBy(appctx.GetUserID(ctx)) {
		return nil, apperror.NewForbidden("adoption belongs to another user").
			WithDetail("adoptionId", adoptionID.String())
	}
	return a, nil
}

// Update overwrites an adoption and re-derives the individual's sale status
// from the new buyer/status fields. Removing the buyer without an explicit
// status reverts the individual to on sale.
func (s *Service) Update(ctx context.Context, a *Adoption) error {
	current, err := s.GetOwned(ctx, a.ID)
	if err != nil {
		return err
	}
	a.OwnerID = current.OwnerID
	a.IndividualID = current.IndividualID
	if err := a.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkBuyer(ctx, a.BuyerID); err != nil {
		return err
	}

	ind, err := s.individuals.GetByID(ctx, a.IndividualID)
	if err != nil {
		return err
	}
	if ind.DeletionMark {
		return apperror.NewNotFound("individual", a.IndividualID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, a); err != nil {
			return fmt.Errorf("update adoption: %w", err)
		}
		return s.syncStatus(ctx, a, ind)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "adoption updated",
		"id", a.ID,
		"status", a.DerivedStatus())
	return nil
}

// Delete closes an adoption and returns the individual to not for sale.
func (s *Service) Delete(ctx context.Context, adoptionID id.ID) error {
	a, err := s.GetOwned(ctx, adoptionID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, adoptionID, true); err != nil {
			return fmt.Errorf("delete adoption: %w", err)
		}
		if err := s.individuals.UpdateSaleStatus(ctx, a.IndividualID, individual.SaleStatusNotForSale); err != nil {
			return fmt.Errorf("reset sale status: %w", err)
		}
		return nil
	})
}

// ListByOwner returns the acting user's adoptions.
func (s *Service) ListByOwner(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Adoption], error) {
	return s.repo.ListByOwner(ctx, appctx.GetUserID(ctx), filter)
}

// GuardActiveAdoption blocks deleting an individual with an open adoption.
// Registered as a BeforeDelete hook on the individual registry; the sale
// completion path bypasses it via CascadeSoftDelete.
func (s *Service) GuardActiveAdoption(ctx context.Context, ind *individual.Individual) error {
	_, err := s.repo.FindActiveByIndividual(ctx, ind.ID)
	if err == nil {
		return apperror.NewConflict("individual has an active adoption; close it first").
			WithDetail("individualId", ind.ID.String())
	}
	if apperror.IsNotFound(err) {
		return nil
	}
	return err
}
