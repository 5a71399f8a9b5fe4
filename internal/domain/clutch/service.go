package clutch

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/id"
	"herptrack/internal/core/tx"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/mating"
	"herptrack/internal/domain/notification"
	"herptrack/internal/domain/sequence"
	"herptrack/pkg/logger"
)

// clutchSeq is the shared ordering validator. Creation and date-edit paths
// both go through it, keyed by (mating, clutch order, laying date).
var clutchSeq = sequence.Ordered{Label: "clutch", FloorLabel: "mating"}

// PedigreeLinker creates the approved parent links for a hatchling.
// Satisfied by the parent link service.
type PedigreeLinker interface {
	CreateApprovedPair(ctx context.Context, childID id.ID, fatherID, motherID *id.ID, ownerID id.ID) error
}

// Service provides business logic for clutches and egg progression.
type Service struct {
	repo        Repository
	matings     mating.Repository
	individuals individual.Repository
	linker      PedigreeLinker
	notifier    notification.Trigger
	txManager   tx.Manager
}

// NewService creates a new clutch service.
func NewService(
	repo Repository,
	matings mating.Repository,
	individuals individual.Repository,
	linker PedigreeLinker,
	notifier notification.Trigger,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		matings:     matings,
		individuals: individuals,
		linker:      linker,
		notifier:    notifier,
		txManager:   txManager,
	}
}

// CreateClutchInput carries the fields of a new laying batch.
type CreateClutchInput struct {
	MatingID    *id.ID
	LaidOn      time.Time
	ClutchOrder int
	Species     string
	EggCount    int
	Temperature *decimal.Decimal
}

// siblingsOf converts the mating's clutches into sequence entries.
func siblingsOf(clutches []*Clutch) []sequence.Entry {
	entries := make([]sequence.Entry, 0, len(clutches))
	for _, c := range clutches {
		entries = append(entries, sequence.Entry{ID: c.ID, Order: c.ClutchOrder, Date: c.LaidOn})
	}
	return entries
}

// ownedMating loads the mating and verifies the acting user owns it.
func (s *Service) ownedMating(ctx context.Context, matingID id.ID) (*mating.Mating, error) {
	m, err := s.matings.GetByID(ctx, matingID)
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

// CreateClutch appends a laying batch to a mating and materializes EggCount
// eggs pre-seeded as fertilized. Order and date validation run inside the
// insert transaction against the current sibling set.
func (s *Service) CreateClutch(ctx context.Context, in CreateClutchInput) (*Clutch, error) {
	c := NewClutch(appctx.GetUserID(ctx), in.MatingID, in.LaidOn, in.ClutchOrder, in.Species)
	c.Temperature = in.Temperature

	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if in.EggCount < 0 {
		return nil, apperror.NewValidation("egg count cannot be negative").
			WithDetail("eggCount", in.EggCount)
	}

	eggs := make([]*Egg, 0, in.EggCount)
	for i := 1; i <= in.EggCount; i++ {
		egg := NewEgg(c.ID, i)
		egg.Temperature = in.Temperature
		eggs = append(eggs, egg)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if in.MatingID != nil {
			m, err := s.ownedMating(ctx, *in.MatingID)
			if err != nil {
				return err
			}
			siblings, err := s.repo.ListByMating(ctx, *in.MatingID)
			if err != nil {
				return err
			}
			if err := clutchSeq.ValidateAppend(siblingsOf(siblings), in.ClutchOrder, in.LaidOn, m.MatedOn); err != nil {
				return err
			}
		}
		if err := s.repo.CreateClutch(ctx, c, eggs); err != nil {
			return fmt.Errorf("create clutch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "clutch created",
		"id", c.ID,
		"order", c.ClutchOrder,
		"eggs", len(eggs))
	return c, nil
}

// GetOwnedClutch retrieves a clutch and verifies the acting user owns it.
func (s *Service) GetOwnedClutch(ctx context.Context, clutchID id.ID) (*Clutch, error) {
	c, err := s.repo.GetClutchByID(ctx, clutchID)
	if err != nil {
		return nil, err
	}
	if c.DeletionMark {
		return nil, apperror.NewNotFound("clutch", clutchID.String())
	}
	if !c.IsOwnedBy(appctx.GetUserID(ctx)) {
		return nil, apperror.NewForbidden("clutch belongs to another user").
			WithDetail("clutchId", clutchID.String())
	}
	return c, nil
}

// UpdateClutchDate moves a clutch's laying date within its neighbor window.
// No-op edits are rejected so the caller always supplies an actual change.
func (s *Service) UpdateClutchDate(ctx context.Context, clutchID id.ID, newDate time.Time) (*Clutch, error) {
	c, err := s.GetOwnedClutch(ctx, clutchID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if c.MatingID != nil {
			m, err := s.ownedMating(ctx, *c.MatingID)
			if err != nil {
				return err
			}
			siblings, err := s.repo.ListByMating(ctx, *c.MatingID)
			if err != nil {
				return err
			}
			if err := clutchSeq.ValidateDateChange(siblingsOf(siblings), c.ID, newDate, m.MatedOn); err != nil {
				return err
			}
		} else if newDate.Equal(c.LaidOn) {
			return apperror.NewValidation("new date equals the current clutch date; nothing to change").
				WithDetail("date", newDate.Format(time.DateOnly))
		}

		c.LaidOn = newDate
		c.Touch()
		if err := s.repo.UpdateClutch(ctx, c); err != nil {
			return fmt.Errorf("update clutch date: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteClutch soft-deletes a clutch and its unhatched eggs. Blocked once
// any egg has hatched: the minted individual keeps pointing back here.
func (s *Service) DeleteClutch(ctx context.Context, clutchID id.ID) error {
	c, err := s.GetOwnedClutch(ctx, clutchID)
	if err != nil {
		return err
	}

	hatched, err := s.repo.HasHatchedEgg(ctx, clutchID)
	if err != nil {
		return err
	}
	if hatched {
		return apperror.NewConflict("clutch has hatched eggs and cannot be deleted").
			WithDetail("clutchId", clutchID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkEggsDeletedByClutch(ctx, clutchID); err != nil {
			return fmt.Errorf("delete clutch eggs: %w", err)
		}
		if err := s.repo.SetClutchDeletionMark(ctx, clutchID, true); err != nil {
			return fmt.Errorf("delete clutch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "clutch deleted", "id", clutchID, "order", c.ClutchOrder)
	return nil
}

// ListEggs returns the eggs of an owned clutch.
func (s *Service) ListEggs(ctx context.Context, clutchID id.ID) ([]*Egg, error) {
	if _, err := s.GetOwnedClutch(ctx, clutchID); err != nil {
		return nil, err
	}
	return s.repo.ListEggsByClutch(ctx, clutchID)
}

// ownedEgg loads an egg and verifies ownership via its clutch.
func (s *Service) ownedEgg(ctx context.Context, eggID id.ID) (*Egg, *Clutch, error) {
	e, err := s.repo.GetEggByID(ctx, eggID)
	if err != nil {
		return nil, nil, err
	}
	if e.DeletionMark {
		return nil, nil, apperror.NewNotFound("egg", eggID.String())
	}
	c, err := s.GetOwnedClutch(ctx, e.ClutchID)
	if err != nil {
		return nil, nil, err
	}
	return e, c, nil
}

// UpdateEggStatus moves an egg among fertilized/unfertilized/dead. Hatched
// eggs are read-only.
func (s *Service) UpdateEggStatus(ctx context.Context, eggID id.ID, newStatus EggStatus) (*Egg, error) {
	if !isValidEggStatus(newStatus) {
		return nil, apperror.NewValidation("invalid egg status").
			WithDetail("value", string(newStatus))
	}

	e, _, err := s.ownedEgg(ctx, eggID)
	if err != nil {
		return nil, err
	}
	if e.IsHatched() {
		return nil, apperror.NewInvalidTransition("egg has already hatched; its status can no longer change").
			WithDetail("eggId", eggID.String()).
			WithDetail("individualId", e.HatchedIndividualID.String())
	}

	e.Status = newStatus
	e.Touch()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateEgg(ctx, e); err != nil {
			return fmt.Errorf("update egg status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// hatchPayload is the notification payload for a hatch event.
type hatchPayload struct {
	EggID        string `json:"eggId"`
	ClutchID     string `json:"clutchId"`
	IndividualID string `json:"individualId"`
	Species      string `json:"species"`
	HatchedOn    string `json:"hatchedOn"`
}

// Hatch marks an egg hatched: it mints a new individual inheriting the
// clutch's species, links the egg to it, and, when the mating carries known
// parents, creates two approved parent links in the same transaction. A
// second hatch of the same egg fails and mints nothing.
func (s *Service) Hatch(ctx context.Context, eggID id.ID, hatchDate time.Time) (*individual.Individual, error) {
	e, c, err := s.ownedEgg(ctx, eggID)
	if err != nil {
		return nil, err
	}
	if e.IsHatched() {
		return nil, apperror.NewInvalidTransition("egg has already hatched").
			WithDetail("eggId", eggID.String()).
			WithDetail("individualId", e.HatchedIndividualID.String())
	}
	if hatchDate.Before(c.LaidOn) {
		return nil, apperror.NewValidation("hatch date cannot precede the clutch's laying date").
			WithDetail("hatchDate", hatchDate.Format(time.DateOnly)).
			WithDetail("laidOn", c.LaidOn.Format(time.DateOnly))
	}

	hatchling := individual.New(c.OwnerID, c.Species)
	hatchling.HatchedOn = &hatchDate
	hatchling.ClutchID = &c.ID

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.individuals.Create(ctx, hatchling); err != nil {
			return fmt.Errorf("mint hatchling: %w", err)
		}

		e.HatchedIndividualID = &hatchling.ID
		e.HatchedOn = &hatchDate
		e.Touch()
		if err := s.repo.UpdateEgg(ctx, e); err != nil {
			return fmt.Errorf("link egg to hatchling: %w", err)
		}

		if c.MatingID != nil {
			m, err := s.matings.GetByID(ctx, *c.MatingID)
			if err != nil {
				return err
			}
			if err := s.linker.CreateApprovedPair(ctx, hatchling.ID, m.FatherID, m.MotherID, c.OwnerID); err != nil {
				return err
			}
		}

		return s.notifier.Notify(ctx, c.OwnerID, notification.KindEggHatched, hatchPayload{
			EggID:        e.ID.String(),
			ClutchID:     c.ID.String(),
			IndividualID: hatchling.ID.String(),
			Species:      c.Species,
			HatchedOn:    hatchDate.Format(time.DateOnly),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "egg hatched",
		"egg_id", e.ID,
		"individual_id", hatchling.ID,
		"species", c.Species)
	return hatchling, nil
}

// GuardUnhatchedOffspring blocks deleting an individual that still has
// unhatched eggs depending on it. Registered as a BeforeDelete hook on the
// individual registry.
func (s *Service) GuardUnhatchedOffspring(ctx context.Context, ind *individual.Individual) error {
	count, err := s.repo.CountUnhatchedByParent(ctx, ind.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.NewConflict("individual has unhatched eggs depending on it").
			WithDetail("individualId", ind.ID.String()).
			WithDetail("unhatchedEggs", count)
	}
	return nil
}
