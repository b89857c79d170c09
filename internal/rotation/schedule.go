package rotation

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// SetSchedule creates or replaces a vault's active rotation schedule and
// recomputes the due dates it drives. Interval must be positive and the alert
// lead must fit inside it.
func (s *Service) SetSchedule(ctx context.Context, p models.Principal, vaultID int64, intervalDays, alertDaysBefore int) (*models.RotationSchedule, error) {
	if intervalDays <= 0 {
		return nil, fault.Validationf("rotation interval must be positive")
	}
	if alertDaysBefore < 0 || alertDaysBefore >= intervalDays {
		return nil, fault.Validationf("alert lead must be between 0 and the interval")
	}

	now := time.Now().UTC()
	existing, err := s.store.GetActiveRotationSchedule(ctx, vaultID)
	switch {
	case err == nil:
		existing.RotationIntervalDays = intervalDays
		existing.AlertDaysBefore = alertDaysBefore
		existing.UpdatedAt = now
		if err := s.store.UpdateRotationSchedule(ctx, existing); err != nil {
			return nil, fault.Persistencef(err, "updating rotation schedule")
		}
	case errors.Is(err, storage.ErrNotFound):
		existing = &models.RotationSchedule{
			VaultID:              vaultID,
			RotationIntervalDays: intervalDays,
			AlertDaysBefore:      alertDaysBefore,
			IsActive:             true,
			CreatedBy:            p.UserID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := s.store.CreateRotationSchedule(ctx, existing); err != nil {
			return nil, fault.Persistencef(err, "creating rotation schedule")
		}
	default:
		return nil, fault.Persistencef(err, "fetching rotation schedule")
	}

	if _, err := s.store.RecomputeRotationDueDates(ctx, now); err != nil {
		return nil, fault.Persistencef(err, "recomputing due dates")
	}
	return existing, nil
}

// GetSchedule returns a vault's active rotation schedule.
func (s *Service) GetSchedule(ctx context.Context, vaultID int64) (*models.RotationSchedule, error) {
	sched, err := s.store.GetActiveRotationSchedule(ctx, vaultID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("no active schedule for vault %d", vaultID)
		}
		return nil, fault.Persistencef(err, "fetching rotation schedule")
	}
	return sched, nil
}

// DisableSchedule deactivates a vault's schedule without deleting it.
func (s *Service) DisableSchedule(ctx context.Context, vaultID int64) error {
	sched, err := s.GetSchedule(ctx, vaultID)
	if err != nil {
		return err
	}
	sched.IsActive = false
	if err := s.store.UpdateRotationSchedule(ctx, sched); err != nil {
		return fault.Persistencef(err, "disabling rotation schedule")
	}
	return nil
}

// GetRotationAlerts returns password secrets due within daysAhead days,
// soonest first, enriched with vault and asset context. A zero daysAhead
// falls back to each schedule's own alert lead.
func (s *Service) GetRotationAlerts(ctx context.Context, daysAhead int) ([]*models.RotationAlert, error) {
	if daysAhead < 0 {
		return nil, fault.Validationf("days ahead must not be negative")
	}
	alerts, err := s.store.ListRotationAlerts(ctx, time.Now().UTC(), daysAhead)
	if err != nil {
		return nil, fault.Persistencef(err, "listing rotation alerts")
	}
	return alerts, nil
}

// GetComplianceMetrics summarizes rotation posture across password secrets.
func (s *Service) GetComplianceMetrics(ctx context.Context) (*models.ComplianceMetrics, error) {
	m, err := s.store.ComplianceMetrics(ctx, time.Now().UTC())
	if err != nil {
		return nil, fault.Persistencef(err, "computing compliance metrics")
	}
	return m, nil
}
