package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/org/assetvault/pkg/models"
)

const scheduleColumns = `id, vault_id, rotation_interval_days, alert_days_before,
	is_active, created_by, created_at, updated_at`

func scanSchedule(row pgx.Row) (*models.RotationSchedule, error) {
	var s models.RotationSchedule
	err := row.Scan(&s.ID, &s.VaultID, &s.RotationIntervalDays, &s.AlertDaysBefore,
		&s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (p *PostgresStore) CreateRotationSchedule(ctx context.Context, s *models.RotationSchedule) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO rotation_schedules (vault_id, rotation_interval_days,
		    alert_days_before, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING id`,
		s.VaultID, s.RotationIntervalDays, s.AlertDaysBefore, s.IsActive, s.CreatedBy, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting rotation schedule: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetActiveRotationSchedule(ctx context.Context, vaultID int64) (*models.RotationSchedule, error) {
	return scanSchedule(p.db.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM rotation_schedules
		 WHERE vault_id = $1 AND is_active`, vaultID))
}

func (p *PostgresStore) UpdateRotationSchedule(ctx context.Context, s *models.RotationSchedule) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE rotation_schedules
		 SET rotation_interval_days = $1, alert_days_before = $2, is_active = $3, updated_at = NOW()
		 WHERE id = $4`,
		s.RotationIntervalDays, s.AlertDaysBefore, s.IsActive, s.ID)
	if err != nil {
		return fmt.Errorf("updating rotation schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplySecretRotation writes the rotation-relevant fields of a secret in one
// statement. Callers run it inside the rotation transaction.
func (p *PostgresStore) ApplySecretRotation(ctx context.Context, s *models.Secret) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE secrets SET encrypted_value = $1, strength_score = $2,
		    last_changed = $3, last_rotated = $4, next_rotation_due = $5,
		    generation_method = $6, policy_version = $7, updated_at = NOW()
		 WHERE id = $8`,
		s.EncryptedValue, s.StrengthScore,
		s.LastChanged, s.LastRotated, s.NextRotationDue,
		s.GenerationMethod, s.PolicyVersion, s.ID)
	if err != nil {
		return fmt.Errorf("applying secret rotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) InsertRotationHistory(ctx context.Context, h *models.PasswordRotationHistory) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO password_rotation_history (secret_id, old_password_hash,
		    reason, rotated_by, rotated_at, batch_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		h.SecretID, h.OldPasswordHash, h.Reason, h.RotatedBy, h.RotatedAt, h.BatchID,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("inserting rotation history: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListRotationHistory(ctx context.Context, secretID int64) ([]*models.PasswordRotationHistory, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, secret_id, old_password_hash, reason, rotated_by, rotated_at, batch_id
		 FROM password_rotation_history WHERE secret_id = $1
		 ORDER BY rotated_at DESC, id DESC`,
		secretID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.PasswordRotationHistory
	for rows.Next() {
		var h models.PasswordRotationHistory
		if err := rows.Scan(&h.ID, &h.SecretID, &h.OldPasswordHash, &h.Reason,
			&h.RotatedBy, &h.RotatedAt, &h.BatchID); err != nil {
			return nil, err
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}

// ListRotationAlerts returns password secrets inside their alert window,
// soonest first, joined with vault context for display. A positive daysAhead
// fixes the window; zero takes each vault schedule's alert lead.
func (p *PostgresStore) ListRotationAlerts(ctx context.Context, now time.Time, daysAhead int) ([]*models.RotationAlert, error) {
	query := `SELECT s.id, s.label, v.id, v.name, v.asset_id, s.next_rotation_due
		 FROM secrets s
		 JOIN vaults v ON v.id = s.vault_id`
	var args []any
	if daysAhead > 0 {
		query += `
		 WHERE s.type = $1 AND s.next_rotation_due IS NOT NULL AND s.next_rotation_due < $2`
		args = []any{models.SecretPassword, now.AddDate(0, 0, daysAhead)}
	} else {
		query += `
		 JOIN rotation_schedules rs ON rs.vault_id = v.id AND rs.is_active
		 WHERE s.type = $1 AND s.next_rotation_due IS NOT NULL
		   AND s.next_rotation_due < $2 + make_interval(days => rs.alert_days_before)`
		args = []any{models.SecretPassword, now}
	}
	query += `
		 ORDER BY s.next_rotation_due ASC, s.id ASC`

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.RotationAlert
	for rows.Next() {
		var a models.RotationAlert
		if err := rows.Scan(&a.SecretID, &a.Label, &a.VaultID, &a.VaultName,
			&a.AssetID, &a.DueAt); err != nil {
			return nil, err
		}
		a.Overdue = a.DueAt.Before(now)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// ComplianceMetrics aggregates rotation posture over password secrets. A
// secret with no due date counts as compliant.
func (p *PostgresStore) ComplianceMetrics(ctx context.Context, now time.Time) (*models.ComplianceMetrics, error) {
	var m models.ComplianceMetrics
	err := p.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE next_rotation_due IS NOT NULL AND next_rotation_due < $2),
		        COUNT(*) FILTER (WHERE next_rotation_due IS NOT NULL
		            AND next_rotation_due >= $2 AND next_rotation_due < $2 + INTERVAL '7 days'),
		        COALESCE(AVG(EXTRACT(EPOCH FROM $2 - COALESCE(last_changed, created_at)) / 86400), 0)
		 FROM secrets WHERE type = $1`,
		models.SecretPassword, now,
	).Scan(&m.TotalPasswordSecrets, &m.OverdueCount, &m.DueWithin7Days, &m.AverageAgeDays)
	if err != nil {
		return nil, fmt.Errorf("computing compliance metrics: %w", err)
	}
	if m.TotalPasswordSecrets > 0 {
		m.CompliancePercent = float64(m.TotalPasswordSecrets-m.OverdueCount) /
			float64(m.TotalPasswordSecrets) * 100
	} else {
		m.CompliancePercent = 100
	}
	return &m, nil
}

// RecomputeRotationDueDates refreshes next_rotation_due for password secrets
// in vaults with an active schedule, from last_rotated (or last_changed, or
// created_at) plus the schedule interval. Idempotent.
func (p *PostgresStore) RecomputeRotationDueDates(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx,
		`UPDATE secrets s
		 SET next_rotation_due = COALESCE(s.last_rotated, s.last_changed, s.created_at)
		     + make_interval(days => rs.rotation_interval_days),
		     rotation_interval_days = rs.rotation_interval_days,
		     rotation_policy_id = rs.id
		 FROM rotation_schedules rs
		 WHERE rs.vault_id = s.vault_id AND rs.is_active AND s.type = $1
		   AND (s.next_rotation_due IS DISTINCT FROM
		        COALESCE(s.last_rotated, s.last_changed, s.created_at)
		            + make_interval(days => rs.rotation_interval_days))`,
		models.SecretPassword)
	if err != nil {
		return 0, fmt.Errorf("recomputing rotation due dates: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Batches ---

func (p *PostgresStore) CreateRotationBatch(ctx context.Context, b *models.RotationBatch) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO rotation_batches (name, created_by, started_at, status, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		b.Name, b.CreatedBy, b.StartedAt, b.Status, b.Notes,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("inserting rotation batch: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetRotationBatch(ctx context.Context, id int64) (*models.RotationBatch, error) {
	var b models.RotationBatch
	err := p.db.QueryRow(ctx,
		`SELECT id, name, created_by, started_at, completed_at, status, notes
		 FROM rotation_batches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedBy, &b.StartedAt, &b.CompletedAt, &b.Status, &b.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (p *PostgresStore) UpdateRotationBatch(ctx context.Context, b *models.RotationBatch) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE rotation_batches SET completed_at = $1, status = $2, notes = $3
		 WHERE id = $4`,
		b.CompletedAt, b.Status, b.Notes, b.ID)
	if err != nil {
		return fmt.Errorf("updating rotation batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Audit ---

func (p *PostgresStore) InsertAuditEvent(ctx context.Context, e *models.AuditEvent) error {
	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}
	_, err = p.db.Exec(ctx,
		`INSERT INTO audit_events (id, event_type, user_id, username, description, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.EventType, e.UserID, e.Username, e.Description, metadataJSON, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}
