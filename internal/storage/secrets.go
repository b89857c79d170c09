package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/org/assetvault/pkg/models"
)

const secretColumns = `id, vault_id, type, label, encrypted_value,
	strength_score, last_changed, generation_method, policy_version,
	last_rotated, rotation_interval_days, next_rotation_due, rotation_policy_id,
	created_at, updated_at`

func scanSecret(row pgx.Row) (*models.Secret, error) {
	var s models.Secret
	err := row.Scan(&s.ID, &s.VaultID, &s.Type, &s.Label, &s.EncryptedValue,
		&s.StrengthScore, &s.LastChanged, &s.GenerationMethod, &s.PolicyVersion,
		&s.LastRotated, &s.RotationIntervalDays, &s.NextRotationDue, &s.RotationPolicyID,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// AddSecret inserts a secret, its version row, and (for password secrets)
// the initial reuse-history row in one transaction.
func (p *PostgresStore) AddSecret(ctx context.Context, s *models.Secret, ver *models.VaultVersion, reuseHash string) error {
	return p.RunInTx(ctx, func(tx Store) error {
		pt := tx.(*PostgresStore)
		err := pt.db.QueryRow(ctx,
			`INSERT INTO secrets (vault_id, type, label, encrypted_value,
			    strength_score, last_changed, generation_method, policy_version,
			    last_rotated, rotation_interval_days, next_rotation_due, rotation_policy_id,
			    created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
			 RETURNING id`,
			s.VaultID, s.Type, s.Label, s.EncryptedValue,
			s.StrengthScore, s.LastChanged, s.GenerationMethod, s.PolicyVersion,
			s.LastRotated, s.RotationIntervalDays, s.NextRotationDue, s.RotationPolicyID,
			s.CreatedAt,
		).Scan(&s.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("inserting secret: %w", err)
		}

		ver.VaultID = s.VaultID
		if err := tx.AppendVaultVersion(ctx, ver); err != nil {
			return err
		}

		if reuseHash != "" {
			return tx.InsertPasswordHistory(ctx, &models.PasswordHistory{
				SecretID:     s.ID,
				PasswordHash: reuseHash,
				CreatedAt:    s.CreatedAt,
			})
		}
		return nil
	})
}

func (p *PostgresStore) GetSecret(ctx context.Context, id int64) (*models.Secret, error) {
	return scanSecret(p.db.QueryRow(ctx,
		`SELECT `+secretColumns+` FROM secrets WHERE id = $1`, id))
}

func (p *PostgresStore) GetSecretByLabel(ctx context.Context, vaultID int64, label string) (*models.Secret, error) {
	return scanSecret(p.db.QueryRow(ctx,
		`SELECT `+secretColumns+` FROM secrets WHERE vault_id = $1 AND label = $2`,
		vaultID, label))
}

func (p *PostgresStore) ListSecrets(ctx context.Context, vaultID int64) ([]*models.Secret, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+secretColumns+` FROM secrets WHERE vault_id = $1
		 ORDER BY created_at DESC, id DESC`, vaultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secrets []*models.Secret
	for rows.Next() {
		s, err := scanSecret(rows)
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, s)
	}
	return secrets, rows.Err()
}

// UpdateSecret writes a secret and its version row in one transaction. A
// non-empty reuseHash retires the secret's live history rows and inserts the
// hash of the new value, so later rotations see the replaced password.
func (p *PostgresStore) UpdateSecret(ctx context.Context, s *models.Secret, ver *models.VaultVersion, reuseHash string) error {
	return p.RunInTx(ctx, func(tx Store) error {
		pt := tx.(*PostgresStore)
		tag, err := pt.db.Exec(ctx,
			`UPDATE secrets SET label = $1, encrypted_value = $2,
			    strength_score = $3, last_changed = $4, generation_method = $5,
			    policy_version = $6, rotation_interval_days = $7, next_rotation_due = $8,
			    updated_at = NOW()
			 WHERE id = $9`,
			s.Label, s.EncryptedValue,
			s.StrengthScore, s.LastChanged, s.GenerationMethod,
			s.PolicyVersion, s.RotationIntervalDays, s.NextRotationDue,
			s.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("updating secret: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if err := tx.AppendVaultVersion(ctx, ver); err != nil {
			return err
		}
		if reuseHash == "" {
			return nil
		}
		if err := tx.RetirePasswordHistory(ctx, s.ID, s.UpdatedAt); err != nil {
			return err
		}
		return tx.InsertPasswordHistory(ctx, &models.PasswordHistory{
			SecretID:     s.ID,
			PasswordHash: reuseHash,
			CreatedAt:    s.UpdatedAt,
		})
	})
}

func (p *PostgresStore) DeleteSecret(ctx context.Context, id int64, ver *models.VaultVersion) error {
	return p.RunInTx(ctx, func(tx Store) error {
		pt := tx.(*PostgresStore)
		tag, err := pt.db.Exec(ctx, `DELETE FROM secrets WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting secret: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return tx.AppendVaultVersion(ctx, ver)
	})
}

func (p *PostgresStore) CountSecrets(ctx context.Context, vaultID int64) (int, error) {
	var count int
	err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM secrets WHERE vault_id = $1`, vaultID).Scan(&count)
	return count, err
}

func (p *PostgresStore) CountAllSecrets(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM secrets`).Scan(&count)
	return count, err
}

// --- Password history ---

func (p *PostgresStore) PasswordHistoryHashes(ctx context.Context, excludeSecretID *int64) ([]string, error) {
	query := `SELECT password_hash FROM password_history`
	args := []any{}
	if excludeSecretID != nil {
		query += ` WHERE secret_id <> $1`
		args = append(args, *excludeSecretID)
	}
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

func (p *PostgresStore) ListPasswordHistory(ctx context.Context, secretID int64) ([]*models.PasswordHistory, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, secret_id, password_hash, created_at, retired_at
		 FROM password_history WHERE secret_id = $1
		 ORDER BY created_at DESC, id DESC`,
		secretID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.PasswordHistory
	for rows.Next() {
		var h models.PasswordHistory
		if err := rows.Scan(&h.ID, &h.SecretID, &h.PasswordHash, &h.CreatedAt, &h.RetiredAt); err != nil {
			return nil, err
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}

func (p *PostgresStore) InsertPasswordHistory(ctx context.Context, h *models.PasswordHistory) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO password_history (secret_id, password_hash, created_at, retired_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		h.SecretID, h.PasswordHash, h.CreatedAt, h.RetiredAt,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("inserting password history: %w", err)
	}
	return nil
}

// RetirePasswordHistory timestamps all non-retired entries for a secret.
func (p *PostgresStore) RetirePasswordHistory(ctx context.Context, secretID int64, at time.Time) error {
	_, err := p.db.Exec(ctx,
		`UPDATE password_history SET retired_at = $1
		 WHERE secret_id = $2 AND retired_at IS NULL`,
		at, secretID)
	return err
}

// PrunePasswordHistory deletes all but the keep most recent entries.
func (p *PostgresStore) PrunePasswordHistory(ctx context.Context, secretID int64, keep int) error {
	_, err := p.db.Exec(ctx,
		`DELETE FROM password_history
		 WHERE secret_id = $1 AND id NOT IN (
		     SELECT id FROM password_history
		     WHERE secret_id = $1
		     ORDER BY created_at DESC, id DESC
		     LIMIT $2
		 )`,
		secretID, keep)
	return err
}
