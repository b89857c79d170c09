package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/org/assetvault/pkg/models"
)

func (p *PostgresStore) CreateVault(ctx context.Context, v *models.Vault, ver *models.VaultVersion) error {
	return p.RunInTx(ctx, func(tx Store) error {
		pt := tx.(*PostgresStore)
		err := pt.db.QueryRow(ctx,
			`INSERT INTO vaults (asset_id, name, description, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 RETURNING id`,
			v.AssetID, v.Name, v.Description, v.CreatedBy, v.CreatedAt,
		).Scan(&v.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("inserting vault: %w", err)
		}
		ver.VaultID = v.ID
		return tx.AppendVaultVersion(ctx, ver)
	})
}

const vaultColumns = `id, asset_id, name, description, created_by, created_at, updated_at`

func scanVault(row pgx.Row) (*models.Vault, error) {
	var v models.Vault
	err := row.Scan(&v.ID, &v.AssetID, &v.Name, &v.Description, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (p *PostgresStore) GetVault(ctx context.Context, id int64) (*models.Vault, error) {
	return scanVault(p.db.QueryRow(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE id = $1`, id))
}

func (p *PostgresStore) GetVaultByAssetID(ctx context.Context, assetID int64) (*models.Vault, error) {
	return scanVault(p.db.QueryRow(ctx,
		`SELECT `+vaultColumns+` FROM vaults WHERE asset_id = $1
		 ORDER BY created_at DESC LIMIT 1`, assetID))
}

func (p *PostgresStore) ListVaults(ctx context.Context) ([]*models.Vault, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+vaultColumns+` FROM vaults ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []*models.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}
	return vaults, rows.Err()
}

func (p *PostgresStore) UpdateVault(ctx context.Context, v *models.Vault, ver *models.VaultVersion) error {
	return p.RunInTx(ctx, func(tx Store) error {
		pt := tx.(*PostgresStore)
		tag, err := pt.db.Exec(ctx,
			`UPDATE vaults SET name = $1, description = $2, updated_at = NOW() WHERE id = $3`,
			v.Name, v.Description, v.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("updating vault: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return tx.AppendVaultVersion(ctx, ver)
	})
}

// DeleteVault removes a vault; secrets, versions, permissions and schedules
// cascade with it, so no version row survives the deletion itself.
func (p *PostgresStore) DeleteVault(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM vaults WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting vault: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) AppendVaultVersion(ctx context.Context, ver *models.VaultVersion) error {
	changesJSON, err := json.Marshal(ver.Changes)
	if err != nil {
		changesJSON = []byte("{}")
	}
	err = p.db.QueryRow(ctx,
		`INSERT INTO vault_versions (vault_id, change_type, author, created_at, notes, changes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		ver.VaultID, ver.ChangeType, ver.Author, ver.CreatedAt, ver.Notes, changesJSON,
	).Scan(&ver.ID)
	if err != nil {
		return fmt.Errorf("appending vault version: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListVaultVersions(ctx context.Context, vaultID int64, limit int) ([]*models.VaultVersion, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.Query(ctx,
		`SELECT id, vault_id, change_type, author, created_at, notes, changes
		 FROM vault_versions WHERE vault_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		vaultID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.VaultVersion
	for rows.Next() {
		var ver models.VaultVersion
		var changesJSON []byte
		if err := rows.Scan(&ver.ID, &ver.VaultID, &ver.ChangeType, &ver.Author,
			&ver.CreatedAt, &ver.Notes, &changesJSON); err != nil {
			return nil, err
		}
		json.Unmarshal(changesJSON, &ver.Changes) //nolint:errcheck
		versions = append(versions, &ver)
	}
	return versions, rows.Err()
}

func (p *PostgresStore) CountVaultVersions(ctx context.Context, vaultID int64) (int, error) {
	var count int
	err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM vault_versions WHERE vault_id = $1`, vaultID).Scan(&count)
	return count, err
}

func (p *PostgresStore) CountVaults(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM vaults`).Scan(&count)
	return count, err
}
