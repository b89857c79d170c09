package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/org/assetvault/pkg/models"
)

const permissionColumns = `id, user_id, vault_id, permission_type,
	granted_by, granted_at, expires_at, is_active`

func scanPermission(row pgx.Row) (*models.VaultPermission, error) {
	var p models.VaultPermission
	err := row.Scan(&p.ID, &p.UserID, &p.VaultID, &p.Type,
		&p.GrantedBy, &p.GrantedAt, &p.ExpiresAt, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (p *PostgresStore) InsertPermission(ctx context.Context, perm *models.VaultPermission) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO vault_permissions (user_id, vault_id, permission_type,
		    granted_by, granted_at, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		perm.UserID, perm.VaultID, perm.Type,
		perm.GrantedBy, perm.GrantedAt, perm.ExpiresAt, perm.IsActive,
	).Scan(&perm.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting permission: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetActivePermission(ctx context.Context, userID, vaultID int64, permType string) (*models.VaultPermission, error) {
	return scanPermission(p.db.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM vault_permissions
		 WHERE user_id = $1 AND vault_id = $2 AND permission_type = $3 AND is_active`,
		userID, vaultID, permType))
}

// ListActivePermissions lists active grants. A zero userID or vaultID leaves
// that dimension unconstrained.
func (p *PostgresStore) ListActivePermissions(ctx context.Context, userID, vaultID int64) ([]*models.VaultPermission, error) {
	query := `SELECT ` + permissionColumns + ` FROM vault_permissions WHERE is_active`
	var args []any
	if userID != 0 {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if vaultID != 0 {
		args = append(args, vaultID)
		query += fmt.Sprintf(" AND vault_id = $%d", len(args))
	}
	query += " ORDER BY granted_at DESC, id DESC"

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []*models.VaultPermission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// RevokePermissions deactivates active grants for (user, vault), scoped to one
// permission type when permType is non-empty. Returns the number revoked.
func (p *PostgresStore) RevokePermissions(ctx context.Context, userID, vaultID int64, permType string) (int64, error) {
	query := `UPDATE vault_permissions SET is_active = FALSE
	          WHERE user_id = $1 AND vault_id = $2 AND is_active`
	args := []any{userID, vaultID}
	if permType != "" {
		args = append(args, permType)
		query += fmt.Sprintf(" AND permission_type = $%d", len(args))
	}
	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("revoking permissions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpirePermissions deactivates active grants whose expiry has passed.
func (p *PostgresStore) ExpirePermissions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx,
		`UPDATE vault_permissions SET is_active = FALSE
		 WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("expiring permissions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) AppendAccessLog(ctx context.Context, entry *models.VaultAccessLog) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO vault_access_log (user_id, vault_id, access_type, accessed_at, result, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		entry.UserID, entry.VaultID, entry.AccessType, entry.AccessedAt, entry.Result, entry.ErrorMessage,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("appending access log: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListAccessLog(ctx context.Context, vaultID int64, limit int) ([]*models.VaultAccessLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.Query(ctx,
		`SELECT id, user_id, vault_id, access_type, accessed_at, result, error_message
		 FROM vault_access_log WHERE vault_id = $1
		 ORDER BY accessed_at DESC, id DESC
		 LIMIT $2`,
		vaultID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.VaultAccessLog
	for rows.Next() {
		var e models.VaultAccessLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.VaultID, &e.AccessType,
			&e.AccessedAt, &e.Result, &e.ErrorMessage); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// --- Permission requests ---

const requestColumns = `id, user_id, vault_id, requested_type, requested_by,
	status, approved_by, approval_notes, created_at, updated_at`

func scanRequest(row pgx.Row) (*models.PermissionRequest, error) {
	var r models.PermissionRequest
	err := row.Scan(&r.ID, &r.UserID, &r.VaultID, &r.RequestedType, &r.RequestedBy,
		&r.Status, &r.ApprovedBy, &r.ApprovalNotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (p *PostgresStore) InsertPermissionRequest(ctx context.Context, r *models.PermissionRequest) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO permission_requests (user_id, vault_id, requested_type,
		    requested_by, status, approval_notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING id`,
		r.UserID, r.VaultID, r.RequestedType,
		r.RequestedBy, r.Status, r.ApprovalNotes, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("inserting permission request: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetPermissionRequest(ctx context.Context, id int64) (*models.PermissionRequest, error) {
	return scanRequest(p.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM permission_requests WHERE id = $1`, id))
}

func (p *PostgresStore) FindPendingRequest(ctx context.Context, userID, vaultID int64, permType string) (*models.PermissionRequest, error) {
	return scanRequest(p.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM permission_requests
		 WHERE user_id = $1 AND vault_id = $2 AND requested_type = $3 AND status = $4
		 ORDER BY created_at DESC LIMIT 1`,
		userID, vaultID, permType, models.RequestPending))
}

// ListPermissionRequests lists requests, newest first. An empty status lists
// all of them.
func (p *PostgresStore) ListPermissionRequests(ctx context.Context, status string) ([]*models.PermissionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM permission_requests`
	var args []any
	if status != "" {
		args = append(args, status)
		query += " WHERE status = $1"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.PermissionRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// ResolvePermissionRequest moves a pending request to a terminal status. The
// status guard makes concurrent approvals race-safe; the loser sees
// ErrNotFound.
func (p *PostgresStore) ResolvePermissionRequest(ctx context.Context, id int64, status string, approvedBy int64, notes string) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE permission_requests
		 SET status = $1, approved_by = $2, approval_notes = $3, updated_at = NOW()
		 WHERE id = $4 AND status = $5`,
		status, approvedBy, notes, id, models.RequestPending)
	if err != nil {
		return fmt.Errorf("resolving permission request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpirePermissionRequests marks pending requests older than the cutoff as
// expired.
func (p *PostgresStore) ExpirePermissionRequests(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx,
		`UPDATE permission_requests SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND created_at < $3`,
		models.RequestExpired, models.RequestPending, olderThan)
	if err != nil {
		return 0, fmt.Errorf("expiring permission requests: %w", err)
	}
	return tag.RowsAffected(), nil
}
