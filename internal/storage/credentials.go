package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/org/assetvault/pkg/models"
)

const credentialColumns = `id, name, description, category, tags, type,
	encrypted_value, created_by, created_at, updated_at`

func scanCredential(row pgx.Row) (*models.StandaloneCredential, error) {
	var c models.StandaloneCredential
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.Tags, &c.Type,
		&c.EncryptedValue, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (p *PostgresStore) CreateCredential(ctx context.Context, c *models.StandaloneCredential) error {
	err := p.db.QueryRow(ctx,
		`INSERT INTO standalone_credentials (name, description, category, tags, type,
		    encrypted_value, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING id`,
		c.Name, c.Description, c.Category, c.Tags, c.Type,
		c.EncryptedValue, c.CreatedBy, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetCredential(ctx context.Context, id int64) (*models.StandaloneCredential, error) {
	return scanCredential(p.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM standalone_credentials WHERE id = $1`, id))
}

func (p *PostgresStore) UpdateCredential(ctx context.Context, c *models.StandaloneCredential) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE standalone_credentials SET name = $1, description = $2, category = $3,
		    tags = $4, encrypted_value = $5, updated_at = NOW()
		 WHERE id = $6`,
		c.Name, c.Description, c.Category, c.Tags, c.EncryptedValue, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("updating credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) DeleteCredential(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM standalone_credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// credentialPredicates builds the WHERE clause and args for a filter. Shared
// by the search and count queries so both always agree.
func credentialPredicates(f CredentialFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, cond)
	}

	if f.Text != "" {
		pattern := "%" + f.Text + "%"
		add("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.Category != "" {
		add("category = ?", f.Category)
	}
	if len(f.Tags) > 0 {
		add("tags @> ?", f.Tags)
	}
	if f.CreatedAfter != nil {
		add("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_at <= ?", *f.CreatedBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchCredentials returns the matching page plus the total match count.
func (p *PostgresStore) SearchCredentials(ctx context.Context, f CredentialFilter) ([]*models.StandaloneCredential, int, error) {
	where, args := credentialPredicates(f)

	var total int
	err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM standalone_credentials`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting credentials: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(
		`SELECT `+credentialColumns+` FROM standalone_credentials%s
		 ORDER BY created_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, f.Offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching credentials: %w", err)
	}
	defer rows.Close()

	var creds []*models.StandaloneCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, 0, err
		}
		creds = append(creds, c)
	}
	return creds, total, rows.Err()
}
