package storage

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/pkg/models"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a uniqueness constraint is violated.
var ErrAlreadyExists = errors.New("already exists")

// CredentialFilter selects standalone credentials. Every predicate is one of
// a fixed set of kinds: free-text match, equality, set membership, date range.
type CredentialFilter struct {
	Text          string // matches name or description
	Type          string
	Category      string
	Tags          []string // all must be present
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// Store is the persistence interface for the vault core. All mutating
// methods that carry a version row write data and history atomically.
type Store interface {
	// RunInTx executes fn against a transaction-bound Store. Nested calls
	// use savepoints, so a failed inner fn rolls back only its own writes.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	// Vaults
	CreateVault(ctx context.Context, v *models.Vault, ver *models.VaultVersion) error
	GetVault(ctx context.Context, id int64) (*models.Vault, error)
	GetVaultByAssetID(ctx context.Context, assetID int64) (*models.Vault, error)
	ListVaults(ctx context.Context) ([]*models.Vault, error)
	UpdateVault(ctx context.Context, v *models.Vault, ver *models.VaultVersion) error
	DeleteVault(ctx context.Context, id int64) error
	ListVaultVersions(ctx context.Context, vaultID int64, limit int) ([]*models.VaultVersion, error)
	AppendVaultVersion(ctx context.Context, ver *models.VaultVersion) error
	CountVaultVersions(ctx context.Context, vaultID int64) (int, error)

	// Secrets
	AddSecret(ctx context.Context, s *models.Secret, ver *models.VaultVersion, reuseHash string) error
	GetSecret(ctx context.Context, id int64) (*models.Secret, error)
	GetSecretByLabel(ctx context.Context, vaultID int64, label string) (*models.Secret, error)
	ListSecrets(ctx context.Context, vaultID int64) ([]*models.Secret, error)
	// UpdateSecret writes the secret and its version row; a non-empty
	// reuseHash retires the old history rows and records the new value.
	UpdateSecret(ctx context.Context, s *models.Secret, ver *models.VaultVersion, reuseHash string) error
	DeleteSecret(ctx context.Context, id int64, ver *models.VaultVersion) error
	CountSecrets(ctx context.Context, vaultID int64) (int, error)

	// Password history
	PasswordHistoryHashes(ctx context.Context, excludeSecretID *int64) ([]string, error)
	ListPasswordHistory(ctx context.Context, secretID int64) ([]*models.PasswordHistory, error)
	InsertPasswordHistory(ctx context.Context, h *models.PasswordHistory) error
	RetirePasswordHistory(ctx context.Context, secretID int64, at time.Time) error
	PrunePasswordHistory(ctx context.Context, secretID int64, keep int) error

	// Standalone credentials
	CreateCredential(ctx context.Context, c *models.StandaloneCredential) error
	GetCredential(ctx context.Context, id int64) (*models.StandaloneCredential, error)
	UpdateCredential(ctx context.Context, c *models.StandaloneCredential) error
	DeleteCredential(ctx context.Context, id int64) error
	SearchCredentials(ctx context.Context, f CredentialFilter) ([]*models.StandaloneCredential, int, error)

	// Access control
	InsertPermission(ctx context.Context, p *models.VaultPermission) error
	GetActivePermission(ctx context.Context, userID, vaultID int64, permType string) (*models.VaultPermission, error)
	ListActivePermissions(ctx context.Context, userID, vaultID int64) ([]*models.VaultPermission, error)
	RevokePermissions(ctx context.Context, userID, vaultID int64, permType string) (int64, error)
	ExpirePermissions(ctx context.Context, now time.Time) (int64, error)
	AppendAccessLog(ctx context.Context, entry *models.VaultAccessLog) error
	ListAccessLog(ctx context.Context, vaultID int64, limit int) ([]*models.VaultAccessLog, error)

	// Permission requests
	InsertPermissionRequest(ctx context.Context, r *models.PermissionRequest) error
	GetPermissionRequest(ctx context.Context, id int64) (*models.PermissionRequest, error)
	FindPendingRequest(ctx context.Context, userID, vaultID int64, permType string) (*models.PermissionRequest, error)
	ListPermissionRequests(ctx context.Context, status string) ([]*models.PermissionRequest, error)
	ResolvePermissionRequest(ctx context.Context, id int64, status string, approvedBy int64, notes string) error
	ExpirePermissionRequests(ctx context.Context, olderThan time.Time) (int64, error)

	// Rotation
	CreateRotationSchedule(ctx context.Context, s *models.RotationSchedule) error
	GetActiveRotationSchedule(ctx context.Context, vaultID int64) (*models.RotationSchedule, error)
	UpdateRotationSchedule(ctx context.Context, s *models.RotationSchedule) error
	ApplySecretRotation(ctx context.Context, s *models.Secret) error
	InsertRotationHistory(ctx context.Context, h *models.PasswordRotationHistory) error
	ListRotationHistory(ctx context.Context, secretID int64) ([]*models.PasswordRotationHistory, error)
	// ListRotationAlerts returns password secrets inside their alert
	// window. A positive daysAhead fixes the window; zero takes each
	// vault schedule's alert lead.
	ListRotationAlerts(ctx context.Context, now time.Time, daysAhead int) ([]*models.RotationAlert, error)
	ComplianceMetrics(ctx context.Context, now time.Time) (*models.ComplianceMetrics, error)
	RecomputeRotationDueDates(ctx context.Context, now time.Time) (int64, error)
	CreateRotationBatch(ctx context.Context, b *models.RotationBatch) error
	GetRotationBatch(ctx context.Context, id int64) (*models.RotationBatch, error)
	UpdateRotationBatch(ctx context.Context, b *models.RotationBatch) error

	// Audit
	InsertAuditEvent(ctx context.Context, e *models.AuditEvent) error

	// Metrics helpers
	CountVaults(ctx context.Context) (int64, error)
	CountAllSecrets(ctx context.Context) (int64, error)
}
