package models

import "time"

// Audit event types emitted by the vault core.
const (
	EventVaultCreated      = "vault_created"
	EventVaultUpdated      = "vault_updated"
	EventVaultDeleted      = "vault_deleted"
	EventVaultExported     = "vault_exported"
	EventVaultImported     = "vault_imported"
	EventSecretAdded       = "secret_added"
	EventSecretAccessed    = "secret_accessed"
	EventSecretUpdated     = "secret_updated"
	EventSecretDeleted     = "secret_deleted"
	EventPasswordRotated   = "password_rotated"
	EventEmergencyRotation = "emergency_rotation"
	EventBatchRotation     = "batch_rotation"
	EventAccessGranted     = "access_granted"
	EventAccessRevoked     = "access_revoked"
	EventAccessRequested   = "access_requested"
	EventAccessApproved    = "access_approved"
	EventAccessDenied      = "access_denied"
)

// AuditEvent is the outbound record handed to the audit sink. Logging is
// fire-and-forget: a failed write never fails the primary operation.
type AuditEvent struct {
	ID          string
	EventType   string
	UserID      int64
	Username    string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}
