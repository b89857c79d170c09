package models

import "time"

// Permission types grantable per (user, vault).
const (
	PermissionRead   = "read"
	PermissionWrite  = "write"
	PermissionExport = "export"
	PermissionShare  = "share"
)

// ValidPermissionType reports whether t is a known permission type.
func ValidPermissionType(t string) bool {
	switch t {
	case PermissionRead, PermissionWrite, PermissionExport, PermissionShare:
		return true
	}
	return false
}

// Access types recorded in the access log, mapped from permission types.
const (
	AccessView   = "view"
	AccessEdit   = "edit"
	AccessExport = "export"
	AccessShare  = "share"
)

// AccessTypeFor maps a permission type to the access-log access type.
func AccessTypeFor(permissionType string) string {
	switch permissionType {
	case PermissionRead:
		return AccessView
	case PermissionWrite:
		return AccessEdit
	case PermissionExport:
		return AccessExport
	case PermissionShare:
		return AccessShare
	}
	return permissionType
}

// VaultPermission is one grant. Unique on (user, vault, type) while active.
// Administrators hold every permission implicitly and never need rows.
// A grant with a past ExpiresAt is logically inactive regardless of IsActive.
type VaultPermission struct {
	ID        int64
	UserID    int64
	VaultID   int64
	Type      string
	GrantedBy int64
	GrantedAt time.Time
	ExpiresAt *time.Time
	IsActive  bool
}

// Expired reports whether the grant's expiry has passed as of now.
func (p *VaultPermission) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// Access log results.
const (
	AccessResultSuccess = "success"
	AccessResultDenied  = "denied"
	AccessResultError   = "error"
)

// VaultAccessLog is one append-only access record.
type VaultAccessLog struct {
	ID           int64
	UserID       int64
	VaultID      int64
	AccessType   string
	AccessedAt   time.Time
	Result       string
	ErrorMessage string
}

// Permission request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestDenied   = "denied"
	RequestExpired  = "expired"
)

// PermissionRequest is a pending ask for a grant, resolved by an
// administrator. Pending requests auto-expire after 30 days.
type PermissionRequest struct {
	ID            int64
	UserID        int64
	VaultID       int64
	RequestedType string
	RequestedBy   int64
	Status        string
	ApprovedBy    *int64
	ApprovalNotes string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
