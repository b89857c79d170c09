// Package access implements the vault permission model: grants, the
// append-only access log, and the request/approval workflow.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/audit"
	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// RequestTTL is how long a pending permission request stays actionable.
const RequestTTL = 30 * 24 * time.Hour

// Service enforces vault access.
type Service struct {
	store storage.Store
	audit *audit.Logger
}

// NewService creates an access Service.
func NewService(store storage.Store, auditLog *audit.Logger) *Service {
	return &Service{store: store, audit: auditLog}
}

func (s *Service) logAccess(ctx context.Context, userID, vaultID int64, accessType, result, errMsg string) {
	// Best effort. The access log must not fail the check itself.
	_ = s.store.AppendAccessLog(ctx, &models.VaultAccessLog{
		UserID:       userID,
		VaultID:      vaultID,
		AccessType:   accessType,
		AccessedAt:   time.Now().UTC(),
		Result:       result,
		ErrorMessage: errMsg,
	})
}

// CheckAccess decides whether a principal may perform permType on a vault.
// Administrators are always allowed. Every outcome is logged, including the
// admin short-circuit. A grant whose expiry has passed is denied even if the
// sweeper has not deactivated it yet.
func (s *Service) CheckAccess(ctx context.Context, p models.Principal, vaultID int64, permType string) error {
	if !models.ValidPermissionType(permType) {
		return fault.Validationf("unknown permission type %q", permType)
	}
	accessType := models.AccessTypeFor(permType)

	if p.IsAdmin() {
		s.logAccess(ctx, p.UserID, vaultID, accessType, models.AccessResultSuccess, "")
		return nil
	}

	perm, err := s.store.GetActivePermission(ctx, p.UserID, vaultID, permType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logAccess(ctx, p.UserID, vaultID, accessType, models.AccessResultDenied, "no active grant")
			return fault.Permissionf("user %d lacks %s on vault %d", p.UserID, permType, vaultID)
		}
		s.logAccess(ctx, p.UserID, vaultID, accessType, models.AccessResultError, err.Error())
		return fault.Persistencef(err, "checking access")
	}
	if perm.Expired(time.Now().UTC()) {
		s.logAccess(ctx, p.UserID, vaultID, accessType, models.AccessResultDenied, "grant expired")
		return fault.Permissionf("grant for user %d on vault %d has expired", p.UserID, vaultID)
	}

	s.logAccess(ctx, p.UserID, vaultID, accessType, models.AccessResultSuccess, "")
	return nil
}

// Grant creates a permission. Only administrators may grant. An active
// duplicate is a conflict.
func (s *Service) Grant(ctx context.Context, admin models.Principal, userID, vaultID int64, permType string, expiresAt *time.Time) (*models.VaultPermission, error) {
	if !admin.IsAdmin() {
		return nil, fault.Permissionf("only administrators may grant access")
	}
	if !models.ValidPermissionType(permType) {
		return nil, fault.Validationf("unknown permission type %q", permType)
	}
	if expiresAt != nil && expiresAt.Before(time.Now().UTC()) {
		return nil, fault.Validationf("expiry must be in the future")
	}

	if _, err := s.store.GetVault(ctx, vaultID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("vault %d not found", vaultID)
		}
		return nil, fault.Persistencef(err, "fetching vault")
	}

	perm := &models.VaultPermission{
		UserID:    userID,
		VaultID:   vaultID,
		Type:      permType,
		GrantedBy: admin.UserID,
		GrantedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if err := s.store.InsertPermission(ctx, perm); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("user %d already holds %s on vault %d", userID, permType, vaultID)
		}
		return nil, fault.Persistencef(err, "granting permission")
	}

	s.audit.Event(ctx, models.EventAccessGranted, admin, "access granted",
		map[string]any{"user_id": userID, "vault_id": vaultID, "permission_type": permType})
	return perm, nil
}

// Revoke deactivates grants for (user, vault). An empty permType revokes all
// types at once. Revoking nothing is NotFound.
func (s *Service) Revoke(ctx context.Context, admin models.Principal, userID, vaultID int64, permType string) error {
	if !admin.IsAdmin() {
		return fault.Permissionf("only administrators may revoke access")
	}
	if permType != "" && !models.ValidPermissionType(permType) {
		return fault.Validationf("unknown permission type %q", permType)
	}

	revoked, err := s.store.RevokePermissions(ctx, userID, vaultID, permType)
	if err != nil {
		return fault.Persistencef(err, "revoking permissions")
	}
	if revoked == 0 {
		return fault.NotFoundf("no active grants for user %d on vault %d", userID, vaultID)
	}

	s.audit.Event(ctx, models.EventAccessRevoked, admin, "access revoked",
		map[string]any{"user_id": userID, "vault_id": vaultID, "permission_type": permType, "revoked": revoked})
	return nil
}

// ListPermissions lists active grants, optionally filtered by user and vault
// (zero means unfiltered).
func (s *Service) ListPermissions(ctx context.Context, userID, vaultID int64) ([]*models.VaultPermission, error) {
	perms, err := s.store.ListActivePermissions(ctx, userID, vaultID)
	if err != nil {
		return nil, fault.Persistencef(err, "listing permissions")
	}
	return perms, nil
}

// AccessLog returns a vault's access history, newest first.
func (s *Service) AccessLog(ctx context.Context, vaultID int64, limit int) ([]*models.VaultAccessLog, error) {
	entries, err := s.store.ListAccessLog(ctx, vaultID, limit)
	if err != nil {
		return nil, fault.Persistencef(err, "listing access log")
	}
	return entries, nil
}

// ExpireSweep deactivates expired grants and expires stale pending requests.
// Safe to run repeatedly.
func (s *Service) ExpireSweep(ctx context.Context) (grants, requests int64, err error) {
	now := time.Now().UTC()
	grants, err = s.store.ExpirePermissions(ctx, now)
	if err != nil {
		return 0, 0, fault.Persistencef(err, "expiring grants")
	}
	requests, err = s.store.ExpirePermissionRequests(ctx, now.Add(-RequestTTL))
	if err != nil {
		return grants, 0, fault.Persistencef(err, "expiring requests")
	}
	return grants, requests, nil
}
