package access

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// RequestAccess files a permission request for the acting principal. A
// duplicate pending request for the same (user, vault, type) is a conflict.
func (s *Service) RequestAccess(ctx context.Context, p models.Principal, vaultID int64, permType string) (*models.PermissionRequest, error) {
	if !models.ValidPermissionType(permType) {
		return nil, fault.Validationf("unknown permission type %q", permType)
	}
	if _, err := s.store.GetVault(ctx, vaultID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("vault %d not found", vaultID)
		}
		return nil, fault.Persistencef(err, "fetching vault")
	}

	if _, err := s.store.GetActivePermission(ctx, p.UserID, vaultID, permType); err == nil {
		return nil, fault.Conflictf("user %d already holds %s on vault %d", p.UserID, permType, vaultID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fault.Persistencef(err, "checking existing grant")
	}

	if _, err := s.store.FindPendingRequest(ctx, p.UserID, vaultID, permType); err == nil {
		return nil, fault.Conflictf("a pending request for %s on vault %d already exists", permType, vaultID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fault.Persistencef(err, "checking pending requests")
	}

	now := time.Now().UTC()
	req := &models.PermissionRequest{
		UserID:        p.UserID,
		VaultID:       vaultID,
		RequestedType: permType,
		RequestedBy:   p.UserID,
		Status:        models.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertPermissionRequest(ctx, req); err != nil {
		return nil, fault.Persistencef(err, "filing permission request")
	}

	s.audit.Event(ctx, models.EventAccessRequested, p, "access requested",
		map[string]any{"vault_id": vaultID, "permission_type": permType, "request_id": req.ID})
	return req, nil
}

// ApproveRequest grants the requested permission and resolves the request.
// Admin only. A request past its TTL cannot be approved.
func (s *Service) ApproveRequest(ctx context.Context, admin models.Principal, requestID int64, notes string) (*models.VaultPermission, error) {
	if !admin.IsAdmin() {
		return nil, fault.Permissionf("only administrators may approve requests")
	}
	req, err := s.getPendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if time.Since(req.CreatedAt) > RequestTTL {
		return nil, fault.Conflictf("request %d has expired", requestID)
	}

	perm := &models.VaultPermission{
		UserID:    req.UserID,
		VaultID:   req.VaultID,
		Type:      req.RequestedType,
		GrantedBy: admin.UserID,
		GrantedAt: time.Now().UTC(),
		IsActive:  true,
	}
	err = s.store.RunInTx(ctx, func(tx storage.Store) error {
		if err := tx.ResolvePermissionRequest(ctx, requestID, models.RequestApproved, admin.UserID, notes); err != nil {
			return err
		}
		return tx.InsertPermission(ctx, perm)
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("user %d already holds %s on vault %d",
				req.UserID, req.RequestedType, req.VaultID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.Conflictf("request %d was already resolved", requestID)
		}
		return nil, fault.Persistencef(err, "approving request")
	}

	s.audit.Event(ctx, models.EventAccessApproved, admin, "access request approved",
		map[string]any{"request_id": requestID, "user_id": req.UserID,
			"vault_id": req.VaultID, "permission_type": req.RequestedType})
	return perm, nil
}

// DenyRequest resolves a pending request without granting. Admin only.
func (s *Service) DenyRequest(ctx context.Context, admin models.Principal, requestID int64, notes string) error {
	if !admin.IsAdmin() {
		return fault.Permissionf("only administrators may deny requests")
	}
	req, err := s.getPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if err := s.store.ResolvePermissionRequest(ctx, requestID, models.RequestDenied, admin.UserID, notes); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.Conflictf("request %d was already resolved", requestID)
		}
		return fault.Persistencef(err, "denying request")
	}

	s.audit.Event(ctx, models.EventAccessDenied, admin, "access request denied",
		map[string]any{"request_id": requestID, "user_id": req.UserID,
			"vault_id": req.VaultID, "permission_type": req.RequestedType})
	return nil
}

// ListRequests lists permission requests, optionally by status.
func (s *Service) ListRequests(ctx context.Context, status string) ([]*models.PermissionRequest, error) {
	reqs, err := s.store.ListPermissionRequests(ctx, status)
	if err != nil {
		return nil, fault.Persistencef(err, "listing permission requests")
	}
	return reqs, nil
}

func (s *Service) getPendingRequest(ctx context.Context, id int64) (*models.PermissionRequest, error) {
	req, err := s.store.GetPermissionRequest(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("request %d not found", id)
		}
		return nil, fault.Persistencef(err, "fetching request")
	}
	if req.Status != models.RequestPending {
		return nil, fault.Conflictf("request %d is %s, not pending", id, req.Status)
	}
	return req, nil
}
