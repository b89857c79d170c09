package api

import (
	"net/http"
	"strconv"
	"time"
)

// GrantHandler handles POST /v1/access/grants
func (s *Server) GrantHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID         int64  `json:"user_id"`
		VaultID        int64  `json:"vault_id"`
		PermissionType string `json:"permission_type"`
		ExpiresAt      string `json:"expires_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expires_at")
			return
		}
		expiresAt = &t
	}
	perm, err := s.access.Grant(r.Context(), p, req.UserID, req.VaultID, req.PermissionType, expiresAt)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, permissionView(perm))
}

// RevokeHandler handles DELETE /v1/access/grants
func (s *Server) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID         int64  `json:"user_id"`
		VaultID        int64  `json:"vault_id"`
		PermissionType string `json:"permission_type"` // empty revokes all types
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.access.Revoke(r.Context(), p, req.UserID, req.VaultID, req.PermissionType); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GrantListHandler handles GET /v1/access/grants
func (s *Server) GrantListHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	vaultID, _ := strconv.ParseInt(r.URL.Query().Get("vault_id"), 10, 64)
	perms, err := s.access.ListPermissions(r.Context(), userID, vaultID)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"grants": out})
}

// AccessLogHandler handles GET /v1/vaults/:id/access-log
func (s *Server) AccessLogHandler(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.access.AccessLog(r.Context(), vaultID, limit)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, accessLogView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// RequestAccessHandler handles POST /v1/access/requests
func (s *Server) RequestAccessHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		VaultID        int64  `json:"vault_id"`
		PermissionType string `json:"permission_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pr, err := s.access.RequestAccess(r.Context(), p, req.VaultID, req.PermissionType)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestView(pr))
}

// RequestListHandler handles GET /v1/access/requests
func (s *Server) RequestListHandler(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.access.ListRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, requestView(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

// RequestApproveHandler handles POST /v1/access/requests/:id/approve
func (s *Server) RequestApproveHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	decodeJSON(r, &req) //nolint:errcheck
	perm, err := s.access.ApproveRequest(r.Context(), p, id, req.Notes)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionView(perm))
}

// RequestDenyHandler handles POST /v1/access/requests/:id/deny
func (s *Server) RequestDenyHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	decodeJSON(r, &req) //nolint:errcheck
	if err := s.access.DenyRequest(r.Context(), p, id, req.Notes); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
