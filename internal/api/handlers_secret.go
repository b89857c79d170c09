package api

import (
	"net/http"

	"github.com/org/assetvault/internal/vault"
	"github.com/org/assetvault/pkg/models"
)

// SecretAddHandler handles POST /v1/vaults/:id/secrets
func (s *Server) SecretAddHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	vaultID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	var req struct {
		Type             string `json:"type"`
		Label            string `json:"label"`
		Value            string `json:"value"`
		GenerationMethod string `json:"generation_method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, vaultID, models.PermissionWrite); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	sec, err := s.vaults.AddSecret(r.Context(), p, vault.AddSecretParams{
		VaultID:          vaultID,
		Type:             req.Type,
		Label:            req.Label,
		Value:            req.Value,
		GenerationMethod: req.GenerationMethod,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, secretView(sec))
}

// SecretListHandler handles GET /v1/vaults/:id/secrets
func (s *Server) SecretListHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	vaultID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, vaultID, models.PermissionRead); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	secrets, err := s.vaults.ListSecrets(r.Context(), vaultID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"secrets": secretViews(secrets)})
}

// SecretGetHandler handles GET /v1/secrets/:id
func (s *Server) SecretGetHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid secret id")
		return
	}
	sec, err := s.vaults.GetSecret(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, sec.VaultID, models.PermissionRead); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secretView(sec))
}

// SecretRevealHandler handles GET /v1/secrets/:id/value
func (s *Server) SecretRevealHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid secret id")
		return
	}
	sec, err := s.vaults.GetSecret(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, sec.VaultID, models.PermissionRead); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	value, err := s.vaults.RevealSecret(r.Context(), p, id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "label": sec.Label, "value": value})
}

// SecretUpdateHandler handles PUT /v1/secrets/:id
func (s *Server) SecretUpdateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid secret id")
		return
	}
	var req struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sec, err := s.vaults.GetSecret(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, sec.VaultID, models.PermissionWrite); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	updated, err := s.vaults.UpdateSecret(r.Context(), p, id, req.Label, req.Value)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secretView(updated))
}

// SecretDeleteHandler handles DELETE /v1/secrets/:id
func (s *Server) SecretDeleteHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid secret id")
		return
	}
	sec, err := s.vaults.GetSecret(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, sec.VaultID, models.PermissionWrite); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	if err := s.vaults.DeleteSecret(r.Context(), p, id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
