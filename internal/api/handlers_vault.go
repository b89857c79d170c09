package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/org/assetvault/pkg/models"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := principalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
	}
	return p, ok
}

// VaultCreateHandler handles POST /v1/vaults
func (s *Server) VaultCreateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		AssetID     int64  `json:"asset_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := s.vaults.CreateVault(r.Context(), p, req.AssetID, req.Name, req.Description)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vaultView(v))
}

// VaultListHandler handles GET /v1/vaults
func (s *Server) VaultListHandler(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.vaults.ListVaults(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vaults": vaultViews(vaults)})
}

// VaultGetHandler handles GET /v1/vaults/:id
func (s *Server) VaultGetHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, id, models.PermissionRead); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	v, err := s.vaults.GetVault(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vaultView(v))
}

// VaultByAssetHandler handles GET /v1/assets/:assetID/vault
func (s *Server) VaultByAssetHandler(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	v, err := s.vaults.GetVaultByAssetID(r.Context(), assetID)
	if err != nil {
		writeFault(w, err)
		return
	}
	count, err := s.vaults.SecretCount(r.Context(), v.ID)
	if err != nil {
		writeFault(w, err)
		return
	}
	view := vaultView(v)
	view["secret_count"] = count
	writeJSON(w, http.StatusOK, view)
}

// VaultUpdateHandler handles PUT /v1/vaults/:id
func (s *Server) VaultUpdateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, id, models.PermissionWrite); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	v, err := s.vaults.UpdateVault(r.Context(), p, id, req.Name, req.Description)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vaultView(v))
}

// VaultDeleteHandler handles DELETE /v1/vaults/:id
func (s *Server) VaultDeleteHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, id, models.PermissionWrite); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	if err := s.vaults.DeleteVault(r.Context(), p, id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VaultVersionsHandler handles GET /v1/vaults/:id/versions
func (s *Server) VaultVersionsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, id, models.PermissionRead); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	versions, err := s.vaults.ListVersions(r.Context(), id, limit)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

// VaultExportHandler handles GET /v1/vaults/:id/export
func (s *Server) VaultExportHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, id, models.PermissionExport); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	exp, err := s.vaults.Export(r.Context(), p, id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// VaultImportHandler handles POST /v1/vaults/import
func (s *Server) VaultImportHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		AssetID int64               `json:"asset_id"`
		Export  *models.VaultExport `json:"export"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := s.vaults.Import(r.Context(), p, req.AssetID, req.Export)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vaultView(v))
}
