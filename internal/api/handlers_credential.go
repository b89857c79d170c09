package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/internal/vault"
)

// CredentialCreateHandler handles POST /v1/credentials
func (s *Server) CredentialCreateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Tags        []string `json:"tags"`
		Type        string   `json:"type"`
		Value       string   `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.vaults.CreateCredential(r.Context(), p, vault.CredentialParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Type:        req.Type,
		Value:       req.Value,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, credentialView(c))
}

// CredentialSearchHandler handles GET /v1/credentials
func (s *Server) CredentialSearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.CredentialFilter{
		Text:     q.Get("q"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
	}
	if tags := q.Get("tags"); tags != "" {
		f.Tags = strings.Split(tags, ",")
	}
	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_after")
			return
		}
		f.CreatedAfter = &t
	}
	if v := q.Get("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_before")
			return
		}
		f.CreatedBefore = &t
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	creds, total, err := s.vaults.SearchCredentials(r.Context(), f)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(creds))
	for _, c := range creds {
		out = append(out, credentialView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": out, "total": total})
}

// CredentialGetHandler handles GET /v1/credentials/:id
func (s *Server) CredentialGetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	c, err := s.vaults.GetCredential(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialView(c))
}

// CredentialRevealHandler handles GET /v1/credentials/:id/value
func (s *Server) CredentialRevealHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	value, err := s.vaults.RevealCredential(r.Context(), p, id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "value": value})
}

// CredentialUpdateHandler handles PUT /v1/credentials/:id
func (s *Server) CredentialUpdateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Tags        []string `json:"tags"`
		Value       string   `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.vaults.UpdateCredential(r.Context(), p, id, vault.CredentialParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Value:       req.Value,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialView(c))
}

// CredentialDeleteHandler handles DELETE /v1/credentials/:id
func (s *Server) CredentialDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	if err := s.vaults.DeleteCredential(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
