package api

import (
	"net/http"

	"github.com/org/assetvault/internal/password"
)

// HealthHandler handles GET /v1/sys/health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.CountVaults(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// PasswordGenerateHandler handles POST /v1/password/generate
func (s *Server) PasswordGenerateHandler(w http.ResponseWriter, r *http.Request) {
	opts := password.DefaultGenerateOptions()
	var req struct {
		Length           *int  `json:"length"`
		Lower            *bool `json:"lower"`
		Upper            *bool `json:"upper"`
		Digits           *bool `json:"digits"`
		Special          *bool `json:"special"`
		ExcludeAmbiguous *bool `json:"exclude_ambiguous"`
	}
	if err := decodeJSON(r, &req); err == nil {
		if req.Length != nil {
			opts.Length = *req.Length
		}
		if req.Lower != nil {
			opts.Lower = *req.Lower
		}
		if req.Upper != nil {
			opts.Upper = *req.Upper
		}
		if req.Digits != nil {
			opts.Digits = *req.Digits
		}
		if req.Special != nil {
			opts.Special = *req.Special
		}
		if req.ExcludeAmbiguous != nil {
			opts.ExcludeAmbiguous = *req.ExcludeAmbiguous
		}
	}

	pw, err := password.Generate(opts)
	if err != nil {
		writeFault(w, err)
		return
	}
	strength := password.AnalyzeStrength(pw)
	writeJSON(w, http.StatusOK, map[string]any{
		"password":       pw,
		"strength_score": strength.Score,
		"entropy_bits":   strength.EntropyBits,
	})
}

// PasswordStrengthHandler handles POST /v1/password/strength
func (s *Server) PasswordStrengthHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	strength := password.AnalyzeStrength(req.Password)
	policy := password.MeetsPolicy(req.Password, password.DefaultPolicy())
	writeJSON(w, http.StatusOK, map[string]any{
		"score":        strength.Score,
		"entropy_bits": strength.EntropyBits,
		"has_lower":    strength.HasLower,
		"has_upper":    strength.HasUpper,
		"has_digit":    strength.HasDigit,
		"has_special":  strength.HasSpecial,
		"feedback":     strength.Feedback,
		"compliant":    policy.Compliant,
		"violations":   policy.Violations,
	})
}
