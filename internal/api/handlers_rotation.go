package api

import (
	"net/http"
	"strconv"

	"github.com/org/assetvault/internal/rotation"
	"github.com/org/assetvault/pkg/models"
)

// RotateHandler handles POST /v1/secrets/:id/rotate
func (s *Server) RotateHandler(w http.ResponseWriter, r *http.Request) {
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
		NewPassword string `json:"new_password"`
		Reason      string `json:"reason"`
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
	rotated, err := s.rotation.Rotate(r.Context(), p, id, req.NewPassword, req.Reason)
	if err != nil {
		rotationsTotal.WithLabelValues("failure").Inc()
		writeFault(w, err)
		return
	}
	rotationsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, secretView(rotated))
}

// EmergencyRotateHandler handles POST /v1/secrets/:id/emergency-rotate
func (s *Server) EmergencyRotateHandler(w http.ResponseWriter, r *http.Request) {
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
		NewPassword    string `json:"new_password"`
		Reason         string `json:"reason"`
		SkipValidation bool   `json:"skip_validation"`
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
	rotated, err := s.rotation.EmergencyRotate(r.Context(), p, id, req.NewPassword, req.Reason, req.SkipValidation)
	if err != nil {
		rotationsTotal.WithLabelValues("failure").Inc()
		writeFault(w, err)
		return
	}
	rotationsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, secretView(rotated))
}

// RotationHistoryHandler handles GET /v1/secrets/:id/rotation-history
func (s *Server) RotationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid secret id")
		return
	}
	history, err := s.rotation.RotationHistory(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(history))
	for _, h := range history {
		out = append(out, map[string]any{
			"id":         h.ID,
			"secret_id":  h.SecretID,
			"reason":     h.Reason,
			"rotated_by": h.RotatedBy,
			"rotated_at": h.RotatedAt,
			"batch_id":   h.BatchID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

// ScheduleSetHandler handles PUT /v1/vaults/:id/rotation-schedule
func (s *Server) ScheduleSetHandler(w http.ResponseWriter, r *http.Request) {
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
		RotationIntervalDays int `json:"rotation_interval_days"`
		AlertDaysBefore      int `json:"alert_days_before"`
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
	sched, err := s.rotation.SetSchedule(r.Context(), p, vaultID, req.RotationIntervalDays, req.AlertDaysBefore)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleView(sched))
}

// ScheduleGetHandler handles GET /v1/vaults/:id/rotation-schedule
func (s *Server) ScheduleGetHandler(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	sched, err := s.rotation.GetSchedule(r.Context(), vaultID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleView(sched))
}

// ScheduleDisableHandler handles DELETE /v1/vaults/:id/rotation-schedule
func (s *Server) ScheduleDisableHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	vaultID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vault id")
		return
	}
	if err := s.access.CheckAccess(r.Context(), p, vaultID, models.PermissionWrite); err != nil {
		accessDeniedTotal.Inc()
		writeFault(w, err)
		return
	}
	if err := s.rotation.DisableSchedule(r.Context(), vaultID); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotationAlertsHandler handles GET /v1/rotation/alerts
func (s *Server) RotationAlertsHandler(w http.ResponseWriter, r *http.Request) {
	// Schedule alert leads drive the window unless days_ahead overrides it.
	daysAhead := 0
	if v := r.URL.Query().Get("days_ahead"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid days_ahead")
			return
		}
		daysAhead = n
	}
	alerts, err := s.rotation.GetRotationAlerts(r.Context(), daysAhead)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]map[string]any, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

// ComplianceHandler handles GET /v1/rotation/compliance
func (s *Server) ComplianceHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.rotation.GetComplianceMetrics(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_password_secrets": m.TotalPasswordSecrets,
		"overdue_count":          m.OverdueCount,
		"due_within_7_days":      m.DueWithin7Days,
		"average_age_days":       m.AverageAgeDays,
		"compliance_percent":     m.CompliancePercent,
	})
}

// BatchCreateHandler handles POST /v1/rotation/batches
func (s *Server) BatchCreateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name"`
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := s.rotation.CreateBatch(r.Context(), p, req.Name, req.Notes)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, batchView(b))
}

// BatchGetHandler handles GET /v1/rotation/batches/:id
func (s *Server) BatchGetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}
	b, err := s.rotation.GetBatch(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchView(b))
}

// BatchExecuteHandler handles POST /v1/rotation/batches/:id/execute
func (s *Server) BatchExecuteHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}
	var req struct {
		Items []struct {
			SecretID    int64  `json:"secret_id"`
			NewPassword string `json:"new_password"`
		} `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items := make([]rotation.BatchItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, rotation.BatchItem{SecretID: it.SecretID, NewPassword: it.NewPassword})
	}
	result, err := s.rotation.ExecuteBatch(r.Context(), p, id, items)
	if err != nil && result == nil {
		writeFault(w, err)
		return
	}
	for range result.Succeeded {
		rotationsTotal.WithLabelValues("success").Inc()
	}
	for range result.Failed {
		rotationsTotal.WithLabelValues("failure").Inc()
	}
	resp := map[string]any{
		"batch":     batchView(result.Batch),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
