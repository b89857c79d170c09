package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// --- In-memory store for tests ---

type memStore struct {
	seq         int64
	vaults      map[int64]*models.Vault
	secrets     map[int64]*models.Secret
	versions    []*models.VaultVersion
	history     []*models.PasswordHistory
	credentials map[int64]*models.StandaloneCredential
	perms       []*models.VaultPermission
	accessLog   []*models.VaultAccessLog
	requests    map[int64]*models.PermissionRequest
	schedules   map[int64]*models.RotationSchedule
	rotations   []*models.PasswordRotationHistory
	batches     map[int64]*models.RotationBatch
	audit       []*models.AuditEvent
}

func newMemStore() *memStore {
	return &memStore{
		vaults:      map[int64]*models.Vault{},
		secrets:     map[int64]*models.Secret{},
		credentials: map[int64]*models.StandaloneCredential{},
		requests:    map[int64]*models.PermissionRequest{},
		schedules:   map[int64]*models.RotationSchedule{},
		batches:     map[int64]*models.RotationBatch{},
	}
}

func (m *memStore) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memStore) RunInTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return fn(m)
}

func (m *memStore) CreateVault(ctx context.Context, v *models.Vault, ver *models.VaultVersion) error {
	for _, existing := range m.vaults {
		if existing.AssetID == v.AssetID && existing.Name == v.Name {
			return storage.ErrAlreadyExists
		}
	}
	v.ID = m.nextID()
	cp := *v
	m.vaults[v.ID] = &cp
	ver.VaultID = v.ID
	return m.AppendVaultVersion(ctx, ver)
}

func (m *memStore) GetVault(ctx context.Context, id int64) (*models.Vault, error) {
	if v, ok := m.vaults[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetVaultByAssetID(ctx context.Context, assetID int64) (*models.Vault, error) {
	for _, v := range m.vaults {
		if v.AssetID == assetID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListVaults(ctx context.Context) ([]*models.Vault, error) {
	out := make([]*models.Vault, 0, len(m.vaults))
	for _, v := range m.vaults {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateVault(ctx context.Context, v *models.Vault, ver *models.VaultVersion) error {
	if _, ok := m.vaults[v.ID]; !ok {
		return storage.ErrNotFound
	}
	for _, existing := range m.vaults {
		if existing.ID != v.ID && existing.AssetID == v.AssetID && existing.Name == v.Name {
			return storage.ErrAlreadyExists
		}
	}
	cp := *v
	m.vaults[v.ID] = &cp
	return m.AppendVaultVersion(ctx, ver)
}

func (m *memStore) DeleteVault(ctx context.Context, id int64) error {
	if _, ok := m.vaults[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.vaults, id)
	for sid, s := range m.secrets {
		if s.VaultID == id {
			delete(m.secrets, sid)
		}
	}
	return nil
}

func (m *memStore) ListVaultVersions(ctx context.Context, vaultID int64, limit int) ([]*models.VaultVersion, error) {
	var out []*models.VaultVersion
	for i := len(m.versions) - 1; i >= 0; i-- {
		if m.versions[i].VaultID == vaultID {
			out = append(out, m.versions[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) AppendVaultVersion(ctx context.Context, ver *models.VaultVersion) error {
	ver.ID = m.nextID()
	cp := *ver
	m.versions = append(m.versions, &cp)
	return nil
}

func (m *memStore) CountVaultVersions(ctx context.Context, vaultID int64) (int, error) {
	n := 0
	for _, v := range m.versions {
		if v.VaultID == vaultID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) AddSecret(ctx context.Context, s *models.Secret, ver *models.VaultVersion, reuseHash string) error {
	for _, existing := range m.secrets {
		if existing.VaultID == s.VaultID && existing.Label == s.Label {
			return storage.ErrAlreadyExists
		}
	}
	s.ID = m.nextID()
	cp := *s
	m.secrets[s.ID] = &cp
	ver.VaultID = s.VaultID
	if err := m.AppendVaultVersion(ctx, ver); err != nil {
		return err
	}
	if reuseHash != "" {
		return m.InsertPasswordHistory(ctx, &models.PasswordHistory{
			SecretID:     s.ID,
			PasswordHash: reuseHash,
			CreatedAt:    s.CreatedAt,
		})
	}
	return nil
}

func (m *memStore) GetSecret(ctx context.Context, id int64) (*models.Secret, error) {
	if s, ok := m.secrets[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetSecretByLabel(ctx context.Context, vaultID int64, label string) (*models.Secret, error) {
	for _, s := range m.secrets {
		if s.VaultID == vaultID && s.Label == label {
			cp := *s
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListSecrets(ctx context.Context, vaultID int64) ([]*models.Secret, error) {
	var out []*models.Secret
	for _, s := range m.secrets {
		if s.VaultID == vaultID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateSecret(ctx context.Context, s *models.Secret, ver *models.VaultVersion, reuseHash string) error {
	if _, ok := m.secrets[s.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *s
	m.secrets[s.ID] = &cp
	if err := m.AppendVaultVersion(ctx, ver); err != nil {
		return err
	}
	if reuseHash == "" {
		return nil
	}
	if err := m.RetirePasswordHistory(ctx, s.ID, s.UpdatedAt); err != nil {
		return err
	}
	return m.InsertPasswordHistory(ctx, &models.PasswordHistory{
		SecretID:     s.ID,
		PasswordHash: reuseHash,
		CreatedAt:    s.UpdatedAt,
	})
}

func (m *memStore) DeleteSecret(ctx context.Context, id int64, ver *models.VaultVersion) error {
	if _, ok := m.secrets[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.secrets, id)
	return m.AppendVaultVersion(ctx, ver)
}

func (m *memStore) CountSecrets(ctx context.Context, vaultID int64) (int, error) {
	n := 0
	for _, s := range m.secrets {
		if s.VaultID == vaultID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) PasswordHistoryHashes(ctx context.Context, excludeSecretID *int64) ([]string, error) {
	var out []string
	for _, h := range m.history {
		if excludeSecretID != nil && h.SecretID == *excludeSecretID {
			continue
		}
		out = append(out, h.PasswordHash)
	}
	return out, nil
}

func (m *memStore) ListPasswordHistory(ctx context.Context, secretID int64) ([]*models.PasswordHistory, error) {
	var out []*models.PasswordHistory
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].SecretID == secretID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

func (m *memStore) InsertPasswordHistory(ctx context.Context, h *models.PasswordHistory) error {
	h.ID = m.nextID()
	cp := *h
	m.history = append(m.history, &cp)
	return nil
}

func (m *memStore) RetirePasswordHistory(ctx context.Context, secretID int64, at time.Time) error {
	for _, h := range m.history {
		if h.SecretID == secretID && h.RetiredAt == nil {
			t := at
			h.RetiredAt = &t
		}
	}
	return nil
}

func (m *memStore) PrunePasswordHistory(ctx context.Context, secretID int64, keep int) error {
	var rows []*models.PasswordHistory
	for _, h := range m.history {
		if h.SecretID == secretID {
			rows = append(rows, h)
		}
	}
	if len(rows) <= keep {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	drop := map[int64]bool{}
	for _, h := range rows[keep:] {
		drop[h.ID] = true
	}
	var kept []*models.PasswordHistory
	for _, h := range m.history {
		if !drop[h.ID] {
			kept = append(kept, h)
		}
	}
	m.history = kept
	return nil
}

func (m *memStore) CreateCredential(ctx context.Context, c *models.StandaloneCredential) error {
	c.ID = m.nextID()
	cp := *c
	m.credentials[c.ID] = &cp
	return nil
}

func (m *memStore) GetCredential(ctx context.Context, id int64) (*models.StandaloneCredential, error) {
	if c, ok := m.credentials[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) UpdateCredential(ctx context.Context, c *models.StandaloneCredential) error {
	if _, ok := m.credentials[c.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *c
	m.credentials[c.ID] = &cp
	return nil
}

func (m *memStore) DeleteCredential(ctx context.Context, id int64) error {
	if _, ok := m.credentials[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.credentials, id)
	return nil
}

func (m *memStore) SearchCredentials(ctx context.Context, f storage.CredentialFilter) ([]*models.StandaloneCredential, int, error) {
	var matched []*models.StandaloneCredential
	for _, c := range m.credentials {
		if f.Text != "" &&
			!strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Text)) &&
			!strings.Contains(strings.ToLower(c.Description), strings.ToLower(f.Text)) {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		hasAll := true
		for _, want := range f.Tags {
			found := false
			for _, have := range c.Tags {
				if have == want {
					found = true
					break
				}
			}
			if !found {
				hasAll = false
				break
			}
		}
		if !hasAll {
			continue
		}
		if f.CreatedAfter != nil && c.CreatedAt.Before(*f.CreatedAfter) {
			continue
		}
		if f.CreatedBefore != nil && c.CreatedAt.After(*f.CreatedBefore) {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (m *memStore) InsertPermission(ctx context.Context, p *models.VaultPermission) error {
	for _, existing := range m.perms {
		if existing.IsActive && existing.UserID == p.UserID && existing.VaultID == p.VaultID && existing.Type == p.Type {
			return storage.ErrAlreadyExists
		}
	}
	p.ID = m.nextID()
	cp := *p
	m.perms = append(m.perms, &cp)
	return nil
}

func (m *memStore) GetActivePermission(ctx context.Context, userID, vaultID int64, permType string) (*models.VaultPermission, error) {
	for _, p := range m.perms {
		if p.IsActive && p.UserID == userID && p.VaultID == vaultID && p.Type == permType {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListActivePermissions(ctx context.Context, userID, vaultID int64) ([]*models.VaultPermission, error) {
	var out []*models.VaultPermission
	for _, p := range m.perms {
		if !p.IsActive {
			continue
		}
		if userID != 0 && p.UserID != userID {
			continue
		}
		if vaultID != 0 && p.VaultID != vaultID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) RevokePermissions(ctx context.Context, userID, vaultID int64, permType string) (int64, error) {
	var n int64
	for _, p := range m.perms {
		if p.IsActive && p.UserID == userID && p.VaultID == vaultID && (permType == "" || p.Type == permType) {
			p.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *memStore) ExpirePermissions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, p := range m.perms {
		if p.IsActive && p.Expired(now) {
			p.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *memStore) AppendAccessLog(ctx context.Context, entry *models.VaultAccessLog) error {
	entry.ID = m.nextID()
	cp := *entry
	m.accessLog = append(m.accessLog, &cp)
	return nil
}

func (m *memStore) ListAccessLog(ctx context.Context, vaultID int64, limit int) ([]*models.VaultAccessLog, error) {
	var out []*models.VaultAccessLog
	for i := len(m.accessLog) - 1; i >= 0; i-- {
		if m.accessLog[i].VaultID == vaultID {
			out = append(out, m.accessLog[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) InsertPermissionRequest(ctx context.Context, r *models.PermissionRequest) error {
	r.ID = m.nextID()
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *memStore) GetPermissionRequest(ctx context.Context, id int64) (*models.PermissionRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) FindPendingRequest(ctx context.Context, userID, vaultID int64, permType string) (*models.PermissionRequest, error) {
	for _, r := range m.requests {
		if r.Status == models.RequestPending && r.UserID == userID && r.VaultID == vaultID && r.RequestedType == permType {
			cp := *r
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListPermissionRequests(ctx context.Context, status string) ([]*models.PermissionRequest, error) {
	var out []*models.PermissionRequest
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ResolvePermissionRequest(ctx context.Context, id int64, status string, approvedBy int64, notes string) error {
	r, ok := m.requests[id]
	if !ok || r.Status != models.RequestPending {
		return storage.ErrNotFound
	}
	r.Status = status
	r.ApprovedBy = &approvedBy
	r.ApprovalNotes = notes
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) ExpirePermissionRequests(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	for _, r := range m.requests {
		if r.Status == models.RequestPending && r.CreatedAt.Before(olderThan) {
			r.Status = models.RequestExpired
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateRotationSchedule(ctx context.Context, s *models.RotationSchedule) error {
	s.ID = m.nextID()
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *memStore) GetActiveRotationSchedule(ctx context.Context, vaultID int64) (*models.RotationSchedule, error) {
	for _, s := range m.schedules {
		if s.IsActive && s.VaultID == vaultID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) UpdateRotationSchedule(ctx context.Context, s *models.RotationSchedule) error {
	if _, ok := m.schedules[s.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *memStore) ApplySecretRotation(ctx context.Context, s *models.Secret) error {
	if _, ok := m.secrets[s.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *s
	m.secrets[s.ID] = &cp
	return nil
}

func (m *memStore) InsertRotationHistory(ctx context.Context, h *models.PasswordRotationHistory) error {
	h.ID = m.nextID()
	cp := *h
	m.rotations = append(m.rotations, &cp)
	return nil
}

func (m *memStore) ListRotationHistory(ctx context.Context, secretID int64) ([]*models.PasswordRotationHistory, error) {
	var out []*models.PasswordRotationHistory
	for i := len(m.rotations) - 1; i >= 0; i-- {
		if m.rotations[i].SecretID == secretID {
			out = append(out, m.rotations[i])
		}
	}
	return out, nil
}

func (m *memStore) ListRotationAlerts(ctx context.Context, now time.Time, daysAhead int) ([]*models.RotationAlert, error) {
	var out []*models.RotationAlert
	for _, s := range m.secrets {
		if s.Type != models.SecretPassword || s.NextRotationDue == nil {
			continue
		}
		cutoff := now.AddDate(0, 0, daysAhead)
		if daysAhead == 0 {
			var sched *models.RotationSchedule
			for _, sc := range m.schedules {
				if sc.IsActive && sc.VaultID == s.VaultID {
					sched = sc
					break
				}
			}
			if sched == nil {
				continue
			}
			cutoff = now.AddDate(0, 0, sched.AlertDaysBefore)
		}
		if !s.NextRotationDue.Before(cutoff) {
			continue
		}
		v := m.vaults[s.VaultID]
		if v == nil {
			continue
		}
		out = append(out, &models.RotationAlert{
			SecretID:  s.ID,
			Label:     s.Label,
			VaultID:   v.ID,
			VaultName: v.Name,
			AssetID:   v.AssetID,
			DueAt:     *s.NextRotationDue,
			Overdue:   s.NextRotationDue.Before(now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (m *memStore) ComplianceMetrics(ctx context.Context, now time.Time) (*models.ComplianceMetrics, error) {
	cm := &models.ComplianceMetrics{CompliancePercent: 100}
	var ageSum float64
	for _, s := range m.secrets {
		if s.Type != models.SecretPassword {
			continue
		}
		cm.TotalPasswordSecrets++
		if s.NextRotationDue != nil {
			if s.NextRotationDue.Before(now) {
				cm.OverdueCount++
			} else if s.NextRotationDue.Before(now.AddDate(0, 0, 7)) {
				cm.DueWithin7Days++
			}
		}
		base := s.CreatedAt
		if s.LastChanged != nil {
			base = *s.LastChanged
		}
		ageSum += now.Sub(base).Hours() / 24
	}
	if cm.TotalPasswordSecrets > 0 {
		cm.AverageAgeDays = ageSum / float64(cm.TotalPasswordSecrets)
		cm.CompliancePercent = 100 * float64(cm.TotalPasswordSecrets-cm.OverdueCount) / float64(cm.TotalPasswordSecrets)
	}
	return cm, nil
}

func (m *memStore) RecomputeRotationDueDates(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, sched := range m.schedules {
		if !sched.IsActive {
			continue
		}
		for _, s := range m.secrets {
			if s.VaultID != sched.VaultID || s.Type != models.SecretPassword {
				continue
			}
			base := s.CreatedAt
			if s.LastChanged != nil {
				base = *s.LastChanged
			}
			if s.LastRotated != nil {
				base = *s.LastRotated
			}
			due := base.AddDate(0, 0, sched.RotationIntervalDays)
			if s.NextRotationDue == nil || !s.NextRotationDue.Equal(due) {
				s.NextRotationDue = &due
				interval := sched.RotationIntervalDays
				s.RotationIntervalDays = &interval
				n++
			}
		}
	}
	return n, nil
}

func (m *memStore) CreateRotationBatch(ctx context.Context, b *models.RotationBatch) error {
	b.ID = m.nextID()
	cp := *b
	m.batches[b.ID] = &cp
	return nil
}

func (m *memStore) GetRotationBatch(ctx context.Context, id int64) (*models.RotationBatch, error) {
	if b, ok := m.batches[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) UpdateRotationBatch(ctx context.Context, b *models.RotationBatch) error {
	if _, ok := m.batches[b.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *b
	m.batches[b.ID] = &cp
	return nil
}

func (m *memStore) InsertAuditEvent(ctx context.Context, e *models.AuditEvent) error {
	m.audit = append(m.audit, e)
	return nil
}

func (m *memStore) CountVaults(ctx context.Context) (int64, error) {
	return int64(len(m.vaults)), nil
}

func (m *memStore) CountAllSecrets(ctx context.Context) (int64, error) {
	return int64(len(m.secrets)), nil
}

// --- test helpers ---

var (
	testAdmin    = models.Principal{UserID: 1, Username: "alice", Role: models.RoleAdministrator}
	testEngineer = models.Principal{UserID: 2, Username: "bob", Role: models.RoleEngineer}
)

func newTestServer() (http.Handler, *memStore) {
	store := newMemStore()
	srv := NewServer(store, Config{ListenAddr: ":0"}, zerolog.Nop())
	return srv.BuildRouter(), store
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, p *models.Principal) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req.Header.Set("X-Principal-Id", strconv.FormatInt(p.UserID, 10))
		req.Header.Set("X-Principal-Name", p.Username)
		req.Header.Set("X-Principal-Role", p.Role)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v (body: %s)", err, w.Body.String())
	}
	return result
}

func createVault(t *testing.T, handler http.Handler, assetID int64, name string) int64 {
	t.Helper()
	w := doJSON(t, handler, "POST", "/v1/vaults", map[string]any{
		"asset_id": assetID, "name": name,
	}, &testAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("creating vault: %d %s", w.Code, w.Body.String())
	}
	return int64(decodeBody(t, w)["id"].(float64))
}

func addSecret(t *testing.T, handler http.Handler, vaultID int64, label, value string) int64 {
	t.Helper()
	w := doJSON(t, handler, "POST", "/v1/vaults/"+strconv.FormatInt(vaultID, 10)+"/secrets", map[string]any{
		"type": "password", "label": label, "value": value,
	}, &testAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("adding secret: %d %s", w.Code, w.Body.String())
	}
	return int64(decodeBody(t, w)["id"].(float64))
}

// --- tests ---

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestServer()
	w := doJSON(t, handler, "GET", "/v1/sys/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", body["status"])
	}
}

func TestPrincipalRequired(t *testing.T) {
	handler, _ := newTestServer()
	w := doJSON(t, handler, "GET", "/v1/vaults", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without principal headers, got %d", w.Code)
	}

	// Malformed principal id is also rejected.
	req := httptest.NewRequest("GET", "/v1/vaults", nil)
	req.Header.Set("X-Principal-Id", "zero")
	req.Header.Set("X-Principal-Name", "alice")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req)
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed principal id, got %d", w2.Code)
	}
}

func TestVaultLifecycle(t *testing.T) {
	handler, _ := newTestServer()
	id := createVault(t, handler, 10, "db-server")

	// Duplicate (asset, name) is rejected.
	w := doJSON(t, handler, "POST", "/v1/vaults", map[string]any{
		"asset_id": 10, "name": "db-server",
	}, &testAdmin)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate vault, got %d", w.Code)
	}

	// Name too short.
	w = doJSON(t, handler, "POST", "/v1/vaults", map[string]any{
		"asset_id": 11, "name": "x",
	}, &testAdmin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for short name, got %d", w.Code)
	}

	// Get by id and by asset.
	w = doJSON(t, handler, "GET", "/v1/vaults/"+strconv.FormatInt(id, 10), nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("get vault: %d %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["name"] != "db-server" {
		t.Errorf("expected name db-server, got %v", body["name"])
	}
	w = doJSON(t, handler, "GET", "/v1/assets/10/vault", nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Errorf("get by asset: %d", w.Code)
	}

	// Update writes a version row.
	w = doJSON(t, handler, "PUT", "/v1/vaults/"+strconv.FormatInt(id, 10), map[string]any{
		"name": "db-server-primary",
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("update vault: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, handler, "GET", "/v1/vaults/"+strconv.FormatInt(id, 10)+"/versions", nil, &testAdmin)
	versions := decodeBody(t, w)["versions"].([]any)
	if len(versions) != 2 {
		t.Errorf("expected 2 version rows after create+update, got %d", len(versions))
	}

	// Delete, then 404.
	w = doJSON(t, handler, "DELETE", "/v1/vaults/"+strconv.FormatInt(id, 10), nil, &testAdmin)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete vault: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, handler, "GET", "/v1/vaults/"+strconv.FormatInt(id, 10), nil, &testAdmin)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestSecretAddAndReveal(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 20, "web-host")
	secretID := addSecret(t, handler, vaultID, "root-password", "correct horse battery")

	// The by-asset view carries the secret count.
	w := doJSON(t, handler, "GET", "/v1/assets/20/vault", nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("get by asset: %d %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["secret_count"] != float64(1) {
		t.Errorf("expected secret_count 1, got %v", body["secret_count"])
	}

	// Duplicate label in the same vault is rejected.
	w = doJSON(t, handler, "POST", "/v1/vaults/"+strconv.FormatInt(vaultID, 10)+"/secrets", map[string]any{
		"type": "password", "label": "root-password", "value": "other",
	}, &testAdmin)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate label, got %d", w.Code)
	}

	// Metadata views never carry the encrypted value.
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10), nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("get secret: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if _, ok := body["encrypted_value"]; ok {
		t.Error("secret view must not expose encrypted_value")
	}
	if body["strength_score"] == nil {
		t.Error("password secret should carry a strength score")
	}

	// Reveal decrypts for the same principal.
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/value", nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("reveal: %d %s", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["value"]; got != "correct horse battery" {
		t.Errorf("reveal mismatch: got %v", got)
	}

	// A different principal's derived key cannot decrypt; access fails closed.
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/value", nil,
		&models.Principal{UserID: 3, Username: "carol", Role: models.RoleAdministrator})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for cross-principal reveal, got %d", w.Code)
	}

	// Update value, reveal the new one.
	w = doJSON(t, handler, "PUT", "/v1/secrets/"+strconv.FormatInt(secretID, 10), map[string]any{
		"value": "new value here",
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("update secret: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/value", nil, &testAdmin)
	if got := decodeBody(t, w)["value"]; got != "new value here" {
		t.Errorf("reveal after update: got %v", got)
	}

	w = doJSON(t, handler, "DELETE", "/v1/secrets/"+strconv.FormatInt(secretID, 10), nil, &testAdmin)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete secret: %d", w.Code)
	}
}

func TestSecretUpdateRefreshesReuseHistory(t *testing.T) {
	handler, store := newTestServer()
	vaultID := createVault(t, handler, 21, "jump-host")
	secretID := addSecret(t, handler, vaultID, "root-password", "FirstJumpPass-24!a")

	w := doJSON(t, handler, "PUT", "/v1/secrets/"+strconv.FormatInt(secretID, 10), map[string]any{
		"value": "SecondJumpPass-25!b",
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("update secret: %d %s", w.Code, w.Body.String())
	}

	// The update retired the old hash and recorded the new value.
	var live, retired int
	for _, h := range store.history {
		if h.SecretID != secretID {
			continue
		}
		if h.RetiredAt == nil {
			live++
		} else {
			retired++
		}
	}
	if live != 1 || retired != 1 {
		t.Fatalf("expected 1 live and 1 retired history row, got %d live, %d retired", live, retired)
	}

	// Both the updated and the original value count as reuse.
	rotatePath := "/v1/secrets/" + strconv.FormatInt(secretID, 10) + "/rotate"
	for _, pw := range []string{"SecondJumpPass-25!b", "FirstJumpPass-24!a"} {
		w = doJSON(t, handler, "POST", rotatePath, map[string]any{"new_password": pw}, &testAdmin)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 rotating to %q, got %d %s", pw, w.Code, w.Body.String())
		}
	}
}

func TestAccessControl(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 30, "switch-01")
	vaultPath := "/v1/vaults/" + strconv.FormatInt(vaultID, 10)

	// Engineer without a grant is denied.
	w := doJSON(t, handler, "GET", vaultPath, nil, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without grant, got %d", w.Code)
	}

	// Only admins can grant.
	w = doJSON(t, handler, "POST", "/v1/access/grants", map[string]any{
		"user_id": testEngineer.UserID, "vault_id": vaultID, "permission_type": "read",
	}, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin grant, got %d", w.Code)
	}

	// Past expiry is rejected.
	w = doJSON(t, handler, "POST", "/v1/access/grants", map[string]any{
		"user_id": testEngineer.UserID, "vault_id": vaultID, "permission_type": "read",
		"expires_at": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	}, &testAdmin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for past expiry, got %d", w.Code)
	}

	// Granting on a vault that does not exist is not found.
	w = doJSON(t, handler, "POST", "/v1/access/grants", map[string]any{
		"user_id": testEngineer.UserID, "vault_id": 9999, "permission_type": "read",
	}, &testAdmin)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 granting on missing vault, got %d", w.Code)
	}

	// Grant read, engineer can now view but still not write.
	w = doJSON(t, handler, "POST", "/v1/access/grants", map[string]any{
		"user_id": testEngineer.UserID, "vault_id": vaultID, "permission_type": "read",
	}, &testAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("grant: %d %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["is_active"] != true {
		t.Errorf("fresh grant should be active, got %v", body["is_active"])
	}
	w = doJSON(t, handler, "GET", vaultPath, nil, &testEngineer)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 after read grant, got %d", w.Code)
	}
	w = doJSON(t, handler, "POST", vaultPath+"/secrets", map[string]any{
		"type": "password", "label": "x", "value": "y",
	}, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Errorf("read grant must not allow writes, got %d", w.Code)
	}

	// Export needs its own permission type.
	w = doJSON(t, handler, "GET", vaultPath+"/export", nil, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for export without grant, got %d", w.Code)
	}

	// Revoke, denied again.
	w = doJSON(t, handler, "DELETE", "/v1/access/grants", map[string]any{
		"user_id": testEngineer.UserID, "vault_id": vaultID, "permission_type": "read",
	}, &testAdmin)
	if w.Code != http.StatusNoContent {
		t.Fatalf("revoke: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, handler, "GET", vaultPath, nil, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 after revoke, got %d", w.Code)
	}

	// Every outcome was logged, including denials.
	w = doJSON(t, handler, "GET", vaultPath+"/access-log", nil, &testAdmin)
	entries := decodeBody(t, w)["entries"].([]any)
	var denied int
	for _, e := range entries {
		if e.(map[string]any)["result"] == "denied" {
			denied++
		}
	}
	if denied < 2 {
		t.Errorf("expected at least 2 denied log entries, got %d (of %d)", denied, len(entries))
	}
}

func TestExpiredGrantDenied(t *testing.T) {
	handler, store := newTestServer()
	vaultID := createVault(t, handler, 31, "router-7")

	// A grant past its expiry is denied at check time even before the
	// sweeper deactivates it.
	past := time.Now().UTC().Add(-time.Minute)
	store.perms = append(store.perms, &models.VaultPermission{
		ID: 999, UserID: testEngineer.UserID, VaultID: vaultID,
		Type: models.PermissionRead, IsActive: true, ExpiresAt: &past,
	})
	w := doJSON(t, handler, "GET", "/v1/vaults/"+strconv.FormatInt(vaultID, 10), nil, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for expired grant, got %d", w.Code)
	}
}

func TestPermissionRequestFlow(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 40, "backup-nas")

	// Requests need an existing vault.
	w := doJSON(t, handler, "POST", "/v1/access/requests", map[string]any{
		"vault_id": 9999, "permission_type": "write",
	}, &testEngineer)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 requesting on missing vault, got %d", w.Code)
	}

	w = doJSON(t, handler, "POST", "/v1/access/requests", map[string]any{
		"vault_id": vaultID, "permission_type": "write",
	}, &testEngineer)
	if w.Code != http.StatusCreated {
		t.Fatalf("request access: %d %s", w.Code, w.Body.String())
	}
	requestID := int64(decodeBody(t, w)["id"].(float64))

	// Duplicate pending request is rejected.
	w = doJSON(t, handler, "POST", "/v1/access/requests", map[string]any{
		"vault_id": vaultID, "permission_type": "write",
	}, &testEngineer)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate request, got %d", w.Code)
	}

	// Non-admin cannot approve.
	approvePath := "/v1/access/requests/" + strconv.FormatInt(requestID, 10) + "/approve"
	w = doJSON(t, handler, "POST", approvePath, map[string]any{}, &testEngineer)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin approve, got %d", w.Code)
	}

	// Admin approves; the grant materializes.
	w = doJSON(t, handler, "POST", approvePath, map[string]any{"notes": "ok"}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, handler, "POST", "/v1/vaults/"+strconv.FormatInt(vaultID, 10)+"/secrets", map[string]any{
		"type": "ip_address", "label": "mgmt-ip", "value": "10.0.0.7",
	}, &testEngineer)
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201 after approval, got %d %s", w.Code, w.Body.String())
	}

	// Approving the same request again conflicts.
	w = doJSON(t, handler, "POST", approvePath, map[string]any{}, &testAdmin)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for re-approve, got %d", w.Code)
	}
}

func TestRotation(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 50, "pg-primary")
	secretID := addSecret(t, handler, vaultID, "postgres", "OriginalPass-2024!xyz")
	rotatePath := "/v1/secrets/" + strconv.FormatInt(secretID, 10) + "/rotate"

	// Too short.
	w := doJSON(t, handler, "POST", rotatePath, map[string]any{"new_password": "short"}, &testAdmin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", w.Code)
	}

	// Reusing the current password is rejected.
	w = doJSON(t, handler, "POST", rotatePath, map[string]any{"new_password": "OriginalPass-2024!xyz"}, &testAdmin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for reused password, got %d %s", w.Code, w.Body.String())
	}

	// Valid rotation.
	w = doJSON(t, handler, "POST", rotatePath, map[string]any{
		"new_password": "RotatedPass-2025!abc", "reason": "scheduled",
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("rotate: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["last_rotated"] == nil {
		t.Error("rotated secret should carry last_rotated")
	}
	if body["generation_method"] != "rotation" {
		t.Errorf("expected generation_method=rotation, got %v", body["generation_method"])
	}

	// New value decrypts.
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/value", nil, &testAdmin)
	if got := decodeBody(t, w)["value"]; got != "RotatedPass-2025!abc" {
		t.Errorf("reveal after rotate: got %v", got)
	}

	// History recorded, hashes never exposed.
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/rotation-history", nil, &testAdmin)
	history := decodeBody(t, w)["history"].([]any)
	if len(history) != 1 {
		t.Fatalf("expected 1 rotation record, got %d", len(history))
	}
	entry := history[0].(map[string]any)
	if entry["reason"] != "scheduled" {
		t.Errorf("expected reason=scheduled, got %v", entry["reason"])
	}
	if _, ok := entry["old_password_hash"]; ok {
		t.Error("rotation history view must not expose password hashes")
	}

	// Emergency rotation can skip validation.
	w = doJSON(t, handler, "POST", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/emergency-rotate", map[string]any{
		"new_password": "tiny", "skip_validation": true,
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("emergency rotate: %d %s", w.Code, w.Body.String())
	}

	// Non-password secrets cannot be rotated.
	w = doJSON(t, handler, "POST", "/v1/vaults/"+strconv.FormatInt(vaultID, 10)+"/secrets", map[string]any{
		"type": "vpn_key", "label": "tunnel", "value": "key material",
	}, &testAdmin)
	keyID := int64(decodeBody(t, w)["id"].(float64))
	w = doJSON(t, handler, "POST", "/v1/secrets/"+strconv.FormatInt(keyID, 10)+"/rotate", map[string]any{
		"new_password": "WhateverPass-123!",
	}, &testAdmin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 rotating non-password secret, got %d", w.Code)
	}
}

func TestRotationScheduleAndAlerts(t *testing.T) {
	handler, store := newTestServer()
	vaultID := createVault(t, handler, 60, "fw-edge")
	addSecret(t, handler, vaultID, "admin-password", "EdgeAdminPass-77!q")
	schedPath := "/v1/vaults/" + strconv.FormatInt(vaultID, 10) + "/rotation-schedule"

	// Alert window must fit inside the interval.
	w := doJSON(t, handler, "PUT", schedPath, map[string]any{
		"rotation_interval_days": 30, "alert_days_before": 45,
	}, &testAdmin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for alert window wider than interval, got %d", w.Code)
	}

	w = doJSON(t, handler, "PUT", schedPath, map[string]any{
		"rotation_interval_days": 30, "alert_days_before": 7,
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("set schedule: %d %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["is_active"] != true {
		t.Errorf("fresh schedule should be active, got %v", body["is_active"])
	}

	w = doJSON(t, handler, "GET", schedPath, nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("get schedule: %d", w.Code)
	}
	if got := decodeBody(t, w)["rotation_interval_days"]; got != float64(30) {
		t.Errorf("expected interval 30, got %v", got)
	}

	// Setting the schedule recomputed due dates, so a wide enough window
	// shows the secret.
	w = doJSON(t, handler, "GET", "/v1/rotation/alerts?days_ahead=60", nil, &testAdmin)
	alerts := decodeBody(t, w)["alerts"].([]any)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert within 60 days, got %d", len(alerts))
	}
	if alerts[0].(map[string]any)["overdue"] != false {
		t.Error("fresh secret should not be overdue")
	}

	// Without an explicit window the schedule's 7-day lead drives, and a
	// secret due in 30 days is still quiet.
	w = doJSON(t, handler, "GET", "/v1/rotation/alerts", nil, &testAdmin)
	if alerts := decodeBody(t, w)["alerts"].([]any); len(alerts) != 0 {
		t.Errorf("expected no alerts outside the alert lead, got %d", len(alerts))
	}

	// Once the due date enters the lead, the alert fires.
	for _, s := range store.secrets {
		if s.VaultID == vaultID {
			due := time.Now().UTC().AddDate(0, 0, 3)
			s.NextRotationDue = &due
		}
	}
	w = doJSON(t, handler, "GET", "/v1/rotation/alerts", nil, &testAdmin)
	if alerts := decodeBody(t, w)["alerts"].([]any); len(alerts) != 1 {
		t.Errorf("expected 1 alert inside the alert lead, got %d", len(alerts))
	}

	w = doJSON(t, handler, "GET", "/v1/rotation/compliance", nil, &testAdmin)
	metrics := decodeBody(t, w)
	if metrics["total_password_secrets"] != float64(1) {
		t.Errorf("expected 1 password secret, got %v", metrics["total_password_secrets"])
	}
	if metrics["overdue_count"] != float64(0) {
		t.Errorf("expected 0 overdue, got %v", metrics["overdue_count"])
	}

	w = doJSON(t, handler, "DELETE", schedPath, nil, &testAdmin)
	if w.Code != http.StatusNoContent {
		t.Fatalf("disable schedule: %d", w.Code)
	}
	w = doJSON(t, handler, "GET", schedPath, nil, &testAdmin)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after disable, got %d", w.Code)
	}
}

func TestBatchRotation(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 70, "k8s-nodes")
	first := addSecret(t, handler, vaultID, "node-1", "NodeOnePass-2024!a")
	second := addSecret(t, handler, vaultID, "node-2", "NodeTwoPass-2024!b")

	w := doJSON(t, handler, "POST", "/v1/rotation/batches", map[string]any{
		"name": "q3 node sweep",
	}, &testAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create batch: %d %s", w.Code, w.Body.String())
	}
	batchID := int64(decodeBody(t, w)["id"].(float64))
	execPath := "/v1/rotation/batches/" + strconv.FormatInt(batchID, 10) + "/execute"

	w = doJSON(t, handler, "POST", execPath, map[string]any{
		"items": []map[string]any{
			{"secret_id": first, "new_password": "NodeOneRotated-25!x"},
			{"secret_id": second, "new_password": "NodeTwoRotated-25!y"},
		},
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("execute batch: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if succeeded := body["succeeded"].([]any); len(succeeded) != 2 {
		t.Errorf("expected 2 succeeded, got %v", body["succeeded"])
	}
	if batch := body["batch"].(map[string]any); batch["status"] != models.BatchCompleted {
		t.Errorf("expected completed batch, got %v", batch["status"])
	}

	// A batch only executes once.
	w = doJSON(t, handler, "POST", execPath, map[string]any{
		"items": []map[string]any{{"secret_id": first, "new_password": "AnotherPass-25!z"}},
	}, &testAdmin)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 re-executing batch, got %d", w.Code)
	}

	// Both rotations landed.
	for id, want := range map[int64]string{first: "NodeOneRotated-25!x", second: "NodeTwoRotated-25!y"} {
		w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(id, 10)+"/value", nil, &testAdmin)
		if got := decodeBody(t, w)["value"]; got != want {
			t.Errorf("secret %d: expected %q, got %v", id, want, got)
		}
	}
}

func TestBatchRotationPartialFailure(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 71, "k8s-stragglers")
	good := addSecret(t, handler, vaultID, "node-3", "NodeThreePass-2024!c")
	bad := addSecret(t, handler, vaultID, "node-4", "NodeFourPass-2024!d")

	w := doJSON(t, handler, "POST", "/v1/rotation/batches", map[string]any{
		"name": "q3 stragglers",
	}, &testAdmin)
	batchID := int64(decodeBody(t, w)["id"].(float64))

	// One item fails validation inside its savepoint; the other commits.
	w = doJSON(t, handler, "POST", "/v1/rotation/batches/"+strconv.FormatInt(batchID, 10)+"/execute", map[string]any{
		"items": []map[string]any{
			{"secret_id": good, "new_password": "NodeThreeRotated-26!p"},
			{"secret_id": bad, "new_password": "tiny"},
		},
	}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("execute mixed batch: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)

	succeeded := body["succeeded"].([]any)
	if len(succeeded) != 1 || int64(succeeded[0].(float64)) != good {
		t.Errorf("expected only secret %d to succeed, got %v", good, succeeded)
	}
	failed := body["failed"].(map[string]any)
	msg, ok := failed[strconv.FormatInt(bad, 10)].(string)
	if !ok || !strings.Contains(msg, "12 characters") {
		t.Errorf("expected a length failure for secret %d, got %v", bad, failed)
	}

	// The batch still completes, with the failure on record.
	batch := body["batch"].(map[string]any)
	if batch["status"] != models.BatchCompleted {
		t.Errorf("expected completed batch, got %v", batch["status"])
	}
	if batch["notes"] != "1 of 2 items failed" {
		t.Errorf("expected failure note, got %v", batch["notes"])
	}
	errMsg, _ := body["error"].(string)
	if !strings.Contains(errMsg, "completed with failures for secrets: "+strconv.FormatInt(bad, 10)) {
		t.Errorf("expected aggregate error naming secret %d, got %q", bad, errMsg)
	}

	// The failed item rolled back alone; the good one landed.
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(good, 10)+"/value", nil, &testAdmin)
	if got := decodeBody(t, w)["value"]; got != "NodeThreeRotated-26!p" {
		t.Errorf("expected rotated value for secret %d, got %v", good, got)
	}
	w = doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(bad, 10)+"/value", nil, &testAdmin)
	if got := decodeBody(t, w)["value"]; got != "NodeFourPass-2024!d" {
		t.Errorf("expected untouched value for secret %d, got %v", bad, got)
	}
}

func TestCredentials(t *testing.T) {
	handler, _ := newTestServer()

	w := doJSON(t, handler, "POST", "/v1/credentials", map[string]any{
		"name": "office wifi", "type": "password", "value": "GuestNet-2025",
		"category": "network", "tags": []string{"wifi", "shared"},
	}, &testAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create credential: %d %s", w.Code, w.Body.String())
	}
	id := int64(decodeBody(t, w)["id"].(float64))

	doJSON(t, handler, "POST", "/v1/credentials", map[string]any{
		"name": "printer admin", "type": "password", "value": "PrintMe-9",
		"category": "office",
	}, &testAdmin)

	// Text search narrows to one.
	w = doJSON(t, handler, "GET", "/v1/credentials?q=wifi", nil, &testAdmin)
	body := decodeBody(t, w)
	if body["total"] != float64(1) {
		t.Errorf("expected total=1 for q=wifi, got %v", body["total"])
	}

	// Tag filter requires all listed tags.
	w = doJSON(t, handler, "GET", "/v1/credentials?tags=wifi,shared", nil, &testAdmin)
	if got := decodeBody(t, w)["total"]; got != float64(1) {
		t.Errorf("expected total=1 for tag filter, got %v", got)
	}
	w = doJSON(t, handler, "GET", "/v1/credentials?tags=wifi,missing", nil, &testAdmin)
	if got := decodeBody(t, w)["total"]; got != float64(0) {
		t.Errorf("expected total=0 for unmatched tag, got %v", got)
	}

	// Reveal roundtrip.
	w = doJSON(t, handler, "GET", "/v1/credentials/"+strconv.FormatInt(id, 10)+"/value", nil, &testAdmin)
	if got := decodeBody(t, w)["value"]; got != "GuestNet-2025" {
		t.Errorf("credential reveal: got %v", got)
	}

	w = doJSON(t, handler, "DELETE", "/v1/credentials/"+strconv.FormatInt(id, 10), nil, &testAdmin)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete credential: %d", w.Code)
	}
	w = doJSON(t, handler, "GET", "/v1/credentials/"+strconv.FormatInt(id, 10), nil, &testAdmin)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestVaultExportImport(t *testing.T) {
	handler, _ := newTestServer()
	vaultID := createVault(t, handler, 80, "old-box")
	addSecret(t, handler, vaultID, "ssh-password", "OldBoxPass-2024!m")

	w := doJSON(t, handler, "GET", "/v1/vaults/"+strconv.FormatInt(vaultID, 10)+"/export", nil, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	export := decodeBody(t, w)
	if export["secret_count"] != float64(1) {
		t.Errorf("expected secret_count=1, got %v", export["secret_count"])
	}

	w = doJSON(t, handler, "POST", "/v1/vaults/import", map[string]any{
		"asset_id": 81, "export": export,
	}, &testAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	newVaultID := int64(decodeBody(t, w)["id"].(float64))

	// Ciphertext was carried through; the exporting principal can still
	// decrypt because the seed binds to vault and principal identity.
	w = doJSON(t, handler, "GET", "/v1/vaults/"+strconv.FormatInt(newVaultID, 10)+"/secrets", nil, &testAdmin)
	secrets := decodeBody(t, w)["secrets"].([]any)
	if len(secrets) != 1 {
		t.Fatalf("expected 1 imported secret, got %d", len(secrets))
	}
}

func TestPasswordEndpoints(t *testing.T) {
	handler, _ := newTestServer()

	w := doJSON(t, handler, "POST", "/v1/password/generate", map[string]any{"length": 20}, &testAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if pw := body["password"].(string); len(pw) != 20 {
		t.Errorf("expected 20-char password, got %d chars", len(pw))
	}
	if body["entropy_bits"].(float64) <= 0 {
		t.Error("expected positive entropy")
	}

	w = doJSON(t, handler, "POST", "/v1/password/strength", map[string]any{"password": "abc"}, &testAdmin)
	body = decodeBody(t, w)
	if body["compliant"] != false {
		t.Error("weak password should not be policy compliant")
	}
	if len(body["violations"].([]any)) == 0 {
		t.Error("expected policy violations for weak password")
	}
}

func TestAuditTrail(t *testing.T) {
	handler, store := newTestServer()
	vaultID := createVault(t, handler, 90, "audited")
	secretID := addSecret(t, handler, vaultID, "pw", "AuditedPass-2024!k")
	doJSON(t, handler, "GET", "/v1/secrets/"+strconv.FormatInt(secretID, 10)+"/value", nil, &testAdmin)

	types := map[string]bool{}
	for _, e := range store.audit {
		types[e.EventType] = true
		if e.ID == "" {
			t.Error("audit event missing id")
		}
		if e.CreatedAt.IsZero() {
			t.Error("audit event missing timestamp")
		}
	}
	for _, want := range []string{models.EventVaultCreated, models.EventSecretAdded, models.EventSecretAccessed} {
		if !types[want] {
			t.Errorf("expected audit event %q, got %v", want, types)
		}
	}
}
