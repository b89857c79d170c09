package api

import (
	"github.com/org/assetvault/pkg/models"
)

// Response shaping. Encrypted values never leave through list or get views;
// only the explicit reveal endpoints return plaintext.

func vaultView(v *models.Vault) map[string]any {
	return map[string]any{
		"id":          v.ID,
		"asset_id":    v.AssetID,
		"name":        v.Name,
		"description": v.Description,
		"created_by":  v.CreatedBy,
		"created_at":  v.CreatedAt,
		"updated_at":  v.UpdatedAt,
	}
}

func vaultViews(vaults []*models.Vault) []map[string]any {
	out := make([]map[string]any, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, vaultView(v))
	}
	return out
}

func secretView(s *models.Secret) map[string]any {
	return map[string]any{
		"id":                s.ID,
		"vault_id":          s.VaultID,
		"type":              s.Type,
		"label":             s.Label,
		"strength_score":    s.StrengthScore,
		"last_changed":      s.LastChanged,
		"last_rotated":      s.LastRotated,
		"next_rotation_due": s.NextRotationDue,
		"generation_method": s.GenerationMethod,
		"policy_version":    s.PolicyVersion,
		"created_at":        s.CreatedAt,
		"updated_at":        s.UpdatedAt,
	}
}

func secretViews(secrets []*models.Secret) []map[string]any {
	out := make([]map[string]any, 0, len(secrets))
	for _, s := range secrets {
		out = append(out, secretView(s))
	}
	return out
}

func versionView(v *models.VaultVersion) map[string]any {
	return map[string]any{
		"id":          v.ID,
		"vault_id":    v.VaultID,
		"change_type": v.ChangeType,
		"author":      v.Author,
		"created_at":  v.CreatedAt,
		"notes":       v.Notes,
		"changes":     v.Changes,
	}
}

func credentialView(c *models.StandaloneCredential) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"category":    c.Category,
		"tags":        c.Tags,
		"type":        c.Type,
		"created_by":  c.CreatedBy,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}

func permissionView(p *models.VaultPermission) map[string]any {
	return map[string]any{
		"id":              p.ID,
		"user_id":         p.UserID,
		"vault_id":        p.VaultID,
		"permission_type": p.Type,
		"granted_by":      p.GrantedBy,
		"granted_at":      p.GrantedAt,
		"expires_at":      p.ExpiresAt,
		"is_active":       p.IsActive,
	}
}

func requestView(r *models.PermissionRequest) map[string]any {
	return map[string]any{
		"id":             r.ID,
		"user_id":        r.UserID,
		"vault_id":       r.VaultID,
		"requested_type": r.RequestedType,
		"status":         r.Status,
		"approved_by":    r.ApprovedBy,
		"approval_notes": r.ApprovalNotes,
		"created_at":     r.CreatedAt,
		"updated_at":     r.UpdatedAt,
	}
}

func accessLogView(e *models.VaultAccessLog) map[string]any {
	return map[string]any{
		"id":            e.ID,
		"user_id":       e.UserID,
		"vault_id":      e.VaultID,
		"access_type":   e.AccessType,
		"accessed_at":   e.AccessedAt,
		"result":        e.Result,
		"error_message": e.ErrorMessage,
	}
}

func scheduleView(s *models.RotationSchedule) map[string]any {
	return map[string]any{
		"id":                     s.ID,
		"vault_id":               s.VaultID,
		"rotation_interval_days": s.RotationIntervalDays,
		"alert_days_before":      s.AlertDaysBefore,
		"is_active":              s.IsActive,
		"created_by":             s.CreatedBy,
		"created_at":             s.CreatedAt,
		"updated_at":             s.UpdatedAt,
	}
}

func batchView(b *models.RotationBatch) map[string]any {
	return map[string]any{
		"id":           b.ID,
		"name":         b.Name,
		"created_by":   b.CreatedBy,
		"started_at":   b.StartedAt,
		"completed_at": b.CompletedAt,
		"status":       b.Status,
		"notes":        b.Notes,
	}
}

func alertView(a *models.RotationAlert) map[string]any {
	return map[string]any{
		"secret_id":  a.SecretID,
		"label":      a.Label,
		"vault_id":   a.VaultID,
		"vault_name": a.VaultName,
		"asset_id":   a.AssetID,
		"due_at":     a.DueAt,
		"overdue":    a.Overdue,
	}
}
