package models

import "time"

// RotationSchedule drives due-date computation for a vault's password
// secrets. At most one active schedule per vault.
type RotationSchedule struct {
	ID                   int64
	VaultID              int64
	RotationIntervalDays int
	AlertDaysBefore      int
	IsActive             bool
	CreatedBy            int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Batch statuses.
const (
	BatchPending    = "pending"
	BatchInProgress = "in_progress"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
	BatchCancelled  = "cancelled"
)

// RotationBatch records a coordinated multi-secret rotation.
type RotationBatch struct {
	ID          int64
	Name        string
	CreatedBy   int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	Notes       string
}

// PasswordRotationHistory is one append-only rotation record.
type PasswordRotationHistory struct {
	ID              int64
	SecretID        int64
	OldPasswordHash string
	Reason          string
	RotatedBy       int64
	RotatedAt       time.Time
	BatchID         *int64
}

// RotationAlert is one upcoming or overdue rotation, enriched with vault and
// asset context for display.
type RotationAlert struct {
	SecretID  int64
	Label     string
	VaultID   int64
	VaultName string
	AssetID   int64
	DueAt     time.Time
	Overdue   bool
}

// ComplianceMetrics summarizes rotation posture across password secrets.
type ComplianceMetrics struct {
	TotalPasswordSecrets int
	OverdueCount         int
	DueWithin7Days       int
	AverageAgeDays       float64
	CompliancePercent    float64
}
