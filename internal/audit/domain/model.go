package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Run outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Run is one computed report as stored in the history.
type Run struct {
	ID           snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Page         string            `gorm:"size:64;not null;index:idx_report_runs_page_created,priority:1" json:"page"`
	Session      string            `gorm:"size:64" json:"session"`
	Signature    string            `gorm:"type:text" json:"signature"`
	Filter       datatypes.JSONMap `json:"filter"`
	Outcome      string            `gorm:"size:16;not null" json:"outcome"`
	ErrorKind    string            `gorm:"size:32" json:"error_kind,omitempty"`
	ErrorMessage string            `gorm:"type:text" json:"error_message,omitempty"`
	Source       string            `gorm:"size:16" json:"source,omitempty"`
	Totals       datatypes.JSONMap `json:"totals,omitempty"`
	DurationMS   int64             `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt    time.Time         `gorm:"not null;index:idx_report_runs_page_created,priority:2" json:"created_at"`
}

func (Run) TableName() string { return "report_runs" }

// RunCursor positions a newest-first listing.
type RunCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Page   string
	Cursor *RunCursor
	Limit  int
}
