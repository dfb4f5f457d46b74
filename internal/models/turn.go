package models

import (
	"time"

	"gorm.io/datatypes"
)

type TurnStatus string

const (
	TurnDone     TurnStatus = "done"
	TurnFailed   TurnStatus = "failed"
	TurnEnded    TurnStatus = "ended"
	TurnRejected TurnStatus = "rejected"
)

// TurnStat is usage accounting for one turn; utterance and reply text are not kept.
type TurnStat struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID     string         `gorm:"column:session_id;type:text;index" json:"session_id"`
	Provider      string         `gorm:"column:provider;type:text" json:"provider"`
	Model         string         `gorm:"column:model;type:text" json:"model"`
	Status        TurnStatus     `gorm:"column:status;type:text" json:"status"`
	ResponseChars int            `gorm:"column:response_chars;type:integer" json:"response_chars"`
	ProcessingMS  int64          `gorm:"column:processing_ms;type:bigint" json:"processing_ms"`
	Timestamp     time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (TurnStat) TableName() string { return "turn_stats" }
