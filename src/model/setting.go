package model

import "time"

// Setting is a persisted key/value pair for operator toggles that must
// survive restarts, such as the manual processing pause.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

const SettingProcessingPaused = "processing_paused"
