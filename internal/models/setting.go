package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting is a keyed JSON configuration blob, last write wins.
type Setting struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}
