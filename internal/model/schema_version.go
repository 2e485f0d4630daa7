package model

import "time"

// SchemaVersion records that a named one-time procedure ran at a given version.
type SchemaVersion struct {
	Name      string    `gorm:"primaryKey"`
	Version   int64     `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaVersion) TableName() string { return "schema_versions" }
