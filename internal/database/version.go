package database

import (
	"context"
	"log"
	"time"

	"taskspace/internal/model"

	"gorm.io/gorm"
)

const (
	reconcileName    = "workspace_member_user_id"
	reconcileVersion = 1

	// Arbitrary key shared by every instance running the startup reconciliation.
	reconcileLockKey int64 = 7_302_114_001
)

const createSchemaVersions = `CREATE TABLE IF NOT EXISTS schema_versions (
	name       TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL
)`

// Run applies the reconciliation once per database. The schema_versions record
// answers "has this run" directly, and the advisory lock serializes instances
// starting at the same time. Everything happens in a single transaction.
func (r *Reconciler) Run(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", reconcileLockKey).Error; err != nil {
			log.Printf("❌ Failed to acquire reconciliation lock: %v\n", err)
			return err
		}
		if err := tx.Exec(createSchemaVersions).Error; err != nil {
			log.Printf("❌ Failed to ensure schema_versions: %v\n", err)
			return err
		}

		applied, err := appliedVersion(tx, reconcileName)
		if err != nil {
			log.Printf("❌ Failed to read schema version %q: %v\n", reconcileName, err)
			return err
		}
		if applied >= reconcileVersion {
			log.Printf("✅ %s reconciliation already applied (version %d)\n", memberTable, applied)
			return nil
		}

		exists, err := tableExists(tx, memberTable)
		if err != nil {
			log.Printf("❌ Failed to inspect %s: %v\n", memberTable, err)
			return err
		}
		if exists {
			if err := r.Reconcile(ctx, tx); err != nil {
				return err
			}
		} else {
			log.Printf("✅ No %s table yet, nothing to reconcile\n", memberTable)
		}

		return recordVersion(tx, reconcileName, reconcileVersion)
	})
}

func appliedVersion(tx *gorm.DB, name string) (int64, error) {
	var version int64
	err := tx.Model(&model.SchemaVersion{}).
		Select("COALESCE(MAX(version), 0)").
		Where("name = ?", name).
		Scan(&version).Error
	return version, err
}

func recordVersion(tx *gorm.DB, name string, version int64) error {
	err := tx.Create(&model.SchemaVersion{
		Name:      name,
		Version:   version,
		AppliedAt: time.Now().UTC(),
	}).Error
	if err != nil {
		log.Printf("❌ Failed to record schema version %q: %v\n", name, err)
		return err
	}
	log.Printf("✅ Recorded schema version %s=%d\n", name, version)
	return nil
}
