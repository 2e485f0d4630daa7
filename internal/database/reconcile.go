package database

import (
	"context"
	"log"

	"gorm.io/gorm"
)

const (
	memberTable       = "workspace_member"
	legacyEmailColumn = "user_email"
	userIDColumn      = "user_id"
)

// Reasons reported to the Recorder for deleted workspace_member rows.
const (
	DeleteReasonUnresolvedEmail = "unresolved_email"
	DeleteReasonBlankEmail      = "blank_email"
	DeleteReasonNullUserID      = "null_user_id"
)

const (
	unresolvedEmailCond = "user_id IS NULL AND user_email IS NOT NULL"
	blankEmailCond      = "user_id IS NULL AND (user_email IS NULL OR user_email = '')"
	nullUserIDCond      = "user_id IS NULL"
)

// Recorder receives the row counts touched by a reconciliation.
type Recorder interface {
	RecordMembersResolved(n int64)
	RecordMembersDeleted(reason string, n int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordMembersResolved(int64)        {}
func (nopRecorder) RecordMembersDeleted(string, int64) {}

// Reconciler moves workspace_member from the email-keyed user reference to
// user_id and drops rows that cannot be tied to an existing user.
type Reconciler struct {
	db       *gorm.DB
	recorder Recorder
}

func NewReconciler(db *gorm.DB, recorder Recorder) *Reconciler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Reconciler{db: db, recorder: recorder}
}

// Reconcile runs the repair steps against tx. Each step re-reads the current
// table state, so an interrupted run is completed by the next one. Errors are
// logged and returned as-is.
func (r *Reconciler) Reconcile(ctx context.Context, tx *gorm.DB) error {
	tx = tx.WithContext(ctx)

	hasLegacy, err := columnExists(tx, memberTable, legacyEmailColumn)
	if err != nil {
		log.Printf("❌ Failed to inspect %s.%s: %v\n", memberTable, legacyEmailColumn, err)
		return err
	}

	if hasLegacy {
		if err := r.reconcileEmails(tx); err != nil {
			return err
		}
	} else {
		log.Printf("✅ %s has no %s column, skipping email reconciliation\n", memberTable, legacyEmailColumn)
	}

	// Catches rows that never carried an email as well as anything written
	// between the steps above.
	return r.purge(tx, nullUserIDCond, DeleteReasonNullUserID, "remaining null user_id")
}

func (r *Reconciler) reconcileEmails(tx *gorm.DB) error {
	hasUserID, err := columnExists(tx, memberTable, userIDColumn)
	if err != nil {
		log.Printf("❌ Failed to inspect %s.%s: %v\n", memberTable, userIDColumn, err)
		return err
	}
	if !hasUserID {
		log.Printf("🔧 Adding %s.%s column\n", memberTable, userIDColumn)
		if err := tx.Exec("ALTER TABLE workspace_member ADD COLUMN user_id UUID").Error; err != nil {
			log.Printf("❌ Failed to add %s.%s: %v\n", memberTable, userIDColumn, err)
			return err
		}
	}

	result := tx.Exec(`UPDATE workspace_member AS wm
		SET user_id = u.id
		FROM "user" AS u
		WHERE u.email = wm.user_email AND wm.user_id IS NULL AND wm.user_email IS NOT NULL`)
	if result.Error != nil {
		log.Printf("❌ Failed to resolve %s from %s: %v\n", userIDColumn, legacyEmailColumn, result.Error)
		return result.Error
	}
	log.Printf("✅ Resolved %d workspace_member rows from user_email\n", result.RowsAffected)
	r.recorder.RecordMembersResolved(result.RowsAffected)

	if err := r.purge(tx, unresolvedEmailCond, DeleteReasonUnresolvedEmail, "an email matching no user"); err != nil {
		return err
	}
	return r.purge(tx, blankEmailCond, DeleteReasonBlankEmail, "no user_id and no email")
}

// purge counts the rows matching cond, reports the count and deletes them.
func (r *Reconciler) purge(tx *gorm.DB, cond, reason, what string) error {
	var count int64
	if err := tx.Raw("SELECT COUNT(*) FROM workspace_member WHERE " + cond).Scan(&count).Error; err != nil {
		log.Printf("❌ Failed to count workspace_member rows with %s: %v\n", what, err)
		return err
	}
	if count == 0 {
		return nil
	}

	log.Printf("🧹 Deleting %d workspace_member rows with %s\n", count, what)
	result := tx.Exec("DELETE FROM workspace_member WHERE " + cond)
	if result.Error != nil {
		log.Printf("❌ Failed to delete workspace_member rows with %s: %v\n", what, result.Error)
		return result.Error
	}
	r.recorder.RecordMembersDeleted(reason, result.RowsAffected)
	return nil
}

func columnExists(tx *gorm.DB, table, column string) (bool, error) {
	var exists bool
	err := tx.Raw(`SELECT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?
	)`, table, column).Scan(&exists).Error
	return exists, err
}

func tableExists(tx *gorm.DB, table string) (bool, error) {
	var exists bool
	err := tx.Raw(`SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ?
	)`, table).Scan(&exists).Error
	return exists, err
}
