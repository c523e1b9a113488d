// Package naming keeps unique names reusable after soft deletes.
//
// A unique index on a soft-deletable table also blocks the name of a deleted
// row. Before a create or rename the reconciler looks the value up across
// live and deleted rows: a live holder is a conflict, a deleted holder is
// renamed out of the way. Both the lookup and the rename run on the caller's
// transaction so they commit or roll back with the caller's write.
package naming

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrNameTaken = errors.New("name already exists")

type Reconciler struct {
	Column string
	Now    func() time.Time
}

func NewReconciler(column string) *Reconciler {
	if column == "" {
		column = "name"
	}
	return &Reconciler{Column: column, Now: time.Now}
}

type holder struct {
	ID        int64
	DeletedAt gorm.DeletedAt
}

// FreeForCreate makes value available for a new row of model.
// model must be a zero value pointer such as &datamodel.Role{}.
func (r *Reconciler) FreeForCreate(tx *gorm.DB, model interface{}, value string) error {
	return r.free(tx, model, 0, value)
}

// FreeForRename makes value available for the row id of model. Renaming a row to its
// current name is a no-op.
func (r *Reconciler) FreeForRename(tx *gorm.DB, model interface{}, id int64, value string) error {
	return r.free(tx, model, id, value)
}

func (r *Reconciler) free(tx *gorm.DB, model interface{}, selfID int64, value string) error {
	var holders []holder
	err := tx.Unscoped().Model(model).
		Select("id", "deleted_at").
		Where(fmt.Sprintf("%s = ?", r.Column), value).
		Scan(&holders).Error
	if err != nil {
		return fmt.Errorf("lookup %s: %w", r.Column, err)
	}

	for _, h := range holders {
		if h.ID == selfID {
			continue
		}
		if !h.DeletedAt.Valid {
			return ErrNameTaken
		}
		stale := StaleName(value, r.Now())
		err := tx.Unscoped().Model(model).
			Where("id = ?", h.ID).
			UpdateColumn(r.Column, stale).Error
		if err != nil {
			return fmt.Errorf("release %s %q: %w", r.Column, value, err)
		}
	}
	return nil
}

// StaleName is the value a soft-deleted row is renamed to when its name is reclaimed.
func StaleName(value string, at time.Time) string {
	return fmt.Sprintf("%s__deleted_%d", value, at.UnixNano())
}

// IsConflict reports whether err is a reconciler conflict or a unique index
// violation raised by a concurrent writer that won the race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNameTaken) || errors.Is(err, gorm.ErrDuplicatedKey)
}
