// Package store provides generic gorm-backed repositories for dashboard records.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"gorm.io/gorm"
)

// Repository reads and writes records of type T. Every record type shares the
// string "id" primary key from domain.BaseModel and names one timestamp column
// used for ordering and range queries.
type Repository[T any] struct {
	db         *gorm.DB
	dateColumn string
}

// New creates a repository for T ordered by dateColumn (newest first).
func New[T any](db *gorm.DB, dateColumn string) *Repository[T] {
	return &Repository[T]{db: db, dateColumn: dateColumn}
}

// DB exposes the underlying handle, e.g. for transactions.
func (r *Repository[T]) DB() *gorm.DB { return r.db }

// WithDB returns a copy of the repository bound to db (typically a transaction).
func (r *Repository[T]) WithDB(db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db, dateColumn: r.dateColumn}
}

// List returns every record, newest first.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	var records []T
	if err := r.db.WithContext(ctx).Order(r.order()).Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

// Between returns records whose date column falls in [from, to], newest first.
func (r *Repository[T]) Between(ctx context.Context, from, to time.Time) ([]T, error) {
	var records []T
	err := r.db.WithContext(ctx).
		Where(r.dateColumn+" >= ? AND "+r.dateColumn+" <= ?", from, to).
		Order(r.order()).
		Find(&records).Error
	if err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

// Get retrieves a record by its primary key.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	var record T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

// Create inserts new records.
func (r *Repository[T]) Create(ctx context.Context, records ...*T) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(records).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// Save writes an existing record back.
func (r *Repository[T]) Save(ctx context.Context, record *T) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// Modify loads the record with id, applies fn and saves the result in one
// transaction. Nothing is written when fn fails.
func (r *Repository[T]) Modify(ctx context.Context, id string, fn func(*T) error) (*T, error) {
	var out *T
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		txRepo := r.WithDB(tx)
		record, err := txRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
		if err := txRepo.Save(ctx, record); err != nil {
			return err
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	var zero T
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&zero)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of stored records.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	var zero T
	var n int64
	if err := r.db.WithContext(ctx).Model(&zero).Count(&n).Error; err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *Repository[T]) order() string {
	return r.dateColumn + " DESC, id ASC"
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not every GORM dialector translates driver-level errors to
// gorm.ErrDuplicatedKey (the pure-Go SQLite driver does not).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
