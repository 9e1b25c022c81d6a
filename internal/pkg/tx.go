package pkg

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// WithTx runs fn inside a transaction bound to ctx. It commits when fn
// returns nil and rolls back on error or panic; a failed rollback is joined
// onto fn's error.
//
// When db is already a transaction handle fn runs in it directly, so
// repository helpers compose inside a caller's transaction.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	db = db.WithContext(ctx)
	if inTx(db) {
		return fn(db)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit().Error
}

func inTx(db *gorm.DB) bool {
	if db.Statement == nil {
		return false
	}
	_, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}
