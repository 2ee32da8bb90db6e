package repository

import (
	"context"

	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"gorm.io/gorm"
)

type contextTxKey struct{}

// Transactor opens gorm transactions and carries them in the context.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a new Transactor
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

var _ domainRepo.Transactor = (*Transactor)(nil)

// WithinTransaction runs fn in a transaction, or in the one already carried by ctx.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, contextTxKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
