package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPaymentSettled    = errors.New("payment already completed")
)

// Store is the Postgres repository behind every handler.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and maintenance commands.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "SQLSTATE 23505"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// Table is a plain CRUD repository for admin-managed rows keyed by uuid.
type Table[T any] struct {
	db *gorm.DB
}

func NewTable[T any](s *Store) *Table[T] {
	return &Table[T]{db: s.db}
}

// List returns every row, newest first.
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := t.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var v T
	if err := t.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (t *Table[T]) Create(ctx context.Context, v *T) error {
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

// Update overwrites every column except id and created_at.
func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, v *T) error {
	res := t.db.WithContext(ctx).Model(new(T)).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
