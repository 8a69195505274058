package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// profilesLockKey serializes first-profile creation so only one admin is bootstrapped.
const profilesLockKey = 7_301_911

func (s *Store) Profile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// EnsureProfile returns the user's profile, creating an empty one if missing.
// The first profile ever created is made admin. created reports whether a row was inserted.
func (s *Store) EnsureProfile(ctx context.Context, id uuid.UUID, email string) (profile *models.Profile, created bool, err error) {
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Profile
		err := tx.First(&existing, "id = ?", id).Error
		if err == nil {
			profile = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", profilesLockKey).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Profile{}).Count(&count).Error; err != nil {
			return err
		}

		p := models.Profile{ID: id, Email: email, IsAdmin: count == 0}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		if !created {
			if err := tx.First(&p, "id = ?", id).Error; err != nil {
				return err
			}
		}
		profile = &p
		return nil
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return profile, created, nil
}

// UpsertProfile writes the editable contact fields.
func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "phone", "address", "updated_at"}),
	}).Create(p).Error
	return translate(err)
}

// IsAdmin reads the flag fresh from the database.
func (s *Store) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var p models.Profile
	err := s.conn(ctx).Select("is_admin").First(&p, "id = ?", id).Error
	if err != nil {
		return false, translate(err)
	}
	return p.IsAdmin, nil
}

func (s *Store) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error {
	res := s.conn(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]any{"is_admin": admin, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Profiles lists every profile, newest first.
func (s *Store) Profiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := s.conn(ctx).Order("created_at DESC").Find(&profiles).Error
	return profiles, translate(err)
}
