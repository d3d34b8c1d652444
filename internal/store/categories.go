package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/id"
	"github.com/studiops/bankrecon/internal/model"
)

// EnsureCategory returns the category called name, creating it if needed.
func (s *Store) EnsureCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("category name is required")
	}
	db := s.db.WithContext(ctx)

	var cat model.Category
	err := db.Where("name = ?", name).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, "finding category")
	}

	cat = model.Category{ID: id.New(), Name: name}
	if err := translate(db.Create(&cat).Error, "creating category"); err != nil {
		if !errors.Is(err, apperr.ErrDuplicate) {
			return nil, err
		}
		// Lost a race with another writer.
		if err := db.Where("name = ?", name).First(&cat).Error; err != nil {
			return nil, translate(err, "finding category")
		}
	}
	return &cat, nil
}

// ListCategories returns every category by name.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, translate(err, "listing categories")
	}
	return out, nil
}

// ListRules returns category rules by descending priority.
func (s *Store) ListRules(ctx context.Context) ([]model.CategoryRule, error) {
	var out []model.CategoryRule
	if err := s.db.WithContext(ctx).Order("priority DESC, keyword").Find(&out).Error; err != nil {
		return nil, translate(err, "listing rules")
	}
	return out, nil
}

// ReplaceRules swaps the whole rule set.
func (s *Store) ReplaceRules(ctx context.Context, rules []model.CategoryRule) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.CategoryRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		rows := make([]model.CategoryRule, len(rules))
		for i, r := range rules {
			r.ID = id.New()
			rows[i] = r
		}
		return tx.Create(&rows).Error
	})
	return translate(err, "replacing rules")
}
