package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/studiops/bankrecon/internal/model"
)

// FindActiveImportByHash returns the processing or completed import for hash.
func (s *Store) FindActiveImportByHash(ctx context.Context, hash string) (*model.Import, error) {
	var imp model.Import
	err := s.db.WithContext(ctx).
		Where("dedup_key = ? AND status IN ?", hash, []model.ImportStatus{model.ImportProcessing, model.ImportCompleted}).
		First(&imp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "finding import by hash")
	}
	return &imp, nil
}

// CreateImport inserts imp. A taken dedup key yields apperr.ErrDuplicate.
func (s *Store) CreateImport(ctx context.Context, imp *model.Import) error {
	return translate(s.db.WithContext(ctx).Create(imp).Error, "creating import")
}

// UpdateImport writes every column of imp, including a cleared dedup key.
func (s *Store) UpdateImport(ctx context.Context, imp *model.Import) error {
	return translate(s.db.WithContext(ctx).Save(imp).Error, "updating import")
}

// GetImport loads one import.
func (s *Store) GetImport(ctx context.Context, id string) (*model.Import, error) {
	var imp model.Import
	if err := s.db.WithContext(ctx).First(&imp, "id = ?", id).Error; err != nil {
		return nil, translate(err, "import "+id)
	}
	return &imp, nil
}

// ListImports returns the most recent imports first.
func (s *Store) ListImports(ctx context.Context, limit int) ([]model.Import, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.Import
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "listing imports")
	}
	return out, nil
}
