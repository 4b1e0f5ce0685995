// Package gormstore implements MemoryStore over a gorm DB handle. The
// sqlite and postgres plugins share this implementation and differ only in
// how they open the connection.
package gormstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/model"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"gorm.io/gorm"
)

// Store implements registrystore.MemoryStore using GORM.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm DB handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertMemories(ctx context.Context, memories []model.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&memories).Error
}

func (s *Store) GetByIDs(ctx context.Context, ids []uuid.UUID, typeFilter string) ([]model.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Where("id IN ?", ids)
	if typeFilter != "" && typeFilter != registrystore.TypeAll {
		q = q.Where("type = ?", typeFilter)
	}
	var rows []model.Memory
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Memory{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.Memory{}, "id = ?", id).Error
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Memory{}).Count(&count).Error
	return count, err
}

func (s *Store) CountByType(ctx context.Context) ([]registrystore.TypeCount, error) {
	var counts []registrystore.TypeCount
	err := s.db.WithContext(ctx).Model(&model.Memory{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Scan(&counts).Error
	return counts, err
}

func (s *Store) Recent(ctx context.Context, n int) ([]model.Memory, error) {
	var rows []model.Memory
	err := s.db.WithContext(ctx).Order("created DESC").Limit(n).Find(&rows).Error
	return rows, err
}

func (s *Store) BumpAccessStats(ctx context.Context, ids []uuid.UUID, now int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Memory{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"accessed":     now,
			"access_count": gorm.Expr("access_count + 1"),
		}).Error
}

var _ registrystore.MemoryStore = (*Store)(nil)
