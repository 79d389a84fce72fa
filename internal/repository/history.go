package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/alldrama/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// FindByUserAndMovie 按 (user_id, movie_id) 精确查找
func (r *HistoryRepository) FindByUserAndMovie(ctx context.Context, userID, movieID int) (*model.WatchHistory, error) {
	var h model.WatchHistory
	err := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Upsert 插入或覆盖 watched_at，唯一索引保证每对只有一行
func (r *HistoryRepository) Upsert(ctx context.Context, userID, movieID int, watchedAt time.Time) (*model.WatchHistory, error) {
	h := &model.WatchHistory{
		UserID:    userID,
		MovieID:   movieID,
		WatchedAt: watchedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched_at"}),
	}).Create(h).Error
	if err != nil {
		return nil, err
	}

	// 冲突更新时部分驱动不回填主键，重新读取一次
	return r.FindByUserAndMovie(ctx, userID, movieID)
}

// FindByID 根据 ID 查找
func (r *HistoryRepository) FindByID(ctx context.Context, id int) (*model.WatchHistory, error) {
	var h model.WatchHistory
	err := r.db.WithContext(ctx).First(&h, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByUser 获取用户观影历史
func (r *HistoryRepository) ListByUser(ctx context.Context, userID int) ([]*model.WatchHistory, error) {
	var histories []*model.WatchHistory
	err := r.db.WithContext(ctx).Preload("Movie").
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Find(&histories).Error
	return histories, err
}

// CountByUserAndMovie 统计某对记录数，正常情况下只会是 0 或 1
func (r *HistoryRepository) CountByUserAndMovie(ctx context.Context, userID, movieID int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WatchHistory{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error
	return count, err
}

// Delete 删除观影记录
func (r *HistoryRepository) Delete(ctx context.Context, id int) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.WatchHistory{}, id)
	return res.RowsAffected > 0, res.Error
}
