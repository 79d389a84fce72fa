package repository

import (
	"context"
	"time"

	"github.com/user/alldrama/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add 添加收藏，重复添加依赖唯一索引静默忽略
func (r *FavoriteRepository) Add(ctx context.Context, userID, movieID int) error {
	favorite := &model.Favorite{
		UserID:      userID,
		MovieID:     movieID,
		FavoritedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoNothing: true,
	}).Create(favorite).Error
}

// Remove 取消收藏
func (r *FavoriteRepository) Remove(ctx context.Context, userID, movieID int) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// IsFavorited 检查是否已收藏
func (r *FavoriteRepository) IsFavorited(ctx context.Context, userID, movieID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).Where("user_id = ? AND movie_id = ?", userID, movieID).Count(&count).Error
	return count > 0, err
}

// ListByUser 获取用户收藏列表
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int) ([]*model.Favorite, error) {
	var favorites []*model.Favorite
	err := r.db.WithContext(ctx).Preload("Movie").
		Where("user_id = ?", userID).
		Order("favorited_at DESC, id DESC").
		Find(&favorites).Error
	return favorites, err
}

// CountByUser 统计用户收藏数量
func (r *FavoriteRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}
