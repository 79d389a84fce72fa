package repository

import (
	"context"
	"errors"

	"github.com/user/alldrama/internal/model"
	"gorm.io/gorm"
)

type EpisodeRepository struct {
	db *gorm.DB
}

func NewEpisodeRepository(db *gorm.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// Create 创建剧集
func (r *EpisodeRepository) Create(ctx context.Context, ep *model.Episode) error {
	return r.db.WithContext(ctx).Create(ep).Error
}

// Save 保存剧集
func (r *EpisodeRepository) Save(ctx context.Context, ep *model.Episode) error {
	return r.db.WithContext(ctx).Save(ep).Error
}

// Delete 删除剧集
func (r *EpisodeRepository) Delete(ctx context.Context, id int) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Episode{}, id)
	return res.RowsAffected > 0, res.Error
}

// FindByID 根据 ID 查找剧集
func (r *EpisodeRepository) FindByID(ctx context.Context, id int) (*model.Episode, error) {
	var ep model.Episode
	err := r.db.WithContext(ctx).First(&ep, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// ListByMovie 按集数升序
func (r *EpisodeRepository) ListByMovie(ctx context.Context, movieID int) ([]*model.Episode, error) {
	var eps []*model.Episode
	err := r.db.WithContext(ctx).Where("movie_id = ?", movieID).
		Order("episode_number ASC, id ASC").
		Find(&eps).Error
	return eps, err
}
