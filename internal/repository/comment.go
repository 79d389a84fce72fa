package repository

import (
	"context"
	"errors"

	"github.com/user/alldrama/internal/model"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create 发表评论
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// UpdateText 修改评论内容
func (r *CommentRepository) UpdateText(ctx context.Context, id int, text string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).Update("comment", text)
	return res.RowsAffected > 0, res.Error
}

// Delete 删除评论
func (r *CommentRepository) Delete(ctx context.Context, id int) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Comment{}, id)
	return res.RowsAffected > 0, res.Error
}

// FindByID 根据 ID 查找评论
func (r *CommentRepository) FindByID(ctx context.Context, id int) (*model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByMovie 影片评论，最新的在前
func (r *CommentRepository) ListByMovie(ctx context.Context, movieID int) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("movie_id = ?", movieID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}
