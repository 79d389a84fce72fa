package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/user/alldrama/internal/model"
	"gorm.io/gorm"
)

// MovieFilter 影片列表筛选
type MovieFilter struct {
	Query  string
	Genre  string
	Status string
	Limit  int
	Offset int
}

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Create 创建影片
func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	return r.db.WithContext(ctx).Create(movie).Error
}

// Save 保存全部字段
func (r *MovieRepository) Save(ctx context.Context, movie *model.Movie) error {
	return r.db.WithContext(ctx).Save(movie).Error
}

// Delete 删除影片，剧集/收藏/历史/评论由外键级联删除
func (r *MovieRepository) Delete(ctx context.Context, id int) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Movie{}, id)
	return res.RowsAffected > 0, res.Error
}

// FindByID 根据 ID 查找影片
func (r *MovieRepository) FindByID(ctx context.Context, id int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// Exists 影片是否存在
func (r *MovieRepository) Exists(ctx context.Context, id int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Movie{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List 按条件分页查询，最新的在前
func (r *MovieRepository) List(ctx context.Context, f MovieFilter) ([]*model.Movie, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Movie{})
	if f.Query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}
	if f.Genre != "" {
		q = q.Where("genre = ?", f.Genre)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	// 复用过滤条件需要新会话，否则 Count 会污染后续查询
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []*model.Movie
	err := q.Order("id DESC").Limit(f.Limit).Offset(f.Offset).Find(&movies).Error
	return movies, total, err
}

// IncrementViews 浏览量 +1
func (r *MovieRepository) IncrementViews(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Model(&model.Movie{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}
