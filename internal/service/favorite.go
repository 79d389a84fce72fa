package service

import (
	"context"

	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/utils"
)

// FavoriteService 收藏
type FavoriteService struct {
	favorites *repository.FavoriteRepository
	movies    *repository.MovieRepository
}

// NewFavoriteService 创建收藏服务
func NewFavoriteService(favorites *repository.FavoriteRepository, movies *repository.MovieRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites, movies: movies}
}

// Add 收藏，重复收藏不报错
func (s *FavoriteService) Add(ctx context.Context, userID, movieID int) error {
	if movieID <= 0 {
		return utils.ValidationError("movieId is required")
	}
	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return err
	}
	if !exists {
		return utils.NotFoundError("Movie not found")
	}
	return s.favorites.Add(ctx, userID, movieID)
}

// Remove 按 (user, movie) 取消收藏，未收藏时也视为成功
func (s *FavoriteService) Remove(ctx context.Context, userID, movieID int) error {
	if movieID <= 0 {
		return utils.ValidationError("movieId is required")
	}
	_, err := s.favorites.Remove(ctx, userID, movieID)
	return err
}

// ListByUser 用户收藏列表
func (s *FavoriteService) ListByUser(ctx context.Context, userID int) ([]*model.Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}

// IsFavorited 是否已收藏
func (s *FavoriteService) IsFavorited(ctx context.Context, userID, movieID int) (bool, error) {
	return s.favorites.IsFavorited(ctx, userID, movieID)
}
