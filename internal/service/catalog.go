package service

import (
	"context"
	"strings"

	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MovieInput 创建/更新影片，nil 字段在更新时保持原值
type MovieInput struct {
	Title         *string  `json:"title"`
	Genre         *string  `json:"genre"`
	ReleaseYear   *int     `json:"releaseYear" binding:"omitempty,gte=0"`
	TotalEpisodes *int     `json:"totalEpisodes" binding:"omitempty,gte=0"`
	Rating        *float64 `json:"rating" binding:"omitempty,gte=0,lte=10"`
	Summary       *string  `json:"summary"`
	PosterURL     *string  `json:"posterUrl"`
	TrailerURL    *string  `json:"trailerUrl"`
	Status        *string  `json:"status"`
}

// EpisodeInput 创建/更新剧集
type EpisodeInput struct {
	MovieID       *int    `json:"movieId"`
	EpisodeNumber *int    `json:"episodeNumber" binding:"omitempty,gte=0"`
	VideoURL      *string `json:"videoUrl"`
}

// MoviePage 分页结果
type MoviePage struct {
	Items  []*model.Movie `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// CatalogService 影片与剧集
type CatalogService struct {
	movies   *repository.MovieRepository
	episodes *repository.EpisodeRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(movies *repository.MovieRepository, episodes *repository.EpisodeRepository) *CatalogService {
	return &CatalogService{movies: movies, episodes: episodes}
}

// ListMovies 分页查询影片
func (s *CatalogService) ListMovies(ctx context.Context, f repository.MovieFilter) (*MoviePage, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Query = strings.TrimSpace(f.Query)

	items, total, err := s.movies.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &MoviePage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// GetMovie 获取影片
func (s *CatalogService) GetMovie(ctx context.Context, id int) (*model.Movie, error) {
	m, err := s.movies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, utils.NotFoundError("Movie not found")
	}
	return m, nil
}

// CreateMovie 创建影片，title 必填
func (s *CatalogService) CreateMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, utils.ValidationError("title is required")
	}
	m := &model.Movie{}
	applyMovieInput(m, in)
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMovie 部分更新
func (s *CatalogService) UpdateMovie(ctx context.Context, id int, in MovieInput) (*model.Movie, error) {
	m, err := s.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, utils.ValidationError("title must not be empty")
	}
	applyMovieInput(m, in)
	if err := s.movies.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMovie 删除影片记录，对象存储里的文件需要调用方另行删除
func (s *CatalogService) DeleteMovie(ctx context.Context, id int) error {
	deleted, err := s.movies.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return utils.NotFoundError("Movie not found")
	}
	return nil
}

func applyMovieInput(m *model.Movie, in MovieInput) {
	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Genre != nil {
		m.Genre = strings.TrimSpace(*in.Genre)
	}
	if in.ReleaseYear != nil {
		m.ReleaseYear = *in.ReleaseYear
	}
	if in.TotalEpisodes != nil {
		m.TotalEpisodes = *in.TotalEpisodes
	}
	if in.Rating != nil {
		m.Rating = *in.Rating
	}
	if in.Summary != nil {
		m.Summary = *in.Summary
	}
	if in.PosterURL != nil {
		m.PosterURL = *in.PosterURL
	}
	if in.TrailerURL != nil {
		m.TrailerURL = *in.TrailerURL
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
}

// GetEpisode 获取剧集
func (s *CatalogService) GetEpisode(ctx context.Context, id int) (*model.Episode, error) {
	ep, err := s.episodes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, utils.NotFoundError("Episode not found")
	}
	return ep, nil
}

// ListEpisodes 影片的全部剧集
func (s *CatalogService) ListEpisodes(ctx context.Context, movieID int) ([]*model.Episode, error) {
	return s.episodes.ListByMovie(ctx, movieID)
}

// CreateEpisode 创建剧集，影片必须存在
func (s *CatalogService) CreateEpisode(ctx context.Context, in EpisodeInput) (*model.Episode, error) {
	if in.MovieID == nil || *in.MovieID <= 0 {
		return nil, utils.ValidationError("movieId is required")
	}
	if in.EpisodeNumber == nil {
		return nil, utils.ValidationError("episodeNumber is required")
	}
	if _, err := s.GetMovie(ctx, *in.MovieID); err != nil {
		return nil, err
	}

	ep := &model.Episode{MovieID: *in.MovieID, EpisodeNumber: *in.EpisodeNumber}
	if in.VideoURL != nil {
		ep.VideoURL = *in.VideoURL
	}
	if err := s.episodes.Create(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// UpdateEpisode 部分更新剧集
func (s *CatalogService) UpdateEpisode(ctx context.Context, id int, in EpisodeInput) (*model.Episode, error) {
	ep, err := s.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.MovieID != nil && *in.MovieID != ep.MovieID {
		if _, err := s.GetMovie(ctx, *in.MovieID); err != nil {
			return nil, err
		}
		ep.MovieID = *in.MovieID
	}
	if in.EpisodeNumber != nil {
		ep.EpisodeNumber = *in.EpisodeNumber
	}
	if in.VideoURL != nil {
		ep.VideoURL = *in.VideoURL
	}
	if err := s.episodes.Save(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// DeleteEpisode 删除剧集
func (s *CatalogService) DeleteEpisode(ctx context.Context, id int) error {
	deleted, err := s.episodes.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return utils.NotFoundError("Episode not found")
	}
	return nil
}
