package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/alldrama/internal/logger"
	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/utils"
)

const msgHistoryNotFound = "UserWatchHistory not found"

// HistoryService 观看历史
type HistoryService struct {
	history *repository.HistoryRepository
	movies  *repository.MovieRepository
	log     *logrus.Entry
	now     func() time.Time
}

// NewHistoryService 创建观看历史服务
func NewHistoryService(history *repository.HistoryRepository, movies *repository.MovieRepository) *HistoryService {
	return &HistoryService{
		history: history,
		movies:  movies,
		log:     logger.Component("history"),
		now:     time.Now,
	}
}

// Upsert 记录观看：同一 (user, movie) 只保留一行，watched_at 取最后一次调用的值。
// 首次观看时影片浏览量 +1。先查后写之间没有加锁，并发的首次观看可能重复计数。
func (s *HistoryService) Upsert(ctx context.Context, userID, movieID int, watchedAt *time.Time) (*model.WatchHistory, bool, error) {
	if movieID <= 0 {
		return nil, false, utils.ValidationError("movieId is required")
	}
	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, utils.NotFoundError("Movie not found")
	}

	at := s.now()
	if watchedAt != nil && !watchedAt.IsZero() {
		at = *watchedAt
	}

	prev, err := s.history.FindByUserAndMovie(ctx, userID, movieID)
	if err != nil {
		return nil, false, err
	}

	record, err := s.history.Upsert(ctx, userID, movieID, at)
	if err != nil {
		return nil, false, err
	}

	created := prev == nil
	if created {
		if err := s.movies.IncrementViews(ctx, movieID); err != nil {
			s.log.WithError(err).WithField("movie_id", movieID).Warn("浏览量更新失败")
		}
	}
	return record, created, nil
}

// ListByUser 用户观看历史，最近的在前
func (s *HistoryService) ListByUser(ctx context.Context, userID int) ([]*model.WatchHistory, error) {
	return s.history.ListByUser(ctx, userID)
}

// ListForUser 查看指定用户的观看历史，只允许本人或管理员
func (s *HistoryService) ListForUser(ctx context.Context, actor Actor, userID int) ([]*model.WatchHistory, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, utils.ForbiddenError("Access denied. You can only view your own watch history.")
	}
	return s.history.ListByUser(ctx, userID)
}

// Get 按 ID 获取
func (s *HistoryService) Get(ctx context.Context, id int) (*model.WatchHistory, error) {
	h, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, utils.NotFoundError(msgHistoryNotFound)
	}
	return h, nil
}

// Delete 删除记录，非管理员只能删除自己的记录，否则按不存在处理
func (s *HistoryService) Delete(ctx context.Context, actor Actor, id int) error {
	h, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if h.UserID != actor.UserID && !actor.IsAdmin() {
		return utils.NotFoundError(msgHistoryNotFound)
	}

	deleted, err := s.history.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return utils.NotFoundError(msgHistoryNotFound)
	}
	return nil
}
