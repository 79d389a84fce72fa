package service

import (
	"context"

	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/utils"
)

const (
	maxCommentLength   = 2000
	msgCommentNotFound = "Comment not found"
)

// CommentService 影片评论
type CommentService struct {
	comments *repository.CommentRepository
	movies   *repository.MovieRepository
}

// NewCommentService 创建评论服务
func NewCommentService(comments *repository.CommentRepository, movies *repository.MovieRepository) *CommentService {
	return &CommentService{comments: comments, movies: movies}
}

// Get 按 ID 获取评论
func (s *CommentService) Get(ctx context.Context, id int) (*model.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, utils.NotFoundError(msgCommentNotFound)
	}
	return c, nil
}

// ListByMovie 影片评论
func (s *CommentService) ListByMovie(ctx context.Context, movieID int) ([]*model.Comment, error) {
	return s.comments.ListByMovie(ctx, movieID)
}

// Create 发表评论，内容去除 HTML 后不能为空
func (s *CommentService) Create(ctx context.Context, userID, movieID int, text string) (*model.Comment, error) {
	if movieID <= 0 {
		return nil, utils.ValidationError("movieId is required")
	}
	text, err := cleanComment(text)
	if err != nil {
		return nil, err
	}
	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, utils.NotFoundError("Movie not found")
	}

	c := &model.Comment{MovieID: movieID, UserID: userID, Comment: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update 修改评论内容
func (s *CommentService) Update(ctx context.Context, id int, text string) (*model.Comment, error) {
	text, err := cleanComment(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.comments.UpdateText(ctx, id, text); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete 删除评论
func (s *CommentService) Delete(ctx context.Context, id int) error {
	deleted, err := s.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return utils.NotFoundError(msgCommentNotFound)
	}
	return nil
}

func cleanComment(text string) (string, error) {
	text = utils.StripHTML(text)
	if text == "" {
		return "", utils.ValidationError("comment is required")
	}
	if len([]rune(text)) > maxCommentLength {
		return "", utils.ValidationError("comment is too long")
	}
	return text, nil
}
