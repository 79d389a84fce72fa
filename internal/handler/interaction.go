package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/utils"
)

type favoriteRequest struct {
	MovieID int `json:"movieId"`
}

type historyRequest struct {
	MovieID   int        `json:"movieId"`
	WatchedAt *time.Time `json:"watchedAt"`
}

// ListFavorites 当前用户的收藏
func (h *Handler) ListFavorites(c *gin.Context) {
	list, err := h.Favorites.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, list)
}

// AddFavorite 收藏影片，重复收藏返回成功
func (h *Handler) AddFavorite(c *gin.Context) {
	var req favoriteRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Favorites.Add(c.Request.Context(), middleware.GetUserID(c), req.MovieID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Added to favorites", gin.H{"movieId": req.MovieID, "isFavorited": true})
}

// CheckFavorite 是否已收藏
func (h *Handler) CheckFavorite(c *gin.Context) {
	movieID, ok := paramID(c, "movieId")
	if !ok {
		return
	}
	favorited, err := h.Favorites.IsFavorited(c.Request.Context(), middleware.GetUserID(c), movieID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"movieId": movieID, "isFavorited": favorited})
}

// RemoveFavorite 取消收藏
func (h *Handler) RemoveFavorite(c *gin.Context) {
	movieID, ok := paramID(c, "movieId")
	if !ok {
		return
	}
	if err := h.Favorites.Remove(c.Request.Context(), middleware.GetUserID(c), movieID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Removed from favorites", gin.H{"movieId": movieID, "isFavorited": false})
}

// MyHistory 当前用户观看历史
func (h *Handler) MyHistory(c *gin.Context) {
	list, err := h.History.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, list)
}

// UserHistory 指定用户的观看历史，本人或管理员可查看
func (h *Handler) UserHistory(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	list, err := h.History.ListForUser(c.Request.Context(), actor(c), userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, list)
}

// RecordHistory 记录观看，同一影片只保留最近一次
func (h *Handler) RecordHistory(c *gin.Context) {
	var req historyRequest
	if !bind(c, &req) {
		return
	}
	record, created, err := h.History.Upsert(c.Request.Context(), middleware.GetUserID(c), req.MovieID, req.WatchedAt)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	msg := "Watch history updated"
	if created {
		msg = "Watch history created"
	}
	utils.Created(c, msg, record)
}

// DeleteHistory 删除观看记录
func (h *Handler) DeleteHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.History.Delete(c.Request.Context(), actor(c), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "UserWatchHistory deleted successfully", nil)
}
