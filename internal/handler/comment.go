package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/utils"
)

type commentRequest struct {
	MovieID int    `json:"movieId" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

type commentUpdateRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// GetComment 评论详情
func (h *Handler) GetComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comment, err := h.Comments.Get(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, comment)
}

// ListComments 影片评论
func (h *Handler) ListComments(c *gin.Context) {
	movieID, ok := paramID(c, "movieId")
	if !ok {
		return
	}
	list, err := h.Comments.ListByMovie(c.Request.Context(), movieID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, list)
}

// CreateComment 发表评论
func (h *Handler) CreateComment(c *gin.Context) {
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.Comments.Create(c.Request.Context(), middleware.GetUserID(c), req.MovieID, req.Comment)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Comment created", comment)
}

// UpdateComment 管理员修改评论
func (h *Handler) UpdateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentUpdateRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.Comments.Update(c.Request.Context(), id, req.Comment)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Comment updated", comment)
}

// DeleteComment 管理员删除评论
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Comments.Delete(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Comment deleted", nil)
}
