package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/utils"
)

type profileRequest struct {
	FullName string `json:"full_name" binding:"omitempty,max=255"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Profile 当前用户资料
func (h *Handler) Profile(c *gin.Context) {
	user, err := h.Customers.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, user)
}

// UpdateProfile 修改姓名或邮箱
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Customers.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req.FullName, req.Email)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	// 同步更新 Session 中的用户信息
	saveSessionUser(c, user)
	utils.SuccessWithMessage(c, "Profile updated", user)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	err := h.Customers.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "Password updated", nil)
}

// ListCustomers 管理员查看用户列表
func (h *Handler) ListCustomers(c *gin.Context) {
	users, err := h.Customers.ListUsers(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, users)
}
