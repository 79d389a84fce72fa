package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/service"
	"github.com/user/alldrama/internal/utils"
)

type registerRequest struct {
	FullName string `json:"full_name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

type oauthRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RegisterUser 注册普通用户
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Auth.RegisterUser(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "User registered successfully", user)
}

// RegisterAdmin 注册管理员（仅管理员可调用）
func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Auth.RegisterAdmin(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Admin registered successfully", user)
}

// Login 登录，令牌同时写入 Cookie 和响应体
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	h.startSession(c, res)
	utils.SuccessWithMessage(c, "Login successful", res)
}

// OAuthCheck 第三方登录回调后调用，不存在的邮箱会自动开通
func (h *Handler) OAuthCheck(c *gin.Context) {
	var req oauthRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Auth.OAuthCheck(c.Request.Context(), req.Email)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	h.startSession(c, res)
	if res.Created {
		utils.Created(c, "User created and logged in", res)
		return
	}
	utils.SuccessWithMessage(c, "Login successful", res)
}

// Logout 注销当前令牌并清理 Cookie、Session
func (h *Handler) Logout(c *gin.Context) {
	h.Tokens.Revoke(middleware.GetClaims(c))
	middleware.ClearAuthCookie(c, h.Config.IsProduction())

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	utils.SuccessWithMessage(c, "Logout successful", nil)
}

func (h *Handler) startSession(c *gin.Context, res *service.LoginResult) {
	middleware.SetAuthCookie(c, res.Token, h.Tokens.TTL(), h.Config.IsProduction())
	saveSessionUser(c, res.User)
}
