package handler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/alldrama/internal/config"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/service"
	"github.com/user/alldrama/internal/storage"
	"github.com/user/alldrama/internal/utils"
)

const sessionUserKey = "userinfo"

// BlobStore 对象存储操作，*storage.Gateway 实现了它
type BlobStore interface {
	IssueUploadURL(ctx context.Context, title, fileName, contentType string) (*storage.UploadTicket, error)
	Upload(ctx context.Context, title, fileName string, p storage.Payload) (string, error)
	Delete(ctx context.Context, key string, isPrefix bool) (int, error)
	ListAll(ctx context.Context) ([]string, error)
	ListByFolder(ctx context.Context, folder string) ([]string, error)
}

// Handler HTTP 处理器
type Handler struct {
	Config    *config.Config
	Tokens    *middleware.Tokens
	Blobs     BlobStore
	Auth      *service.AuthService
	Customers *service.CustomerService
	Catalog   *service.CatalogService
	Comments  *service.CommentService
	Favorites *service.FavoriteService
	History   *service.HistoryService
}

// NewHandler 创建处理器，blobs 为 nil 时 /aws 接口返回错误
func NewHandler(cfg *config.Config, repos *repository.Repositories, tokens *middleware.Tokens, blobs BlobStore) *Handler {
	attempts := utils.NewAttemptLimiter(cfg.Login.MaxAttempts, cfg.Login.Window)
	return &Handler{
		Config:    cfg,
		Tokens:    tokens,
		Blobs:     blobs,
		Auth:      service.NewAuthService(repos.User, tokens, attempts),
		Customers: service.NewCustomerService(repos.User),
		Catalog:   service.NewCatalogService(repos.Movie, repos.Episode),
		Comments:  service.NewCommentService(repos.Comment, repos.Movie),
		Favorites: service.NewFavoriteService(repos.Favorite, repos.Movie),
		History:   service.NewHistoryService(repos.History, repos.Movie),
	}
}

var registerOnce sync.Once

// RegisterValidators 注册自定义校验规则，字段名使用 json tag
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("blobname", validateBlobName)
	})
}

// validateBlobName 对象键片段：不含控制字符、反斜杠、. 或 .. 段
func validateBlobName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.ContainsRune(s, '\\') {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// bind 绑定请求体，失败时直接写 400
func bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		utils.BadRequest(c, bindMessage(err))
		return false
	}
	return true
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return fe.Field() + " must be a valid email"
		case "min", "gte":
			return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max", "lte":
			return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		default:
			return fe.Field() + " is invalid"
		}
	}
	return "Invalid request body"
}

// paramID 解析路径中的正整数 ID
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}

// saveSessionUser 会话里保存展示用的用户信息
func saveSessionUser(c *gin.Context, user *model.User) {
	session := sessions.Default(c)
	session.Set(sessionUserKey, model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	})
	_ = session.Save()
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	utils.Success(c, gin.H{"status": "ok"})
}
