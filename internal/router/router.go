package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/user/alldrama/internal/handler"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/utils"
)

const sessionName = "alldrama_session"

// New 创建 gin 引擎并挂载全局中间件与路由
func New(h *handler.Handler) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(h.Config.CORSOrigins))

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 设置 Session 中间件
	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(h.Config.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.Config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.MaxMultipartMemory = 32 << 20

	RegisterRoutes(r, h)
	r.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "")
	})
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)

	secure := h.Config.IsProduction()
	auth := middleware.RequireAuth(h.Tokens, secure)
	admin := middleware.RequireAdmin()

	api := r.Group("/api")

	// ==================== 认证 ====================
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register-user", h.RegisterUser)
		authGroup.POST("/register-admin", auth, admin, h.RegisterAdmin)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/oauth-check", h.OAuthCheck)
		authGroup.POST("/logout", auth, h.Logout)
	}

	// ==================== 用户资料 ====================
	customers := api.Group("/customers", auth)
	{
		customers.GET("", admin, h.ListCustomers)
		customers.GET("/profile", h.Profile)
		customers.PUT("/profile", h.UpdateProfile)
		customers.PUT("/change-password", h.ChangePassword)
	}

	// ==================== 影片与剧集 ====================
	movies := api.Group("/movies")
	{
		movies.GET("", h.ListMovies)
		movies.GET("/:id", h.GetMovie)
		movies.POST("", auth, admin, h.CreateMovie)
		movies.PUT("/:id", auth, admin, h.UpdateMovie)
		movies.DELETE("/:id", auth, admin, h.DeleteMovie)
	}

	episodes := api.Group("/episodes")
	{
		episodes.GET("/:id", h.GetEpisode)
		episodes.GET("/movie/:movieId", h.ListEpisodes)
		episodes.POST("", auth, admin, h.CreateEpisode)
		episodes.PUT("/:id", auth, admin, h.UpdateEpisode)
		episodes.DELETE("/:id", auth, admin, h.DeleteEpisode)
	}

	// ==================== 收藏与观看历史 ====================
	favorites := api.Group("/user-favorites", auth)
	{
		favorites.GET("", h.ListFavorites)
		favorites.POST("", h.AddFavorite)
		favorites.GET("/movie/:movieId", h.CheckFavorite)
		favorites.DELETE("/movie/:movieId", h.RemoveFavorite)
	}

	histories := api.Group("/user-watch-histories", auth)
	{
		histories.GET("", h.MyHistory)
		histories.GET("/user/:userId", h.UserHistory)
		histories.POST("", h.RecordHistory)
		histories.DELETE("/:id", h.DeleteHistory)
	}

	// ==================== 评论 ====================
	comments := api.Group("/movie-comments")
	{
		comments.GET("/:id", h.GetComment)
		comments.GET("/movie/:movieId", h.ListComments)
		comments.POST("", auth, h.CreateComment)
		comments.PUT("/:id", auth, admin, h.UpdateComment)
		comments.DELETE("/:id", auth, admin, h.DeleteComment)
	}

	// ==================== 对象存储（管理后台）====================
	aws := api.Group("/aws", auth, admin)
	{
		aws.POST("/upload-url", h.UploadURL)
		aws.POST("/upload", h.Upload)
		aws.DELETE("/file", h.DeleteFile)
		aws.GET("/list", h.ListFiles)
		aws.POST("/list-folder", h.ListFolder)
	}
}
