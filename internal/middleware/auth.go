package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/utils"
)

const (
	// CookieName 登录令牌 Cookie
	CookieName = "jwt"

	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"

	denylistSize = 100000
)

// ErrTokenRevoked 令牌已注销
var ErrTokenRevoked = errors.New("token revoked")

// Claims JWT 声明
type Claims struct {
	UserID int    `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens 签发、校验、注销 JWT
type Tokens struct {
	secret   []byte
	ttl      time.Duration
	denylist *utils.TTLCache[struct{}]
	now      func() time.Time
}

// NewTokens 创建令牌管理器
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		ttl:      ttl,
		denylist: utils.NewTTLCache[struct{}](denylistSize),
		now:      time.Now,
	}
}

// TTL 令牌有效期
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Denylist 已注销令牌列表，供定时清理
func (t *Tokens) Denylist() *utils.TTLCache[struct{}] {
	return t.denylist
}

// Issue 生成 JWT Token
func (t *Tokens) Issue(userID int, role string) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse 校验签名、有效期以及是否已注销
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.ID != "" {
		if _, revoked := t.denylist.Get(claims.ID); revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke 注销令牌直到其自然过期
func (t *Tokens) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	t.denylist.Set(claims.ID, struct{}{}, claims.ExpiresAt.Time)
}

// shouldRefresh 已经消耗了总有效期的 50% 以上则刷新
func (t *Tokens) shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}
	total := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	return t.now().Sub(claims.IssuedAt.Time) > total/2
}

// SetAuthCookie 写入登录 Cookie
func SetAuthCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearAuthCookie 清除登录 Cookie
func ClearAuthCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}

// RequireAuth 必须登录中间件
func RequireAuth(tokens *Tokens, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)

		// 滑动续期，旧令牌在过期前仍然有效
		if tokens.shouldRefresh(claims) {
			if fresh, err := tokens.Issue(claims.UserID, claims.Role); err == nil {
				SetAuthCookie(c, fresh, tokens.TTL(), secureCookie)
			}
		}

		c.Next()
	}
}

// RequireAdmin 管理员权限中间件，需放在 RequireAuth 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != model.RoleAdmin {
			utils.Forbidden(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractToken 优先取 Authorization Header，其次取 Cookie
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// GetUserID 从上下文获取用户 ID（未登录返回 0）
func GetUserID(c *gin.Context) int {
	if userID, exists := c.Get(ctxUserID); exists {
		return userID.(int)
	}
	return 0
}

// GetRole 从上下文获取角色
func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// GetClaims 当前请求的令牌声明
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ctxClaims); exists {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}
