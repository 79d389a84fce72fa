package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/alldrama/internal/config"
	"github.com/user/alldrama/internal/handler"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBlobs struct {
	deleted  []string
	uploaded []storage.Payload
	bodies   []string
	keys     []string
}

func (f *fakeBlobs) IssueUploadURL(_ context.Context, title, fileName, _ string) (*storage.UploadTicket, error) {
	key, err := storage.ObjectKey(title, fileName)
	if err != nil {
		return nil, err
	}
	return &storage.UploadTicket{Key: key, UploadURL: "https://signed/" + key, FinalURL: "https://cdn/" + key}, nil
}

func (f *fakeBlobs) Upload(_ context.Context, title, fileName string, p storage.Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, p)
	if p.Kind == storage.PayloadInline {
		data, err := io.ReadAll(p.Body)
		if err != nil {
			return "", err
		}
		f.bodies = append(f.bodies, string(data))
	}
	return "https://cdn/" + title + "/" + fileName, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string, isPrefix bool) (int, error) {
	f.deleted = append(f.deleted, fmt.Sprintf("%s|%v", key, isPrefix))
	return 1, nil
}

func (f *fakeBlobs) ListAll(context.Context) ([]string, error) {
	return f.keys, nil
}

func (f *fakeBlobs) ListByFolder(_ context.Context, folder string) ([]string, error) {
	return f.keys, nil
}

type testEnv struct {
	engine *gin.Engine
	repos  *repository.Repositories
	tokens *middleware.Tokens
	blobs  *fakeBlobs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	cfg := &config.Config{
		Env:         "test",
		AppSecret:   "test-secret",
		TokenTTLSec: 3600,
		MaxUpload:   1 << 20,
		Login:       config.LoginConfig{MaxAttempts: 5, Window: time.Minute},
	}
	repos := repository.NewRepositories(db)
	tokens := middleware.NewTokens(cfg.AppSecret, cfg.TokenTTL())
	blobs := &fakeBlobs{keys: []string{"a/1.mp4"}}
	h := handler.NewHandler(cfg, repos, tokens, blobs)
	return &testEnv{engine: New(h), repos: repos, tokens: tokens, blobs: blobs}
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) userToken(t *testing.T, email, role string) (string, *model.User) {
	t.Helper()
	u := &model.User{FullName: "T", Email: email, Role: role}
	require.NoError(t, e.repos.User.Create(context.Background(), u))
	token, err := e.tokens.Issue(u.ID, role)
	require.NoError(t, err)
	return token, u
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register-user", gin.H{
		"full_name": "Alice", "email": "alice@example.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "password")

	w = e.do(http.MethodPost, "/api/auth/register-user", gin.H{
		"full_name": "Again", "email": "alice@example.com", "password": "another",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w).Message)

	w = e.do(http.MethodPost, "/api/auth/login", gin.H{"email": "alice@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))

	claims, err := e.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	jwtCookie := cookieByName(w, middleware.CookieName)
	require.NotNil(t, jwtCookie)
	assert.Equal(t, res.Token, jwtCookie.Value)
	assert.True(t, jwtCookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, jwtCookie.SameSite)
	assert.Equal(t, 3600, jwtCookie.MaxAge)
}

func TestLogin_WrongPasswordSetsNoCookie(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/api/auth/register-user", gin.H{
		"full_name": "Bob", "email": "bob@example.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", gin.H{"email": "bob@example.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookieByName(w, middleware.CookieName))
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/api/auth/register-user", gin.H{"full_name": "X", "email": "not-an-email", "password": "secret1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email must be a valid email", decode(t, w).Message)
}

func TestRegisterAdmin_RequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	body := gin.H{"full_name": "Root", "email": "root@example.com", "password": "secret1"}

	w := e.do(http.MethodPost, "/api/auth/register-admin", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	userToken, _ := e.userToken(t, "u@example.com", model.RoleUser)
	w = e.do(http.MethodPost, "/api/auth/register-admin", body, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, _ := e.userToken(t, "a@example.com", model.RoleAdmin)
	w = e.do(http.MethodPost, "/api/auth/register-admin", body, adminToken)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.userToken(t, "u@example.com", model.RoleUser)

	w := e.do(http.MethodGet, "/api/customers/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	c := cookieByName(w, middleware.CookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)

	w = e.do(http.MethodGet, "/api/customers/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOAuthCheck(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/auth/oauth-check", gin.H{"email": "g@example.com"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotNil(t, cookieByName(w, middleware.CookieName))

	w = e.do(http.MethodPost, "/api/auth/oauth-check", gin.H{"email": "g@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMovieCRUD_AdminOnly(t *testing.T) {
	e := newTestEnv(t)
	userToken, _ := e.userToken(t, "u@example.com", model.RoleUser)
	adminToken, _ := e.userToken(t, "a@example.com", model.RoleAdmin)
	body := gin.H{"title": "Goblin", "genre": "Fantasy", "rating": 8.8}

	w := e.do(http.MethodPost, "/api/movies", body, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/movies", gin.H{"title": "Bad", "rating": 11}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/movies", body, adminToken)
	require.Equal(t, http.StatusCreated, w.Code)
	var movie model.Movie
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &movie))

	w = e.do(http.MethodGet, "/api/movies?genre=Fantasy", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Goblin")

	w = e.do(http.MethodPut, fmt.Sprintf("/api/movies/%d", movie.ID), gin.H{"status": "completed"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/movies/%d", movie.ID), nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", movie.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatchHistoryFlow(t *testing.T) {
	e := newTestEnv(t)
	token, user := e.userToken(t, "u@example.com", model.RoleUser)
	otherToken, _ := e.userToken(t, "o@example.com", model.RoleUser)
	movie := &model.Movie{Title: "M"}
	require.NoError(t, e.repos.Movie.Create(context.Background(), movie))

	w := e.do(http.MethodPost, "/api/user-watch-histories", gin.H{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "movieId is required", decode(t, w).Message)

	var rec model.WatchHistory
	for i := 0; i < 3; i++ {
		w = e.do(http.MethodPost, "/api/user-watch-histories", gin.H{"movieId": movie.ID}, token)
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &rec))
	}

	w = e.do(http.MethodGet, "/api/user-watch-histories", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.WatchHistory
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	assert.Len(t, list, 1)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/user-watch-histories/user/%d", user.ID), nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/user-watch-histories/%d", rec.ID), nil, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodDelete, "/api/user-watch-histories/9999", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/user-watch-histories/%d", rec.ID), nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFavoritesFlow(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.userToken(t, "u@example.com", model.RoleUser)
	movie := &model.Movie{Title: "M"}
	require.NoError(t, e.repos.Movie.Create(context.Background(), movie))

	for i := 0; i < 2; i++ {
		w := e.do(http.MethodPost, "/api/user-favorites", gin.H{"movieId": movie.ID}, token)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := e.do(http.MethodGet, fmt.Sprintf("/api/user-favorites/movie/%d", movie.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isFavorited":true`)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/user-favorites/movie/%d", movie.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/user-favorites", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Favorite
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	assert.Empty(t, list)
}

func TestComments_StripHTMLAndAdminEdit(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.userToken(t, "u@example.com", model.RoleUser)
	adminToken, _ := e.userToken(t, "a@example.com", model.RoleAdmin)
	movie := &model.Movie{Title: "M"}
	require.NoError(t, e.repos.Movie.Create(context.Background(), movie))

	w := e.do(http.MethodPost, "/api/movie-comments", gin.H{"movieId": movie.ID, "comment": "<i>nice</i>"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	var c model.Comment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &c))
	assert.Equal(t, "nice", c.Comment)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/movie-comments/%d", c.ID), gin.H{"comment": "edited"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/movie-comments/%d", c.ID), gin.H{"comment": "edited"}, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/movie-comments/movie/%d", movie.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "edited")
}

func TestAWSRoutes(t *testing.T) {
	e := newTestEnv(t)
	userToken, _ := e.userToken(t, "u@example.com", model.RoleUser)
	adminToken, _ := e.userToken(t, "a@example.com", model.RoleAdmin)

	w := e.do(http.MethodGet, "/api/aws/list", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/aws/list", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a/1.mp4")

	w = e.do(http.MethodPost, "/api/aws/upload-url", gin.H{"title": "Show", "fileName": "ep1.mp4"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/aws/upload-url", gin.H{"title": "../etc", "fileName": "x", "contentType": "video/mp4"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/aws/upload-url", gin.H{"title": "Show", "fileName": "ep1.mp4", "contentType": "video/mp4"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://signed/Show/ep1.mp4")

	w = e.do(http.MethodDelete, "/api/aws/file", gin.H{"fileKey": "Show/", "isPrefix": true}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Folder deleted successfully from S3", decode(t, w).Message)
	assert.Equal(t, []string{"Show/|true"}, e.blobs.deleted)

	w = e.do(http.MethodPost, "/api/aws/upload", gin.H{"title": "Show", "fileName": "poster.jpg", "sourceUrl": "https://img.example.com/p.jpg", "contentType": "image/jpeg"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.blobs.uploaded, 1)
	assert.Equal(t, storage.PayloadReference, e.blobs.uploaded[0].Kind)
}

func TestAWSUpload_Multipart(t *testing.T) {
	e := newTestEnv(t)
	adminToken, _ := e.userToken(t, "a@example.com", model.RoleAdmin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Show"))
	require.NoError(t, mw.WriteField("fileName", "ep1.mp4"))
	require.NoError(t, mw.WriteField("contentType", "video/mp4"))
	fw, err := mw.CreateFormFile("file", "ep1.mp4")
	require.NoError(t, err)
	_, err = fw.Write([]byte("video-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/aws/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn/Show/ep1.mp4")
	require.Len(t, e.blobs.uploaded, 1)
	assert.Equal(t, storage.PayloadInline, e.blobs.uploaded[0].Kind)
	assert.Equal(t, int64(len("video-bytes")), e.blobs.uploaded[0].Size)
	assert.Equal(t, "video/mp4", e.blobs.uploaded[0].ContentType)
	assert.Equal(t, []string{"video-bytes"}, e.blobs.bodies)
}
