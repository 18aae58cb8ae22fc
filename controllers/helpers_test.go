package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thehouse/forum/config"
	"github.com/thehouse/forum/middleware"
	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	uploads, err := os.MkdirTemp("", "forum-uploads-*")
	if err != nil {
		panic(err)
	}
	config.Override(config.AppConfig{
		JWTSecret:        "controller-test-secret",
		EnableAdminKey:   true,
		AdminKey:         "open-sesame",
		UploadsDirectory: uploads,
		LogLevel:         "silent",
		GinMode:          "test",
	})

	code := m.Run()
	_ = os.RemoveAll(uploads)
	os.Exit(code)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Thread{},
		&models.Post{},
		&models.PageView{},
	))
	config.SetDB(db)
	return db
}

// newTestRouter mirrors the production route table without the access log,
// CORS, and page view layers.
func newTestRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()

	auth := NewAuthController(db)
	users := NewUserController(db)
	categories := NewCategoryController(db)
	threads := NewThreadController(db)
	posts := NewPostController(db)
	stats := NewStatsController(db)

	api := r.Group("/api")
	api.GET("/stats", stats.GetStats)
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/logout", middleware.AuthRequired(), auth.Logout)
	api.GET("/whoami", middleware.AuthOptional(), auth.Whoami)
	api.POST("/promote", middleware.AuthRequired(), auth.Promote)
	api.GET("/inbox", middleware.AuthRequired(), users.Inbox)

	api.GET("/users/:username", users.GetUser)
	api.PUT("/users/:username", middleware.AuthRequired(), users.UpdateUser)
	api.POST("/users/:username/toggle-mod", middleware.AuthRequired(), users.ToggleModerator)
	api.DELETE("/users/:username", middleware.AuthRequired(), users.DeleteUser)

	api.GET("/categories", categories.ListCategories)
	api.GET("/categories/:id", categories.GetCategory)
	api.POST("/categories", middleware.AuthRequired(), categories.CreateCategory)
	api.PUT("/categories/:id", middleware.AuthRequired(), categories.UpdateCategory)
	api.DELETE("/categories/:id", middleware.AuthRequired(), categories.DeleteCategory)

	api.GET("/threads", threads.ListThreads)
	api.GET("/threads/:id", threads.GetThread)
	api.POST("/threads", middleware.AuthRequired(), threads.CreateThread)
	api.PUT("/threads/:id", middleware.AuthRequired(), threads.UpdateThread)
	api.DELETE("/threads/:id", middleware.AuthRequired(), threads.DeleteThread)

	api.GET("/posts", posts.ListPosts)
	api.GET("/posts/:id", posts.GetPost)
	api.POST("/posts", middleware.AuthRequired(), posts.CreatePost)
	api.PUT("/posts/:id", middleware.AuthRequired(), posts.UpdatePost)
	api.DELETE("/posts/:id", middleware.AuthRequired(), posts.DeletePost)

	return r
}

// seededHash is shared across seeded users; hashing per user makes the suite
// crawl under bcrypt's default cost.
var seededHash string

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	if seededHash == "" {
		var err error
		seededHash, err = utils.HashPassword("password1")
		require.NoError(t, err)
	}
	user := models.User{
		Username:     username,
		PasswordHash: seededHash,
		Role:         role,
		JoinedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// tokenSeq staggers expiries so two tokens minted for identical claims in
// the same second are never byte-identical; the process-global blacklist
// would otherwise bleed revocations between tests.
var tokenSeq atomic.Int64

func authToken(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, time.Hour+time.Duration(tokenSeq.Add(1))*time.Second)
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return record(t, r, req)
}

func doForm(t *testing.T, r *gin.Engine, method, path, token string, fields map[string]string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return record(t, r, req)
}

func record(t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed), "body: %s", w.Body.String())
	}
	return w, parsed
}

func dataMap(t *testing.T, resp apiResponse) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &m))
	return m
}

func dataSlice(t *testing.T, resp apiResponse) []map[string]interface{} {
	t.Helper()
	var s []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &s))
	return s
}
