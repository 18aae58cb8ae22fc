package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/config"
	"github.com/thehouse/forum/controllers"
	"github.com/thehouse/forum/middleware"
	"github.com/thehouse/forum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file, separate from the app log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.PageViewRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	// Uploaded files; names are generated tokens, never user input.
	r.GET("/up/:filename", func(ctx *gin.Context) {
		path := utils.UploadPath(ctx.Param("filename"))
		if _, err := os.Stat(path); err != nil {
			utils.Error(ctx, http.StatusNotFound, 40450, "file not found")
			return
		}
		if ctx.Query("download") == "true" {
			ctx.FileAttachment(path, ctx.Param("filename"))
			return
		}
		ctx.File(path)
	})

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	categoryController := controllers.NewCategoryController(db)
	threadController := controllers.NewThreadController(db)
	postController := controllers.NewPostController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api")

	api.GET("/", func(ctx *gin.Context) {
		utils.Success(ctx, "It's working!")
	})
	api.GET("/stats", statsController.GetStats)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)

	api.GET("/whoami", middleware.AuthOptional(), authController.Whoami)
	api.POST("/promote", middleware.AuthRequired(), authController.Promote)
	api.GET("/inbox", middleware.AuthRequired(), userController.Inbox)

	usersGroup := api.Group("/users")
	usersGroup.GET("/:username", userController.GetUser)
	usersGroup.PUT("/:username", middleware.AuthRequired(), userController.UpdateUser)
	usersGroup.POST("/:username/toggle-mod", middleware.AuthRequired(), userController.ToggleModerator)
	usersGroup.DELETE("/:username", middleware.AuthRequired(), userController.DeleteUser)

	categoriesGroup := api.Group("/categories")
	categoriesGroup.GET("", categoryController.ListCategories)
	categoriesGroup.GET("/:id", categoryController.GetCategory)
	categoriesGroup.POST("", middleware.AuthRequired(), categoryController.CreateCategory)
	categoriesGroup.PUT("/:id", middleware.AuthRequired(), categoryController.UpdateCategory)
	categoriesGroup.DELETE("/:id", middleware.AuthRequired(), categoryController.DeleteCategory)

	threadsGroup := api.Group("/threads")
	threadsGroup.GET("", threadController.ListThreads)
	threadsGroup.GET("/:id", threadController.GetThread)
	threadsGroup.POST("", middleware.AuthRequired(), threadController.CreateThread)
	threadsGroup.PUT("/:id", middleware.AuthRequired(), threadController.UpdateThread)
	threadsGroup.DELETE("/:id", middleware.AuthRequired(), threadController.DeleteThread)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.POST("", middleware.AuthRequired(), postController.CreatePost)
	postsGroup.PUT("/:id", middleware.AuthRequired(), postController.UpdatePost)
	postsGroup.DELETE("/:id", middleware.AuthRequired(), postController.DeletePost)

	return r
}
