// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"fileshare/media-api/db"
	"fileshare/media-api/middleware"
	"fileshare/media-api/model"
	"fileshare/media-api/security"
	"fileshare/media-api/service"
	"fileshare/media-api/storage"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Argon  *security.ArgonHash
	Root   *storage.Root
	Thumbs *service.Thumbnailer

	// Signing secret, captured once at startup
	jwtSecret []byte
}

func NewRouter() (*API, error) {
	a := &API{
		Argon:     security.New(),
		Thumbs:    service.NewThumbnailer(viper.GetString("media.thumbnail_cache")),
		jwtSecret: []byte(viper.GetString("jwt.secret")),
	}

	makeLogger()

	d, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}
	a.DB = d

	root, err := storage.NewRoot(viper.GetString("media.root"), viper.GetDuration("media.probe_timeout"))
	if err != nil {
		return nil, fmt.Errorf("failed to open media root, %w", err)
	}
	a.Root = root

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
			ExposeHeaders:    []string{"Content-Length", "Content-Range", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	jwt := middleware.NewJWTMiddleware(d, a.jwtSecret)
	editor := middleware.RequireRole(model.RoleEditor)
	admin := middleware.RequireRole(model.RoleAdmin)
	maxUploadSize := viper.GetInt64("upload.max_size")

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/stats		-> Aggregate stats for one directory
		main.GET("/stats", jwt, a.DirStats)
	}

	auth := main.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/login 	-> Verifies credentials and returns a JWT token
		auth.POST("/login", a.AuthLogin)

		// GET /api/auth/me 		-> Returns the authenticated user
		auth.GET("/me", jwt, a.AuthMe)

		// POST /api/auth/change-password -> Self-service password rotation
		auth.POST("/change-password", jwt, a.AuthChangePassword)

		// GET /api/auth/users 		-> Lists all users
		auth.GET("/users", jwt, admin, a.UserList)

		// POST /api/auth/users 	-> Creates a new user
		auth.POST("/users", jwt, admin, a.UserCreate)

		// DELETE /api/auth/users/:id 	-> Deletes a user
		auth.DELETE("/users/:id", jwt, admin, a.UserDelete)
	}

	files := main.Group("/files", jwt)
	{
		// GET /api/files 		-> Lists one directory of the media root
		files.GET("", a.FileList)

		// GET /api/files/preview	-> Range-aware inline stream (compat=1 transcodes)
		files.GET("/preview", a.FilePreview)

		// GET /api/files/thumbnail	-> Cached image thumbnail
		files.GET("/thumbnail", a.FileThumbnail)

		// GET /api/files/download	-> Full file with attachment disposition
		files.GET("/download", a.FileDownload)

		// GET /api/files/video-info	-> Codec probe + transcode advice
		files.GET("/video-info", cacheFor(30), a.FileVideoInfo)

		// POST /api/files/bulk-download -> Streams selected files as one zip
		files.POST("/bulk-download", middleware.BodySizeLimiter(1<<20), a.FileBulkDownload)

		// POST /api/files/upload	-> Uploads into a directory (editor+)
		files.POST("/upload", editor, middleware.BodySizeLimiter(maxUploadSize), a.FileUpload)

		// DELETE /api/files		-> Deletes a single file (editor+)
		files.DELETE("", editor, a.FileDelete)

		// POST /api/files/bulk-delete	-> Deletes a selection of files (editor+)
		files.POST("/bulk-delete", editor, middleware.BodySizeLimiter(1<<20), a.FileBulkDelete)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
