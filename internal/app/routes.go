package app

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/modules/access"
	"github.com/tidesail/core/internal/modules/auth"
	"github.com/tidesail/core/internal/modules/catalog/attribute"
	"github.com/tidesail/core/internal/modules/catalog/designer"
	makemod "github.com/tidesail/core/internal/modules/catalog/make"
	"github.com/tidesail/core/internal/modules/catalog/sailboat"
	"github.com/tidesail/core/internal/modules/logbook"
	"github.com/tidesail/core/internal/modules/media"
	"github.com/tidesail/core/internal/modules/moderation"
	"github.com/tidesail/core/internal/modules/note"
	"github.com/tidesail/core/internal/modules/vessel"
	pkgredis "github.com/tidesail/core/internal/pkg/redis"
	"github.com/tidesail/core/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)
	optionalMW := middleware.OptionalAuth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "tidesail-core",
		"version": "1.0.0",
	}

	api := r.Group("/api/v1")
	// Resolve the user first so the rate limiter can exempt
	// authenticated requests.
	api.Use(optionalMW)
	api.Use(middleware.RateLimit(rc.Raw()))

	api.GET("", func(c *gin.Context) {
		response.OK(c, appInfo)
	})
	api.GET("/ping", func(c *gin.Context) {
		response.OK(c, gin.H{"message": "pong"})
	})
	api.GET("/add", func(c *gin.Context) {
		x, errX := strconv.Atoi(c.DefaultQuery("a", "0"))
		y, errY := strconv.Atoi(c.DefaultQuery("b", "0"))
		if errX != nil || errY != nil {
			response.BadRequest(c, "a and b must be integers")
			return
		}
		response.OK(c, gin.H{"result": x + y})
	})

	// Services
	accessSvc := access.NewService(db, rc)
	attrSvc := attribute.NewService(db)
	sailboatSvc := sailboat.NewService(db, a.logger)
	vesselSvc := vessel.NewService(db, attrSvc, accessSvc, a.logger)

	// Auth
	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)

	// Catalog
	makemod.NewHandler(makemod.NewService(db)).RegisterRoutes(api, authMW)
	designer.NewHandler(designer.NewService(db)).RegisterRoutes(api, authMW)
	attribute.NewHandler(attrSvc).RegisterRoutes(api, authMW)
	sailboat.NewHandler(sailboatSvc).RegisterRoutes(api, authMW)

	// Vessels and access control
	vessel.NewHandler(vesselSvc).RegisterRoutes(api, authMW)
	access.NewHandler(accessSvc).RegisterRoutes(api, authMW)

	// Notes and logbook
	note.NewHandler(note.NewService(db)).RegisterRoutes(api, authMW)
	logbook.NewHandler(logbook.NewService(db, accessSvc)).RegisterRoutes(api, authMW)

	// Media routes need the object store; they are absent when no bucket
	// is configured.
	if a.store != nil {
		media.NewHandler(media.NewService(db, a.store, a.logger)).RegisterRoutes(api, authMW)
	}

	// Moderation queue
	moderation.NewHandler(moderation.NewService(db)).RegisterRoutes(api, authMW)
}
