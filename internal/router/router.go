package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/auth"
	"github.com/yukikurage/lost-and-found-api/internal/config"
	"github.com/yukikurage/lost-and-found-api/internal/constants"
	"github.com/yukikurage/lost-and-found-api/internal/handlers"
	"github.com/yukikurage/lost-and-found-api/internal/middleware"
	"github.com/yukikurage/lost-and-found-api/internal/services"
	"github.com/yukikurage/lost-and-found-api/internal/uploads"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Tokens      *auth.Issuer
	AuthService *services.AuthService
	ItemService *services.ItemService
	Uploads     *uploads.Manager
}

// New builds the gin engine with both the JSON and the form surface mounted.
func New(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config

	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	itemHandler := handlers.NewItemHandler(deps.ItemService, deps.Uploads)
	webHandler := handlers.NewWebHandler(deps.AuthService, deps.ItemService, deps.Uploads)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Lost & Found API is running",
		})
	})
	r.StaticFS(deps.Uploads.URLPrefix(), gin.Dir(deps.Uploads.Root(), false))

	// Token/JSON surface
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/me", middleware.RequireToken(deps.Tokens), authHandler.Me)

	items := r.Group("/items")
	{
		items.GET("", middleware.OptionalToken(deps.Tokens), itemHandler.ListItems)
		items.POST("", middleware.RequireToken(deps.Tokens), itemHandler.CreateItem)
		items.GET("/:id", middleware.RequireToken(deps.Tokens), itemHandler.GetItem)
		items.PUT("/:id", middleware.RequireToken(deps.Tokens), itemHandler.UpdateItem)
		items.DELETE("/:id", middleware.RequireToken(deps.Tokens), itemHandler.DeleteItem)
	}

	// Form/session surface
	web := r.Group("/web")
	web.Use(middleware.OptionalSession(deps.Tokens))
	{
		web.GET("/register", webHandler.RegisterPage)
		web.POST("/register", webHandler.Register)
		web.GET("/login", webHandler.LoginPage)
		web.POST("/login", webHandler.Login)
		web.POST("/logout", webHandler.Logout)
		web.GET("/", webHandler.Index)
		web.GET("/search", webHandler.Index)
		web.GET("/flashes", webHandler.Flashes)

		protected := web.Group("")
		protected.Use(middleware.RequireSession(deps.Tokens))
		{
			protected.GET("/profile", webHandler.Profile)
			protected.GET("/items/new", webHandler.NewItem)
			protected.POST("/items", webHandler.CreateItem)
			protected.POST("/items/:id/status", webHandler.UpdateStatus)
			protected.POST("/items/:id/edit", webHandler.EditItem)
			protected.POST("/items/:id/delete", webHandler.DeleteItem)
		}

		web.GET("/items/:id", webHandler.ShowItem)
	}

	return r, nil
}

// newSessionStore uses Redis when REDIS_HOST is set and signed cookies
// otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.RedisHost == "" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}

	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,    // pool size
		"tcp", // network
		redisAddr,
		"", // username
		"", // password
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("creating redis session store: %w", err)
	}
	return store, nil
}
