package http

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/dkovalev/novelshelf/internal/auth"
	"github.com/dkovalev/novelshelf/internal/database"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	CatalogStore CatalogStore
	ListStore    ReadingListStore
	EntryGetter  EntryGetter

	// Authentication
	AuthService    *auth.Service
	AuthController *auth.Controller
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// UI
	TemplatesPath string
	StaticPath    string
	RecentLimit   int

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before the session middleware so the session
	// context is layered on top of the CSRF-annotated request.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	router.Use(cfg.SessionManager.LoadSave())
	router.Use(cfg.AuthMiddleware.ResolveUser())

	funcMap := template.FuncMap{
		"seq": func(n int) []int {
			s := make([]int, n)
			for i := range s {
				s[i] = i + 1
			}
			return s
		},
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	router.Static("/static", cfg.StaticPath)

	requireAuth := cfg.AuthMiddleware.RequireAuth()
	anonymousOnly := cfg.AuthMiddleware.RequireAnonymous()

	cfg.AuthController.RegisterRoutes(router, anonymousOnly, requireAuth)

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog pages
	catalogController := NewCatalogController(cfg.CatalogStore, cfg.EntryGetter, cfg.SessionManager, cfg.RecentLimit)
	router.GET("/", catalogController.HomePage)
	router.GET("/search", catalogController.SearchPage)
	router.GET("/novel/:id", catalogController.NovelPage)

	// Reading-list pages and forms
	listController := NewReadingListController(cfg.ListStore, cfg.CatalogStore, cfg.SessionManager)
	router.GET("/mylist", requireAuth, listController.MyListPage)
	router.POST("/add_to_list/:id", requireAuth, listController.AddToList)
	router.POST("/remove_from_list/:id", requireAuth, listController.RemoveFromList)

	return router
}
