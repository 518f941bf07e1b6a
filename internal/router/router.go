// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/handlers"
	"github.com/prodcare/prodcare-backend/internal/middleware"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/services"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

const version = "1.0.0"

// Services groups the service layer so the CLI and the router share one set.
type Services struct {
	Auth          *services.AuthService
	Authorization *services.AuthorizationService
	Situation     *services.SituationService
	Tree          *services.TreeService
	Component     *services.ComponentService
	Issue         *services.IssueService
	Product       *services.ProductService
}

func NewServices(store repository.Store, cfg *config.Config) *Services {
	situationService := services.NewSituationService(store, cfg.Situation)
	treeService := services.NewTreeService(store)

	return &Services{
		Auth:          services.NewAuthService(store, cfg.JWT),
		Authorization: services.NewAuthorizationService(store),
		Situation:     situationService,
		Tree:          treeService,
		Component:     services.NewComponentService(store, situationService, treeService, cfg.Situation.MaxComponentLevel),
		Issue:         services.NewIssueService(store, situationService, treeService),
		Product:       services.NewProductService(store),
	}
}

// Initialize builds the engine. A non-nil limiter is installed as the global
// rate limit; the caller owns its cleanup loop.
func Initialize(svc *Services, cfg *config.Config, limiter *middleware.RateLimiter) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	componentHandler := handlers.NewComponentHandler(svc.Component, svc.Tree)
	issueHandler := handlers.NewIssueHandler(svc.Issue, svc.Situation)
	productHandler := handlers.NewProductHandler(svc.Product)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})

	requireAuth := middleware.AuthRequired(svc.Auth)
	canWrite := middleware.WriteAccessRequired(svc.Authorization)
	adminOnly := middleware.AdminRequired()

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/token", authHandler.IssueToken)
			auth.GET("/me", requireAuth, authHandler.GetAccount)
		}

		component := v1.Group("/component")
		component.Use(requireAuth)
		{
			component.POST("/create", canWrite, componentHandler.CreateComponent)
			component.PUT("/update", canWrite, componentHandler.UpdateComponent)
			component.DELETE("/delete", adminOnly, componentHandler.DeleteComponents)
			component.GET("/find", componentHandler.FindComponents)
			component.GET("/detail/:id", componentHandler.GetComponentDetail)
			component.GET("/children/:id", componentHandler.GetChildren)
		}

		issue := v1.Group("/issue")
		issue.Use(requireAuth)
		{
			issue.POST("/create", canWrite, issueHandler.CreateIssue)
			issue.PUT("/update", canWrite, issueHandler.UpdateIssue)
			issue.DELETE("/delete", adminOnly, issueHandler.DeleteIssues)
			issue.GET("/find", issueHandler.FindIssues)
			issue.GET("/detail/:issueId", issueHandler.GetIssueDetail)
			issue.GET("/reasons", issueHandler.ListReasons)
			issue.PUT("/situation", canWrite, issueHandler.ReconcileSituation)
		}

		product := v1.Group("/product")
		product.Use(requireAuth)
		{
			product.POST("/serial", canWrite, componentHandler.CascadeSerial)
			product.POST("/create", canWrite, productHandler.CreateProduct)
			product.PUT("/update", canWrite, productHandler.UpdateProduct)
			product.DELETE("/delete", adminOnly, productHandler.DeleteProducts)
			product.GET("/find", productHandler.FindProducts)
			product.GET("/tree", productHandler.GetProductTree)
			product.GET("/detail/:id", productHandler.GetProductDetail)
		}
	}

	return r
}

// NewRateLimiter returns nil when rate limiting is disabled.
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	return middleware.NewRateLimiter(rate.Limit(cfg.RPS), cfg.Burst)
}
