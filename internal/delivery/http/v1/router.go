package v1

import (
	"go-form-relay/config"
	"go-form-relay/internal/delivery/http/middleware"
	"go-form-relay/internal/domain"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	FormUC   domain.FormUsecase
	HealthUC domain.HealthUsecase
	Config   *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.ErrorHandler())

	// One bucket per client across every form route
	formLimit := middleware.RateLimitMiddleware(middleware.FormRateLimitConfig(cfg.RateLimitFormThreshold, cfg.RateLimitWindow()))

	// Paths the existing site already posts to
	legacy := r.Group("/api/contact-form")

	v1 := r.Group("/v1")
	forms := v1.Group("/forms")

	NewHealthHandler(v1, deps.HealthUC)
	NewContactHandler(legacy, forms, deps.FormUC, formLimit)
	NewCareerHandler(legacy, forms, deps.FormUC, cfg.MaxResumeBytes, formLimit)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
