package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ridehail/backend/internal/model"
	"github.com/ridehail/backend/internal/service"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Auth           *service.AuthService
	Health         *HealthHandler
	Gatherer       prometheus.Gatherer
	Logger         zerolog.Logger
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(deps.Logger), CORSMiddleware(deps.AllowedOrigins, true))

	r.GET("/", Root)
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)
	if deps.Health != nil {
		r.GET("/healthz", deps.Health.Healthz)
	}
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := NewAuthHandler(deps.Auth)

	users := r.Group("/users")
	users.POST("/register", h.RegisterUser)
	users.POST("/login", h.LoginUser)
	users.GET("/profile", AuthMiddleware(deps.Auth, model.RoleUser), h.UserProfile)
	users.GET("/logout", AuthMiddleware(deps.Auth, model.RoleUser), h.UserLogout)

	captains := r.Group("/captains")
	captains.POST("/register", h.RegisterCaptain)
	captains.POST("/login", h.LoginCaptain)
	captains.GET("/profile", AuthMiddleware(deps.Auth, model.RoleCaptain), h.CaptainProfile)
	captains.GET("/logout", AuthMiddleware(deps.Auth, model.RoleCaptain), h.CaptainLogout)

	return r
}
