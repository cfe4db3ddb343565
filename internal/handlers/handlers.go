package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"creatorstribe/internal/config"
	"creatorstribe/internal/creators"
	"creatorstribe/internal/middleware"
	"creatorstribe/internal/models"
	"creatorstribe/internal/service"
	"creatorstribe/internal/tablestore"
)

type AuthService interface {
	middleware.Authenticator
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, input service.VerifyInput) (service.AuthResult, error)
	Register(ctx context.Context, input service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (service.AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type CreatorStore interface {
	List(ctx context.Context, filter creators.Filter) (creators.ListResult, error)
	Get(ctx context.Context, uid, id string) (models.Creator, bool, error)
	Create(ctx context.Context, form models.CreatorForm) (tablestore.Key, error)
	Update(ctx context.Context, creator models.Creator) error
	Delete(ctx context.Context, uid, id string) error
}

type StatsProvider interface {
	Get(ctx context.Context) (creators.Stats, error)
	Invalidate(ctx context.Context)
}

type Uploader interface {
	Upload(ctx context.Context, input service.UploadInput) (service.UploadResult, error)
}

type MediaLister interface {
	List(ctx context.Context, limit, offset int) ([]models.Media, error)
	GetByID(ctx context.Context, id string) (models.Media, error)
}

type InquirySubmitter interface {
	Submit(ctx context.Context, in service.Inquiry) error
}

// HealthCheck is a named dependency check reported by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Dependencies struct {
	Auth     AuthService
	Creators CreatorStore
	Stats    StatsProvider
	Uploads  Uploader
	Media    MediaLister
	Contact  InquirySubmitter
	Checks   []HealthCheck
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     AuthService
	creators CreatorStore
	stats    StatsProvider
	uploads  Uploader
	media    MediaLister
	contact  InquirySubmitter
	checks   []HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     deps.Auth,
		creators: deps.Creators,
		stats:    deps.Stats,
		uploads:  deps.Uploads,
		media:    deps.Media,
		contact:  deps.Contact,
		checks:   deps.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/otp", h.RequestOTP)
		auth.POST("/otp/verify", h.VerifyOTP)
		auth.POST("/register", h.RegisterAdmin)
		auth.POST("/login", h.Login)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.auth))
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}

	v1.GET("/creators", h.PublicListCreators)
	v1.GET("/creators/:uid/:id", h.PublicGetCreator)
	v1.POST("/contact", h.SubmitInquiry)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.auth),
		middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleSuperAdmin),
	)
	admin.GET("/creators", h.AdminListCreators)
	admin.POST("/creators", h.AdminCreateCreator)
	admin.GET("/creators/:uid/:id", h.AdminGetCreator)
	admin.PUT("/creators/:uid/:id", h.AdminUpdateCreator)
	admin.DELETE("/creators/:uid/:id", h.AdminDeleteCreator)
	admin.GET("/stats", h.AdminStats)
	admin.POST("/media", h.UploadMedia)
	admin.GET("/media", h.AdminListMedia)
	admin.GET("/media/:id", h.AdminGetMedia)
}
