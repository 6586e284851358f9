// Package httpapi exposes the backend over HTTP. It owns the gin router,
// the authorization guards, and the sentinel-error-to-status mapping;
// business rules stay in the services.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/ratelimit"
	"github.com/kingfluencer/backend/internal/server/services"
)

// AuthService is the slice of the auth service the handlers need.
type AuthService interface {
	RequestLoginOTP(ctx context.Context, email string) error
	VerifyLoginOTP(ctx context.Context, email, candidate string) (*models.User, error)
	RequestAdminOTP(ctx context.Context, email string) error
	VerifyAdminOTP(ctx context.Context, email, candidate string) (string, error)
	Logout(ctx context.Context, token string) error
}

type EmailChangeService interface {
	RequestOldVerification(ctx context.Context, user *models.User) error
	ConfirmOldVerification(ctx context.Context, user *models.User, candidate string) error
	RequestNewVerification(ctx context.Context, user *models.User, newEmail string) error
	ConfirmNewVerification(ctx context.Context, user *models.User, candidate string) error
}

type UserService interface {
	Create(ctx context.Context, input services.CreateUserInput) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id string) (*services.UserWithProfile, error)
	List(ctx context.Context, role models.Role, search string, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, id string, input services.UpdateInput) (*models.User, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	SendCustomEmail(ctx context.Context, id, subject, htmlBody string) error
}

type AdminService interface {
	Stats(ctx context.Context) (*services.DashboardStats, error)
}

type CampaignService interface {
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	Get(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id string) error
}

type PaymentService interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Get(ctx context.Context, id string) (*models.Payment, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
}

type UploadService interface {
	GetPresignedPutUrl(ctx context.Context) (string, string, error)
	GetPresignedGetUrl(ctx context.Context, key string) (string, error)
}

// TokenChecker is the slice of the session registry the operator guard needs.
type TokenChecker interface {
	IsValid(token string) bool
}

// Deps bundles everything the server needs. Interfaces keep the handlers
// testable without a database or SMTP.
type Deps struct {
	Auth        AuthService
	EmailChange EmailChangeService
	Users       UserService
	Admin       AdminService
	Campaigns   CampaignService
	Payments    PaymentService
	Uploads     UploadService
	Registry    TokenChecker
	Limiter     *ratelimit.Limiter
	Config      *config.Config
	Logger      logging.Logger
}

// Server is the HTTP front of the backend.
type Server struct {
	deps   Deps
	config *config.Config
	logger logging.Logger
	router *gin.Engine
}

func NewServer(deps Deps) *Server {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		deps:   deps,
		config: deps.Config,
		logger: deps.Logger.With("module", "httpapi"),
		router: router,
	}

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")

	admin := api.Group("/admin")
	{
		admin.POST("/login/request-otp", s.handleAdminRequestOTP)
		admin.POST("/login/verify-otp", s.handleAdminVerifyOTP)
		admin.POST("/logout", s.handleAdminLogout)
		admin.GET("/stats", s.operatorGuard(), s.handleAdminStats)
	}

	api.POST("/users/login/request-otp", s.handleLoginRequestOTP)
	api.POST("/users/login/verify-otp", s.handleLoginVerifyOTP)

	me := api.Group("/users/me", s.identityGuard())
	{
		me.PUT("", s.handleUpdateMe)
		me.GET("/client-area", s.roleGuard(models.RoleClient), s.handleClientArea)
		me.GET("/influencer-area", s.roleGuard(models.RoleInfluencer), s.handleInfluencerArea)
		me.POST("/email-change/request-old", s.handleEmailChangeRequestOld)
		me.POST("/email-change/confirm-old", s.handleEmailChangeConfirmOld)
		me.POST("/email-change/request-new", s.handleEmailChangeRequestNew)
		me.POST("/email-change/confirm-new", s.handleEmailChangeConfirmNew)
	}

	users := api.Group("/users", s.operatorGuard())
	{
		users.GET("", s.handleListUsers)
		users.POST("", s.handleCreateUser)
		users.GET("/:id", s.handleGetUser)
		users.PUT("/:id", s.handleUpdateUser)
		users.PATCH("/:id/status", s.handleUpdateUserStatus)
		users.DELETE("/:id", s.handleDeleteUser)
		users.POST("/send-email", s.handleSendEmail)
	}

	campaigns := api.Group("/campaigns", s.operatorGuard())
	{
		campaigns.POST("", s.handleCreateCampaign)
		campaigns.GET("", s.handleListCampaigns)
		campaigns.GET("/:id", s.handleGetCampaign)
		campaigns.PUT("/:id", s.handleUpdateCampaign)
		campaigns.DELETE("/:id", s.handleDeleteCampaign)
		campaigns.GET("/:id/payments", s.handleListCampaignPayments)
	}

	payments := api.Group("/payments", s.operatorGuard())
	{
		payments.POST("", s.handleCreatePayment)
		payments.GET("/:id", s.handleGetPayment)
		payments.PUT("/:id", s.handleUpdatePayment)
		payments.DELETE("/:id", s.handleDeletePayment)
	}

	uploads := api.Group("/uploads", s.operatorGuard())
	{
		uploads.POST("/presign-put", s.handlePresignPut)
		uploads.POST("/presign-get", s.handlePresignGet)
	}

	return s
}

// Router exposes the gin engine for http.Server and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
