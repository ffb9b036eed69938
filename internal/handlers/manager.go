package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/auth"
	"github.com/sbpickleball/match_app/internal/config"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/internal/services"
)

// HandlerManager holds everything the HTTP handlers need.
type HandlerManager struct {
	Config   *config.Config
	Sessions *auth.SessionService
	Profiles *services.ProfileService
	Matches  *services.MatchService
	Chat     *services.ChatService
	Reviews  *services.ReviewService
	Trust    *services.TrustService
	Limiter  *middleware.RateLimiter

	// now is swapped in tests.
	now func() time.Time
}

func NewHandlerManager(
	cfg *config.Config,
	sessions *auth.SessionService,
	profiles *services.ProfileService,
	matches *services.MatchService,
	chat *services.ChatService,
	reviews *services.ReviewService,
	trust *services.TrustService,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:   cfg,
		Sessions: sessions,
		Profiles: profiles,
		Matches:  matches,
		Chat:     chat,
		Reviews:  reviews,
		Trust:    trust,
		Limiter:  limiter,
		now:      time.Now,
	}
}

// Router builds the gin engine with every route registered.
func (h *HandlerManager) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(),
		gin.Recovery(),
		middleware.CORS(h.Config.AllowedOrigins),
		middleware.Authenticate(h.Sessions, h.Config.SessionTimeout),
	)
	if h.Limiter != nil {
		r.Use(middleware.RateLimit(h.Limiter))
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	authGroup.GET("/:provider/url", h.HandleAuthURL)
	authGroup.POST("/:provider/callback", h.HandleSignIn)
	authGroup.GET("/session", middleware.RequireSession(), h.HandleSession)
	authGroup.POST("/signout", middleware.RequireSession(), h.HandleSignOut)

	api := r.Group("/", middleware.RequireSession())
	api.GET("/home", h.HandleHome)
	api.GET("/profile", h.HandleGetProfile)
	api.PATCH("/profile", h.HandleUpdateProfile)
	api.POST("/profile/avatar", h.HandleUploadAvatar)
	api.POST("/profile/availability", h.HandleSetAvailability)
	api.GET("/users/:id/trust", h.HandleTrustSnapshot)

	api.POST("/requests", h.HandleSubmitRequest)
	api.GET("/requests", h.HandleListWaiting)
	api.POST("/requests/:id/accept", h.HandleAcceptRequest)
	api.POST("/requests/:id/cancel", h.HandleCancelRequest)

	api.GET("/matches", h.HandleListMyMatches)
	api.POST("/matches/:id/complete", h.HandleCompleteMatch)
	api.GET("/matches/:id/messages", h.HandleHistory)
	api.POST("/matches/:id/messages", h.HandleSendMessage)
	api.GET("/matches/:id/stream", h.HandleStream)
	api.GET("/matches/:id/review-targets", h.HandleReviewTargets)
	api.POST("/matches/:id/reviews", h.HandleSubmitReview)

	admin := r.Group("/admin", middleware.RequireSession(), middleware.RequireAdmin(h.Config.IsAdmin))
	admin.GET("/overview", h.HandleAdminOverview)
	admin.POST("/matches", h.HandleCreateTestMatch)
	admin.POST("/matches/:id/complete", h.HandleAdminCompleteMatch)
	admin.POST("/matches/:id/cancel", h.HandleAdminCancelMatch)
	admin.GET("/export.xlsx", h.HandleAdminExport)

	return r
}
