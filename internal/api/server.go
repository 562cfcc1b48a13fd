package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/tourvia/groupbooking-api/docs"
	v1 "github.com/tourvia/groupbooking-api/internal/api/handler/v1"
	"github.com/tourvia/groupbooking-api/internal/api/middleware"
	"github.com/tourvia/groupbooking-api/internal/config"
	"github.com/tourvia/groupbooking-api/internal/group"
	"github.com/tourvia/groupbooking-api/internal/payment"
	"github.com/tourvia/groupbooking-api/internal/ratelimit"
	"github.com/tourvia/groupbooking-api/internal/realtime"
	"github.com/tourvia/groupbooking-api/internal/repository"
	"github.com/tourvia/groupbooking-api/internal/repository/dao"
	"github.com/tourvia/groupbooking-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	ledger   *group.Ledger
	hub      *realtime.Hub
	groupSvc *service.GroupService
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		ledger: group.NewLedger(time.Duration(conf.Group.LockWaitMs) * time.Millisecond),
		hub:    realtime.NewHub(),
	}

	s.MountMiddlewares()

	offeringRepo := repository.NewOfferingRepository(dao.NewOfferingDAO(db))
	userSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))

	offeringSvc := service.NewOfferingService(offeringRepo, s.ledger)
	if err := offeringSvc.PrimeLedger(context.Background()); err != nil {
		return nil, fmt.Errorf("offeringSvc.PrimeLedger -> %w", err)
	}

	s.groupSvc = service.NewGroupService(
		s.ledger,
		offeringRepo,
		userSvc,
		payment.NewStripeCheckout(conf.Stripe.SecretKey),
		s.hub,
	)
	go s.groupSvc.Run()

	authHandler := s.initAuthHandler(db)
	userHandler := v1.NewUserHandler(userSvc)
	offeringHandler := v1.NewOfferingHandler(offeringSvc, s.groupSvc, userSvc)
	liveHandler := v1.NewLiveHandler(s.hub)
	feedHandler := s.initFeedHandler(db)
	s.MountHandlers(authHandler, userHandler, offeringHandler, liveHandler, feedHandler)

	return s, nil
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initFeedHandler(db *gorm.DB) *v1.FeedHandler {
	feedDAO := dao.NewFeedDAO(db)
	repo := repository.NewFeedRepository(feedDAO)
	svc := service.NewFeedService(repo)
	handler := v1.NewFeedHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	offeringHandler *v1.OfferingHandler,
	liveHandler *v1.LiveHandler,
	feedHandler *v1.FeedHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	users := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		users.GET("/users/:userID", userHandler.HandleGetUser)
	}

	offerings := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		offerings.POST("/offerings", offeringHandler.HandleCreateOffering)
		offerings.GET("/offerings", offeringHandler.HandleListOfferings)
		offerings.GET("/offerings/live", liveHandler.HandleLive)
		offerings.GET("/offerings/:offeringID", offeringHandler.HandleGetOffering)
		offerings.GET("/offerings/:offeringID/group", offeringHandler.HandleGetGroupState)
		offerings.GET("/offerings/:offeringID/participants", offeringHandler.HandleGetParticipants)
		offerings.POST("/offerings/:offeringID/join", offeringHandler.HandleJoinOffering)
		offerings.POST("/offerings/:offeringID/leave", offeringHandler.HandleLeaveOffering)
	}

	feedLimiter := ratelimit.NewLimiter(
		s.Config.RateLimit.FeedLimit,
		time.Duration(s.Config.RateLimit.FeedWindowMs)*time.Millisecond,
	)
	feed := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		feed.GET("/feed", feedHandler.HandleListPosts)
		feed.POST("/feed", middleware.RateLimit(feedLimiter), feedHandler.HandleCreatePost)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "TourVia Group Booking API"
	docs.SwaggerInfo.Description = "Smart group capacity and dynamic pricing for community tours."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

// Close stops the background event drain. Call on shutdown.
func (s *Server) Close() {
	s.groupSvc.Close()
}
