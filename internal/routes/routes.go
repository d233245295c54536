package routes

import (
	"fmt"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/wdv96wdv/Doclimb/internal/cache"
	"github.com/wdv96wdv/Doclimb/internal/config"
	"github.com/wdv96wdv/Doclimb/internal/guide"
	"github.com/wdv96wdv/Doclimb/internal/gymlist"
	"github.com/wdv96wdv/Doclimb/internal/handlers"
	"github.com/wdv96wdv/Doclimb/internal/middleware"
	"github.com/wdv96wdv/Doclimb/internal/repository"
	"github.com/wdv96wdv/Doclimb/internal/services"
	"github.com/wdv96wdv/Doclimb/internal/session"
	gymws "github.com/wdv96wdv/Doclimb/internal/websocket"
)

// Runtime holds the long-lived pieces cmd/server starts and stops.
type Runtime struct {
	Auth     *services.AuthService
	Gyms     *services.GymService
	Hub      *gymws.Hub
	Sessions *session.Manager
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, rdb *redis.Client) (*Runtime, error) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	postRepo := repository.NewPostRepository(db)
	betaRepo := repository.NewBetaRepository(db)
	gymRepo := repository.NewGymRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	store := cache.NewStore(rdb)
	bus := session.NewBus()

	var postStorage, avatarStorage services.StorageService
	if cfg.StorageEnabled() {
		postStorage = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabasePostsBucket, cfg.SupabaseServiceKey)
		avatarStorage = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseAvatarsBucket, cfg.SupabaseServiceKey)
	}
	var mailer services.Mailer
	if cfg.MailEnabled() {
		mailer = services.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	}

	sessionManager := session.NewManager(profileRepo, store, bus)
	authService := services.NewAuthService(
		userRepo,
		profileRepo,
		services.NewAccountStore(db),
		store,
		mailer,
		avatarStorage,
		bus,
		services.AuthOptions{
			JWTSecret:        cfg.JWTSecret,
			TokenTTL:         cfg.TokenTTL,
			ConfirmURL:       cfg.OAuthCallbackBaseURL + "/api/auth/confirm",
			LoginMaxAttempts: cfg.LoginMaxAttempts,
			LoginLockout:     cfg.LoginLockout,
		},
	)

	credentials := make(map[string]services.OAuthCredentials)
	for _, provider := range cfg.OAuthProviders() {
		switch provider {
		case services.ProviderKakao:
			credentials[provider] = services.OAuthCredentials{ClientID: cfg.KakaoClientID, ClientSecret: cfg.KakaoClientSecret}
		case services.ProviderGoogle:
			credentials[provider] = services.OAuthCredentials{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret}
		}
	}
	oauthService := services.NewOAuthService(store, authService, cfg.OAuthCallbackBaseURL, credentials)

	gymService := services.NewGymService(gymRepo, gymlist.NewCatalog())
	hub := gymws.NewHub(gymService.Catalog())
	gymService.SetBroadcaster(hub)

	modelRecommender := services.NewOpenAIRecommender(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	var recommender services.Recommender = modelRecommender
	if cfg.AIFunctionURL != "" {
		recommender = services.NewFunctionRecommender(cfg.AIFunctionURL, cfg.SupabaseServiceKey)
	}

	guideContent, err := guide.Build()
	if err != nil {
		return nil, fmt.Errorf("build guide: %w", err)
	}

	authHandler := handlers.NewAuthHandler(authService, oauthService, cfg.OAuthRedirectURL)
	navigationHandler := handlers.NewNavigationHandler()
	profileHandler := handlers.NewProfileHandler(services.NewProfileService(profileRepo, avatarStorage, bus))
	recordService := services.NewRecordService(recordRepo)
	recordHandler := handlers.NewRecordHandler(recordService)
	postHandler := handlers.NewPostHandler(services.NewPostService(postRepo, postStorage))
	betaHandler := handlers.NewBetaHandler(services.NewBetaService(betaRepo))
	gymHandler := handlers.NewGymHandler(gymService)
	gymSocketHandler := handlers.NewGymSocketHandler(hub, sessionManager, cfg.JWTSecret)
	membershipHandler := handlers.NewMembershipHandler(
		services.NewMembershipService(profileRepo, membershipRepo, services.NewPgMembershipTx(db)),
	)
	guideHandler := handlers.NewGuideHandler(guideContent)
	coachHandler := handlers.NewCoachHandler(services.NewCoachService(recordService, recommender), modelRecommender)

	sessionMiddleware := middleware.Session(sessionManager, cfg.JWTSecret)
	app.All("/functions/v1/ai-recommend",
		sessionMiddleware,
		middleware.ServiceKeyOrMember(cfg.SupabaseServiceKey),
		coachHandler.Function,
	)

	api := app.Group("/api")
	api.Use("/v1/ws", gymSocketHandler.Upgrade)
	api.Get("/v1/ws/gyms", websocket.New(gymSocketHandler.Handle))

	api.Use(sessionMiddleware)

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.SignUp)
	auth.Get("/check-email", authHandler.CheckEmail)
	auth.Get("/check-nickname", authHandler.CheckNickname)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/resend-confirmation", authHandler.ResendConfirmation)
	auth.Get("/confirm", authHandler.Confirm)
	auth.Get("/me", authHandler.Me)
	auth.Get("/oauth/:provider", authHandler.OAuthStart)
	auth.Get("/oauth/:provider/callback", authHandler.OAuthCallback)

	navigation := api.Group("/navigation")
	navigation.Get("/resolve", navigationHandler.Resolve)
	navigation.Get("/menu", navigationHandler.Menu)

	members := api.Group("/v1", middleware.AuthRequired())

	me := members.Group("/me")
	me.Get("/profile", profileHandler.Get)
	me.Put("/profile", profileHandler.Update)
	me.Post("/profile/avatar", profileHandler.UploadAvatar)
	me.Put("/password", authHandler.ChangePassword)
	me.Get("/memberships", membershipHandler.Mine)
	me.Delete("", authHandler.DeleteAccount)

	records := members.Group("/records")
	records.Get("", recordHandler.List)
	records.Post("", recordHandler.Create)
	records.Get("/calendar", recordHandler.Calendar)
	records.Get("/summary", recordHandler.Summary)
	records.Get("/:id", recordHandler.Get)
	records.Put("/:id", recordHandler.Update)
	records.Delete("/:id", recordHandler.Delete)

	posts := members.Group("/posts")
	posts.Get("", postHandler.List)
	posts.Post("", postHandler.Create)
	posts.Get("/:id", postHandler.Get)
	posts.Put("/:id", postHandler.Update)
	posts.Delete("/:id", postHandler.Delete)

	betas := members.Group("/betas")
	betas.Get("", betaHandler.List)
	betas.Post("", betaHandler.Create)
	betas.Get("/:id", betaHandler.Get)
	betas.Delete("/:id", betaHandler.Delete)
	betas.Put("/:id/rating", betaHandler.Rate)

	gyms := members.Group("/gyms")
	gyms.Get("", gymHandler.List)
	gyms.Get("/:id", gymHandler.Get)

	guides := members.Group("/guide")
	guides.Get("", guideHandler.Get)
	guides.Get("/:tab", guideHandler.Tab)

	members.Post("/coach/recommendation", coachHandler.Recommend)

	admin := api.Group("/v1/admin", middleware.AdminOnly())
	admin.Get("/gyms", gymHandler.AdminList)
	admin.Post("/gyms", gymHandler.Create)
	admin.Patch("/gyms/:id/status", gymHandler.UpdateStatus)
	admin.Get("/users", membershipHandler.ListUsers)
	admin.Post("/users/:id/memberships", membershipHandler.Grant)
	admin.Delete("/users/:id/memberships", membershipHandler.Revoke)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return nil, err
	}

	return &Runtime{
		Auth:     authService,
		Gyms:     gymService,
		Hub:      hub,
		Sessions: sessionManager,
	}, nil
}
