package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finora/api/agents"
	"finora/api/auth"
	"finora/api/cache"
	"finora/api/config"
	"finora/api/db"
	"finora/api/handlers"
	"finora/api/kafka"
	"finora/api/logger"
	"finora/api/middleware"
	"finora/api/mongodb"
	"finora/api/session"
	"finora/api/sse"
	"finora/api/store"
	"finora/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Development(), logger.ParseLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	if dotenvErr != nil {
		logger.Get().Warn(".env file not loaded", zap.Error(dotenvErr))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, closeStore, err := openProfileStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var users handlers.UserRecorder
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn); err != nil {
			return err
		}
		users = &db.Users{DB: conn}
	} else {
		logger.Get().Warn("DATABASE_URL not set, user records are not kept")
	}

	// The pool delivers events through the handler, which needs the pool
	// as its publisher; h is set before the pool starts.
	var h *handlers.Handler
	pool := worker.NewWorkerPool(cfg.Workers, func(ctx context.Context, job []byte) error {
		return h.DeliverProfileEvent(ctx, job)
	})

	var (
		events   handlers.Publisher = pool
		consumer *kafka.Consumer
	)
	if cfg.KafkaBootstrapServers != "" {
		kcfg := kafka.Config{
			BootstrapServers: cfg.KafkaBootstrapServers,
			APIKey:           cfg.KafkaAPIKey,
			APISecret:        cfg.KafkaAPISecret,
			GroupID:          instanceGroup(cfg.KafkaGroupID),
		}
		producer, err := kafka.NewProducer(kcfg)
		if err != nil {
			return err
		}
		defer producer.Close(shutdownTimeout)

		consumer, err = kafka.NewConsumer(kcfg, pool)
		if err != nil {
			return err
		}
		events = producer
	} else {
		logger.Get().Info("KAFKA_BOOTSTRAP_SERVERS not set, profile events stay in process")
	}

	h = handlers.New(handlers.Options{
		Profiles:      profiles,
		Sessions:      session.NewStore(),
		Identity:      auth.NewSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey),
		Users:         users,
		Events:        events,
		Hub:           sse.NewHub(),
		Agents:        agents.DefaultConfig(),
		AllowedOrigin: cfg.AllowedOrigin,
	})

	pool.Start()
	defer pool.Stop()
	if consumer != nil {
		go consumer.Run(ctx)
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})
	verifier := auth.Verifier{Secret: []byte(cfg.SupabaseJWTSecret), Issuer: cfg.SupabaseIssuer()}
	registerRoutes(router, h, verifier, cfg, pool.MetricsHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	// Open streams only end when their request context does.
	streamCtx, cancelStreams := context.WithCancel(context.Background())
	srv.BaseContext = func(_ net.Listener) context.Context { return streamCtx }
	srv.RegisterOnShutdown(cancelStreams)

	errCh := make(chan error, 1)
	go func() {
		logger.Get().Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Get().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("server shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func registerRoutes(router *gin.Engine, h *handlers.Handler, verifier auth.Verifier, cfg config.Config, metrics http.HandlerFunc) {
	router.Use(middleware.CorsMiddleware(cfg.AllowedOrigin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	account := router.Group("/auth")
	{
		account.POST("/signup", h.HandleSignUp)
		account.POST("/login", h.HandleLogin)
		account.POST("/federated", h.HandleFederatedLogin)
	}

	api := router.Group("/api", middleware.AuthMiddleware(verifier))
	{
		api.POST("/logout", h.HandleLogout)
		api.GET("/profile", h.HandleGetProfile)
		api.PUT("/profile", h.HandleUpdateProfile)
		api.GET("/profile/draft", h.HandleGetDraft)
		api.PATCH("/profile/draft", h.HandleEditDraft)
		api.DELETE("/profile/draft", h.HandleDiscardDraft)
		api.POST("/profile/draft/next", h.HandleDraftNext)
		api.POST("/profile/draft/back", h.HandleDraftBack)
		api.POST("/profile/draft/submit", h.HandleSubmitDraft)
		api.GET("/dashboard", h.HandleDashboard)
		api.GET("/analysis/snapshot", h.HandleAnalysisSnapshot)
		api.GET("/agents", h.HandleCatalog)
		api.GET("/me", h.HandleMe)
	}

	// EventSource and browser websockets carry the token in the query.
	streams := router.Group("/", middleware.QueryTokenMiddleware(verifier))
	{
		streams.GET("/sse/analysis", h.HandleAnalysisStream)
		streams.GET("/sse/profile", h.HandleProfileEvents)
		streams.GET("/ws/agents", h.HandleAgentsSocket)
	}

	internal := router.Group("/internal", middleware.MicroserviceAuthMiddleware(cfg.InternalAPIKey))
	{
		internal.GET("/metrics", gin.WrapF(metrics))
	}
}

// openProfileStore picks MongoDB when configured, in-memory otherwise, and
// puts the Redis cache in front when REDIS_ADDR is set.
func openProfileStore(ctx context.Context, cfg config.Config) (store.ProfileStore, func(), error) {
	var (
		profiles store.ProfileStore
		closers  []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MongoURI != "" {
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { disconnectMongo(client) })

		ps := mongodb.NewProfileStore(client, cfg.MongoDatabase)
		if err := ps.EnsureIndexes(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		profiles = ps
	} else {
		logger.Get().Warn("MONGO_URI not set, profiles are kept in memory")
		profiles = store.NewMemory()
	}

	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		})
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			closeAll()
			return nil, nil, fmt.Errorf("error connecting to Redis: %w", err)
		}
		sweepCtx, stopSweep := context.WithCancel(ctx)
		go sweepCache(sweepCtx, rc, cfg.ProfileCacheTTL)
		closers = append(closers, func() {
			stopSweep()
			if err := rc.Close(); err != nil {
				logger.Get().Error("failed to close Redis client", zap.Error(err))
			}
		})
		profiles = store.NewCached(profiles, rc, cfg.ProfileCacheTTL)
	}

	return profiles, closeAll, nil
}

// sweepCache trims the cache's write-time index of entries Redis has
// already expired.
func sweepCache(ctx context.Context, rc *cache.RedisCache, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rc.DeleteOlderThan(ctx, ttl); err != nil && ctx.Err() == nil {
				logger.Get().Error("failed to sweep profile cache", zap.Error(err))
			}
		}
	}
}

// instanceGroup gives every instance its own consumer group so each one
// sees every event and can reach the streams connected to it.
func instanceGroup(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return base
	}
	return base + "-" + host
}

func disconnectMongo(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	mongodb.Disconnect(ctx, client)
}
