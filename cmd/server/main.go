// @title UniShare Hub API
// @version 1.0
// @description UniShare campus community service API documentation.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"unishare-hub/internal/api"
	"unishare-hub/internal/api/middleware"
	"unishare-hub/internal/event"
	"unishare-hub/internal/feed"
	"unishare-hub/internal/metrics"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	"unishare-hub/internal/repository/postgres"
	"unishare-hub/internal/scheduler"
	schedulerjobs "unishare-hub/internal/scheduler/jobs"
	"unishare-hub/internal/service"
	"unishare-hub/internal/sse"
	"unishare-hub/pkg/forms"
	systemlog "unishare-hub/pkg/logger"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Database struct {
		URL         string        `mapstructure:"url"`
		MaxConns    int           `mapstructure:"max_conns"`
		PingTimeout time.Duration `mapstructure:"ping_timeout"`
	} `mapstructure:"database"`
	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`
	Feed struct {
		URL          string        `mapstructure:"url"`
		FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	} `mapstructure:"feed"`
	Forms struct {
		Endpoint string `mapstructure:"endpoint"`
		Fields   struct {
			Name     string `mapstructure:"name"`
			Email    string `mapstructure:"email"`
			Category string `mapstructure:"category"`
			Subject  string `mapstructure:"subject"`
			Message  string `mapstructure:"message"`
			Rating   string `mapstructure:"rating"`
		} `mapstructure:"fields"`
	} `mapstructure:"forms"`
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
	Debug struct {
		PprofEnabled bool `mapstructure:"pprof_enabled"`
	} `mapstructure:"debug"`
}

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "healthcheck":
			os.Exit(runHealthcheck())
		case "migrate":
			if err := runMigrateCommand(); err != nil {
				fmt.Fprintln(os.Stderr, sanitizeCLIError(err))
				os.Exit(1)
			}
			return
		case "create-admin":
			if err := runCreateAdminCommand(os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, sanitizeCLIError(err))
				os.Exit(1)
			}
			return
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	logger, systemLogStore, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer logger.Sync() //nolint:errcheck

	isDebugMode := strings.EqualFold(cfg.App.Env, "development")
	if !isDebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dbPool, err := newDBPool(context.Background(), cfg)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	defer dbPool.Close()

	userRepo := postgres.NewUserRepository(dbPool)
	announcementRepo := postgres.NewAnnouncementRepository(dbPool)
	dismissalRepo := postgres.NewDismissalRepository(dbPool)
	feedbackRepo := postgres.NewFeedbackRepository(dbPool)
	listingRepo := postgres.NewListingRepository(dbPool)
	rideRepo := postgres.NewRideRepository(dbPool)
	lostFoundRepo := postgres.NewLostFoundRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)

	sseHub := sse.NewHub(logger)
	defer sseHub.Close()

	eventBus := event.NewBus()

	feedClient := feed.NewClient(
		cfg.Feed.URL,
		&http.Client{Timeout: cfg.Feed.FetchTimeout},
		logger,
	)
	formsClient := forms.NewClient(cfg.Forms.Endpoint, buildFieldMap(cfg), nil, logger)

	jwtPrivateKey, err := loadRSAPrivateKey()
	if err != nil {
		logger.Fatal("load jwt private key failed", zap.Error(err))
	}

	authSvc := service.NewAuthService(userRepo, auditRepo, dbPool, jwtPrivateKey)
	userSvc := service.NewUserService(userRepo, auditRepo)
	announcementSvc := service.NewAnnouncementService(announcementRepo, dismissalRepo, userRepo, auditRepo, feedClient, sseHub, logger)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, formsClient, eventBus, sseHub, logger)
	listingSvc := service.NewListingService(listingRepo, auditRepo, sseHub, logger)
	rideSvc := service.NewRideService(rideRepo, eventBus, sseHub, logger)
	lostFoundSvc := service.NewLostFoundService(lostFoundRepo, eventBus, logger)
	auditSvc := service.NewAuditService(auditRepo)
	systemSvc := service.NewSystemService(dbPool, systemLogStore, logger)

	registerFeedbackSubscribers(eventBus, sseHub, auditRepo, logger)
	middleware.SetAuditRepository(auditRepo)

	feedJob := schedulerjobs.NewFeedJob(announcementSvc, logger)
	outboxJob := schedulerjobs.NewOutboxJob(feedbackSvc, logger)
	sweepJob := schedulerjobs.NewSweepJob(dbPool, logger)

	cronRunner := scheduler.NewScheduler(scheduler.Deps{
		FeedJob:   feedJob,
		OutboxJob: outboxJob,
		SweepJob:  sweepJob,
	}, logger)
	cronRunner.Start()
	defer func() {
		stopCtx := cronRunner.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(2 * time.Second):
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(buildCORSMiddleware(cfg))
	router.Use(middleware.RequestLogger(logger))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	readyHandler := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Database.PingTimeout)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"error":  "database unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}

	router.GET("/health", healthHandler)
	router.GET("/health/ready", readyHandler)
	router.GET("/api/v1/health", healthHandler)
	router.GET("/api/v1/health/ready", readyHandler)

	internalMetrics := router.Group("/internal")
	internalMetrics.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if isDebugMode && cfg.Debug.PprofEnabled {
		registerPprofRoutes(router)
		logger.Info("pprof endpoint enabled", zap.String("path", "/debug/pprof/"))
	}

	apiV1 := router.Group("/api/v1")
	api.RegisterRoutes(apiV1, api.Services{
		Auth:         authSvc,
		User:         userSvc,
		Announcement: announcementSvc,
		Feedback:     feedbackSvc,
		Listing:      listingSvc,
		Ride:         rideSvc,
		LostFound:    lostFoundSvc,
		Audit:        auditSvc,
		System:       systemSvc,
		SSEHub:       sseHub,
	})

	stopMetricsCollector := startMetricsCollector(dbPool, sseHub, logger)
	defer stopMetricsCollector()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	logger.Info("server started",
		zap.String("addr", srv.Addr),
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_time", BuildTime),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			logger.Fatal("server exited unexpectedly", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server failed", zap.Error(err))
	}
}

func loadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("UNISHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "UNISHARE_DATABASE_URL", "DATABASE_URL")

	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.ping_timeout", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.fetch_timeout", "10s")
	v.SetDefault("forms.endpoint", "")
	v.SetDefault("forms.fields.name", forms.DefaultFieldMap.Name)
	v.SetDefault("forms.fields.email", forms.DefaultFieldMap.Email)
	v.SetDefault("forms.fields.category", forms.DefaultFieldMap.Category)
	v.SetDefault("forms.fields.subject", forms.DefaultFieldMap.Subject)
	v.SetDefault("forms.fields.message", forms.DefaultFieldMap.Message)
	v.SetDefault("forms.fields.rating", forms.DefaultFieldMap.Rating)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("debug.pprof_enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return Config{}, fmt.Errorf("read config file failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config failed: %w", err)
	}

	if cfg.Database.URL == "" {
		return Config{}, errors.New("database.url is required")
	}

	if cfg.Database.MaxConns <= 0 {
		return Config{}, errors.New("database.max_conns must be greater than 0")
	}

	if cfg.Database.PingTimeout <= 0 {
		return Config{}, errors.New("database.ping_timeout must be greater than 0")
	}

	if len(cfg.CORS.AllowOrigins) == 0 {
		return Config{}, errors.New("cors.allow_origins must not be empty")
	}
	for _, origin := range cfg.CORS.AllowOrigins {
		if strings.TrimSpace(origin) == "*" {
			return Config{}, errors.New("cors.allow_origins must not contain wildcard *")
		}
	}

	return cfg, nil
}

func buildFieldMap(cfg Config) forms.FieldMap {
	fields := forms.FieldMap{
		Name:     strings.TrimSpace(cfg.Forms.Fields.Name),
		Email:    strings.TrimSpace(cfg.Forms.Fields.Email),
		Category: strings.TrimSpace(cfg.Forms.Fields.Category),
		Subject:  strings.TrimSpace(cfg.Forms.Fields.Subject),
		Message:  strings.TrimSpace(cfg.Forms.Fields.Message),
		Rating:   strings.TrimSpace(cfg.Forms.Fields.Rating),
	}
	if fields == (forms.FieldMap{}) {
		return forms.DefaultFieldMap
	}
	return fields
}

func newLogger(cfg Config) (*zap.Logger, *systemlog.SystemLogStore, error) {
	var zapCfg zap.Config
	if strings.EqualFold(cfg.App.Env, "development") {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log.level: %w", err)
		}
	}

	if cfg.Log.Encoding != "" {
		zapCfg.Encoding = cfg.Log.Encoding
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build zap logger failed: %w", err)
	}

	logStore := systemlog.NewSystemLogStore(1000)
	logger = systemlog.WrapZapLogger(logger, logStore)
	return logger, logStore, nil
}

func newDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database.url failed: %w", err)
	}

	const maxInt32 = int(^uint32(0) >> 1)
	if cfg.Database.MaxConns > maxInt32 {
		return nil, fmt.Errorf("database.max_conns must be <= %d", maxInt32)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxConns) // #nosec G115 -- validated upper bound above.

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.PingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	return pool, nil
}

func buildCORSMiddleware(cfg Config) gin.HandlerFunc {
	origins := make([]string, 0, len(cfg.CORS.AllowOrigins))
	for _, origin := range cfg.CORS.AllowOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		origins = append(origins, trimmed)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func registerPprofRoutes(router *gin.Engine) {
	pprofGroup := router.Group("/debug/pprof")
	pprofGroup.GET("/", gin.WrapF(pprof.Index))
	pprofGroup.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	pprofGroup.GET("/profile", gin.WrapF(pprof.Profile))
	pprofGroup.GET("/symbol", gin.WrapF(pprof.Symbol))
	pprofGroup.POST("/symbol", gin.WrapF(pprof.Symbol))
	pprofGroup.GET("/trace", gin.WrapF(pprof.Trace))
	pprofGroup.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	pprofGroup.GET("/block", gin.WrapH(pprof.Handler("block")))
	pprofGroup.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	pprofGroup.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	pprofGroup.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	pprofGroup.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}

func startMetricsCollector(pool *pgxpool.Pool, sseHub *sse.Hub, logger *zap.Logger) func() {
	if logger == nil {
		logger = zap.NewNop()
	}

	stopCh := make(chan struct{})

	collect := func() {
		if sseHub != nil {
			metrics.SetSSEClients(sseHub.ConnectedCount())
		}
		if pool != nil {
			updateListingStatusMetrics(pool, logger)
			updateOutboxDepthMetric(pool, logger)
		}
	}

	collect()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				collect()
			}
		}
	}()

	return func() {
		close(stopCh)
	}
}

func updateListingStatusMetrics(pool *pgxpool.Pool, logger *zap.Logger) {
	if pool == nil {
		return
	}

	metrics.SetActiveListingCount("active", 0)
	metrics.SetActiveListingCount("sold", 0)
	metrics.SetActiveListingCount("closed", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := pool.Query(
		ctx,
		`SELECT status, COUNT(*)
		   FROM listings
		  GROUP BY status`,
	)
	if err != nil {
		logger.Warn("collect listing status metrics failed", zap.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var total int64
		if scanErr := rows.Scan(&status, &total); scanErr != nil {
			logger.Warn("scan listing status metrics failed", zap.Error(scanErr))
			return
		}
		metrics.SetActiveListingCount(status, total)
	}
	if err := rows.Err(); err != nil {
		logger.Warn("iterate listing status metrics failed", zap.Error(err))
	}
}

func updateOutboxDepthMetric(pool *pgxpool.Pool, logger *zap.Logger) {
	if pool == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var total int64
	if err := pool.QueryRow(
		ctx,
		`SELECT COUNT(*)
		   FROM feedback_outbox
		  WHERE status = 'queued'`,
	).Scan(&total); err != nil {
		logger.Warn("collect outbox depth metric failed", zap.Error(err))
		return
	}
	metrics.SetFeedbackOutboxDepth(total)
}

func registerFeedbackSubscribers(
	bus *event.Bus,
	sseHub *sse.Hub,
	auditRepo repository.AuditRepository,
	logger *zap.Logger,
) {
	if bus == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bus.Subscribe(event.EventFeedbackFailed, func(payload any) {
		failed, ok := normalizeFeedbackFailedPayload(payload)
		if !ok || strings.TrimSpace(failed.FeedbackID) == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if sseHub != nil {
			sseHub.SendToRole("admin", sse.NewEvent(sse.EventSystemAlert, map[string]interface{}{
				"kind":        "feedback.delivery_failed",
				"feedback_id": failed.FeedbackID,
				"attempts":    failed.Attempts,
				"last_error":  failed.LastError,
				"ts":          time.Now().UTC().Format(time.RFC3339Nano),
			}))
		}

		logger.Warn("feedback delivery permanently failed",
			zap.String("feedback_id", failed.FeedbackID),
			zap.Int("attempts", failed.Attempts),
		)

		if auditRepo != nil {
			_ = auditRepo.Create(ctx, &model.AuditLog{
				Action:       "feedback.delivery_failed",
				ResourceType: strPtr("feedback"),
				ResourceID:   strPtr(failed.FeedbackID),
				NewValue: map[string]interface{}{
					"attempts":   failed.Attempts,
					"last_error": failed.LastError,
				},
				CreatedAt: time.Now().UTC(),
			})
		}
	})
}

func normalizeFeedbackFailedPayload(payload any) (event.FeedbackFailedPayload, bool) {
	switch data := payload.(type) {
	case event.FeedbackFailedPayload:
		return data, true
	case *event.FeedbackFailedPayload:
		if data == nil {
			return event.FeedbackFailedPayload{}, false
		}
		return *data, true
	case map[string]interface{}:
		feedbackID, _ := data["feedback_id"].(string)
		attempts := 0
		if rawAttempts, ok := data["attempts"]; ok {
			switch v := rawAttempts.(type) {
			case float64:
				attempts = int(v)
			case int:
				attempts = v
			}
		}
		lastError, _ := data["last_error"].(string)
		return event.FeedbackFailedPayload{
			FeedbackID: feedbackID,
			Attempts:   attempts,
			LastError:  lastError,
		}, strings.TrimSpace(feedbackID) != ""
	default:
		return event.FeedbackFailedPayload{}, false
	}
}

func strPtr(v string) *string {
	return &v
}

func loadRSAPrivateKey() (*rsa.PrivateKey, error) {
	pem := strings.TrimSpace(os.Getenv("UNISHARE_JWT_PRIVATE_KEY"))
	if pem == "" {
		path := strings.TrimSpace(os.Getenv("UNISHARE_JWT_PRIVATE_KEY_FILE"))
		if path != "" {
			// #nosec G304 -- path is provided by operator environment variable.
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			pem = string(raw)
		}
	}
	if pem == "" {
		return nil, errors.New("jwt private key not configured")
	}
	return jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
}

func runMigrateCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}

	migrationDir := "/migrations"
	if _, statErr := os.Stat(migrationDir); statErr != nil {
		migrationDir = "./migrations"
	}

	migrationSource := "file://" + migrationDir
	if err := runMigrateUp(migrationSource, cfg.Database.URL); err != nil {
		normalizedDir, normalizeErr := normalizeMigrationDir(migrationDir)
		if normalizeErr != nil {
			return fmt.Errorf("run migrations failed: %w", err)
		}
		defer func() {
			_ = os.RemoveAll(normalizedDir)
		}()

		normalizedSource := "file://" + normalizedDir
		if retryErr := runMigrateUp(normalizedSource, cfg.Database.URL); retryErr != nil {
			return fmt.Errorf("run migrations failed: %w; fallback failed: %v", err, retryErr)
		}
	}

	fmt.Println("migrations applied successfully")
	return nil
}

func runMigrateUp(sourceURL, databaseURL string) error {
	migrator, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer migrator.Close() //nolint:errcheck

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations failed: %w", err)
	}
	return nil
}

func normalizeMigrationDir(srcDir string) (string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return "", fmt.Errorf("read migration dir failed: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "unishare-migrations-*")
	if err != nil {
		return "", fmt.Errorf("create temp migration dir failed: %w", err)
	}

	vPattern := regexp.MustCompile(`^V([0-9]+)__(.+)\.(up|down)\.sql$`)
	nPattern := regexp.MustCompile(`^([0-9]+)_(.+)\.(up|down)\.sql$`)

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if vPattern.MatchString(name) || nPattern.MatchString(name) {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return "", errors.New("no migration files found")
	}

	for _, name := range files {
		targetName := name
		if match := vPattern.FindStringSubmatch(name); len(match) == 4 {
			targetName = fmt.Sprintf("%s_%s.%s.sql", match[1], match[2], match[3])
		}

		srcPath := filepath.Join(srcDir, name)
		dstPath := filepath.Join(tmpDir, targetName)
		if err := copyFile(srcPath, dstPath); err != nil {
			return "", fmt.Errorf("copy migration %s failed: %w", name, err)
		}
	}

	return tmpDir, nil
}

func copyFile(srcPath, dstPath string) error {
	// #nosec G304 -- source path is derived from migration directory listing.
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	// #nosec G304 -- destination path is created in a temporary directory under our control.
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	return dst.Sync()
}

func runCreateAdminCommand(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}

	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var username string
	var password string

	fs.StringVar(&username, "username", "admin", "admin username")
	fs.StringVar(&password, "password", "", "admin password")

	if err := fs.Parse(args); err != nil {
		return err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database config failed: %w", err)
	}
	poolCfg.MaxConns = 2

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database failed: %w", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	authSvc := service.NewAuthService(userRepo, auditRepo, pool, nil)

	user, err := authSvc.CreateAdmin(ctx, username, password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			fmt.Printf("admin user '%s' already exists, skip\n", strings.ToLower(strings.TrimSpace(username)))
			return nil
		}
		return fmt.Errorf("create admin failed: %w", err)
	}

	fmt.Printf("admin user '%s' created successfully\n", user.Username)
	return nil
}

func runHealthcheck() int {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health/ready")
	if err != nil {
		return 1
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func sanitizeCLIError(err error) string {
	if err == nil {
		return ""
	}

	text := strings.ReplaceAll(err.Error(), "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}
