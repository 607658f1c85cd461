package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Skufu/medless/internal/analysis"
	"github.com/Skufu/medless/internal/database"
	"github.com/Skufu/medless/internal/dosing"
	"github.com/Skufu/medless/internal/lead"
	"github.com/Skufu/medless/internal/medication"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Port          string
	DatabaseURL   string
	EnableDB      bool
	RunMigrations bool
	RedisAddr     string
	CacheTTL      time.Duration
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	h := &handlers{planner: dosing.NewPlanner()}

	var (
		meds  medication.Repository
		leads lead.Repository
	)
	if cfg.EnableDB {
		if cfg.RunMigrations {
			if err := database.Migrate(cfg.DatabaseURL); err != nil {
				log.Fatalf("database migration failed: %v", err)
			}
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer pool.Close()

		h.db = pool
		meds = medication.WithCache(medication.NewRepository(pool), newCache(ctx, cfg, h))
		leads = lead.NewRepository(pool)
	}
	h.meds = meds
	h.analyzer = analysis.NewService(h.planner, meds, leads)

	router := setupRouter(h, detectStaticRoot())
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	log.Printf("server listening on :%s (db=%t)", cfg.Port, cfg.EnableDB)
	waitForShutdown(server)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EnableDB:      strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		RunMigrations: strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	return cfg, nil
}

// newCache prefers Redis and falls back to process memory when it is not
// configured or not reachable at startup.
func newCache(ctx context.Context, cfg *Config, h *handlers) medication.Cache {
	if cfg.RedisAddr == "" {
		return medication.NewMemoryCache(cfg.CacheTTL)
	}

	rc := medication.NewRedisCache(cfg.RedisAddr, cfg.CacheTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Printf("redis unavailable at %s, using memory cache: %v", cfg.RedisAddr, err)
		_ = rc.Close()
		return medication.NewMemoryCache(cfg.CacheTTL)
	}

	h.cache = rc
	return rc
}

func setupRouter(h *handlers, staticRoot string) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	if staticRoot != "" {
		router.Static("/static", staticRoot)
		router.StaticFile("/", filepath.Join(staticRoot, "index.html"))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.ready)

	api := router.Group("/api")
	api.POST("/analyze", h.analyze)
	api.GET("/products", h.products)
	api.GET("/medications", h.listMedications)
	api.GET("/medications/search/:query", h.searchMedications)

	return router
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// detectStaticRoot looks for the wizard frontend in public/ next to the
// working directory or up to two levels above it.
func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		public := filepath.Join(dir, "public")
		if fileExists(filepath.Join(public, "index.html")) {
			return public
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
