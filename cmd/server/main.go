package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/article-engagement-api/internal/api"
	"github.com/article-engagement-api/internal/catalog"
	"github.com/article-engagement-api/internal/config"
	"github.com/article-engagement-api/internal/database"
	"github.com/article-engagement-api/internal/identity"
	"github.com/article-engagement-api/internal/repository"
	"github.com/article-engagement-api/internal/service"
	"github.com/article-engagement-api/internal/validation"
	"github.com/article-engagement-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	cfg        *config.Config
	log        zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "engagement-api",
	Short:         "Article engagement API",
	Long:          "Reactions, bookmarks and discussion threads for published articles.",
	Version:       version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine outside local development
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = os.Getenv("CONFIG_FILE")
		}

		var err error
		cfg, err = config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log = logger.New(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateToCmd)
	catalogCmd.AddCommand(catalogInvalidateCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(catalogCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Str("version", version).Msg("Starting Article Engagement API server...")

		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		repos := repository.New(db)

		articles, closeCatalog, err := buildCatalog(repos)
		if err != nil {
			return err
		}
		defer closeCatalog()

		services := service.NewServices(repos, articles, log)
		verifier := identity.NewJWTVerifier(cfg.Auth.JWTSecret)

		gin.SetMode(gin.ReleaseMode)
		router := api.NewRouter(services, verifier, log, api.WithHealthCheck(db.HealthCheck))

		srv := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.ReadTimeout,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()

		// Graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-serveErr:
			return fmt.Errorf("server failed: %w", err)
		case <-quit:
		}
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited gracefully")
		return nil
	},
}

// buildCatalog wraps the database catalog with the Redis cache when REDIS_URL is set
func buildCatalog(repos *repository.Repositories) (catalog.Catalog, func(), error) {
	store := catalog.NewStore(repos.Article)
	if cfg.Redis.URL == "" {
		log.Info().Msg("Catalog cache disabled")
		return store, func() {}, nil
	}

	client, err := catalog.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	log.Info().Dur("ttl", cfg.Redis.CacheTTL).Msg("Catalog cache enabled")

	return catalog.NewCache(store, client, cfg.Redis.CacheTTL, log), func() { client.Close() }, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB) error {
			return db.RunMigrations(cfg.Database.MigrationsPath)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB) error {
			return db.MigrateDown(cfg.Database.MigrationsPath)
		})
	},
}

var migrateToCmd = &cobra.Command{
	Use:   "to <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return withDB(func(db *database.DB) error {
			return db.MigrateToVersion(cfg.Database.MigrationsPath, uint(target))
		})
	},
}

func withDB(fn func(db *database.DB) error) error {
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()
	return fn(db)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Maintain the article catalog cache",
}

var catalogInvalidateCmd = &cobra.Command{
	Use:   "invalidate <article_id>",
	Short: "Drop a cached article so the next lookup reads the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Redis.URL == "" {
			return errors.New("REDIS_URL is not set, nothing to invalidate")
		}
		id, err := validation.NewValidator().ValidateID("article", args[0])
		if err != nil {
			return err
		}

		client, err := catalog.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()

		// The cache never reaches through to the store on invalidation
		cache := catalog.NewCache(nil, client, cfg.Redis.CacheTTL, log)
		if err := cache.Invalidate(cmd.Context(), id); err != nil {
			return err
		}
		log.Info().Str("article_id", id).Msg("Catalog entry invalidated")
		return nil
	},
}
