package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/recipe-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/recipe-api/internal/auth"
	"github.com/redmonkez12/recipe-api/internal/config"
	"github.com/redmonkez12/recipe-api/internal/database"
	httpServer "github.com/redmonkez12/recipe-api/internal/http"
	"github.com/redmonkez12/recipe-api/internal/logging"
	"github.com/redmonkez12/recipe-api/internal/recipe"
	"github.com/redmonkez12/recipe-api/internal/user"
)

// @title           Recipe API
// @version         1.0
// @description     Users publish cooking recipes; accounts, sessions and recipe ownership.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.DriverName(),
		"token_strategy", cfg.Auth.TokenStrategy,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db.DB, logger)
		if err != nil {
			return err
		}
		if err := migrator.Up(context.Background()); err != nil {
			return err
		}
	}

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db)
	recipeRepo := recipe.NewRepository(db)
	sessions := auth.NewRedisSessionStore(redisClient)

	authService := auth.NewService(userRepo, sessions, tokenService, logger, cfg.Auth.SessionDuration)
	recipeService := recipe.NewService(recipeRepo, logger)

	authHandler := auth.NewHandler(authService, logger)
	recipeHandler := recipe.NewHandler(recipeService, logger)
	authMiddleware := auth.NewMiddleware(tokenService, sessions)

	router := httpServer.NewRouter(cfg, authHandler, recipeHandler, authMiddleware, db, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenService picks the access token format configured by AUTH_TOKEN_STRATEGY
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenStrategy {
	case config.TokenStrategyJWT:
		svc, err := auth.NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	default:
		svc, err := auth.NewPasetoService(cfg.PasetoKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
