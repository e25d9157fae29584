package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tubedigest/domain/repository"
	"tubedigest/infrastructure/cache"
	youtubeclient "tubedigest/infrastructure/clients/youtube"
	"tubedigest/infrastructure/configuration"
	"tubedigest/infrastructure/logger"
	"tubedigest/infrastructure/persistence"
	"tubedigest/infrastructure/pubsub"
	"tubedigest/infrastructure/securetoken"
	httpHandler "tubedigest/interfaces/http"
	"tubedigest/server"
	"tubedigest/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	logger.GetLogger().WithField("vendor", vendor).WithField("ping", db.Ping()).Info("Database connected.")

	cipher, err := securetoken.New(app.TokenEncKey)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Token cipher initialization failed")
		os.Exit(1)
	}

	var (
		userRepository       repository.IUser
		credentialRepository repository.ICredential
		selectionRepository  repository.ISelection
	)
	if vendor == "mssql" {
		if err := ensureSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("Schema initialization failed")
			os.Exit(1)
		}
		userRepository = persistence.NewUserRepositoryMSSQL(db)
		credentialRepository = persistence.NewCredentialRepositoryMSSQL(db, cipher)
		selectionRepository = persistence.NewSelectionRepositoryMSSQL(db)
	} else {
		if err := ensureSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("Schema initialization failed")
			os.Exit(1)
		}
		userRepository = persistence.NewUserRepository(db)
		credentialRepository = persistence.NewCredentialRepository(db, cipher)
		selectionRepository = persistence.NewSelectionRepository(db)
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - continuing without selection events")
		pubSubClient = nil
	}
	selectionEvents := pubsub.NewSelectionEvents(pubSubClient, configuration.C.Pubsub.Topic)

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	directoryCache := cache.NewDirectoryCache(redisClient)
	if redisClient != nil {
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	directory := youtubeclient.NewYouTubeClient(&youtubeclient.Config{
		ClientID:     configuration.C.OAuth.Google.ClientID,
		ClientSecret: configuration.C.OAuth.Google.ClientSecret,
		RedirectURL:  configuration.C.OAuth.Google.RedirectURI,
	})

	sessionUsecase := usecase.NewSessionUsecase(userRepository, credentialRepository, app.SecretKey)
	channelUsecase := usecase.NewChannelUsecase(directory, credentialRepository, selectionRepository, selectionEvents, directoryCache)

	sessionHandler := httpHandler.NewSessionHandler(sessionUsecase)
	googleOAuthHandler := httpHandler.NewGoogleOAuthHandler(sessionUsecase)
	channelHandler := httpHandler.NewChannelHandler(channelUsecase)

	router := server.InitiateRouter(sessionHandler, googleOAuthHandler, channelHandler)

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if pubSubClient != nil {
		_ = pubSubClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase picks the vendor: MSSQL in production or when forced via
// DB_VENDOR, PostgreSQL otherwise.
func InitiateDatabase() (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, "", err
		}
		return db, "mssql", nil
	}
	if env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, "", err
		}
		return db, "mssql", nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, "", err
	}
	return db, "postgres", nil
}

func ensureSchema(db *sql.DB) error {
	if err := persistence.EnsureUserSchema(db); err != nil {
		return err
	}
	if err := persistence.EnsureCredentialSchema(db); err != nil {
		return err
	}
	return persistence.EnsureSelectionSchema(db)
}

func ensureSchemaMSSQL(db *sql.DB) error {
	if err := persistence.EnsureUserSchemaMSSQL(db); err != nil {
		return err
	}
	if err := persistence.EnsureCredentialSchemaMSSQL(db); err != nil {
		return err
	}
	return persistence.EnsureSelectionSchemaMSSQL(db)
}
