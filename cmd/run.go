package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"wagerpool/api"
	"wagerpool/bot"
	"wagerpool/config"
	"wagerpool/database"
	"wagerpool/events"
	"wagerpool/infrastructure"
	"wagerpool/metrics"
	"wagerpool/repository"
	"wagerpool/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting wagerpool...")

	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	roles := service.NewStaticRoleRegistry(cfg.AdminAddresses)
	betService := service.NewBetService(uowFactory, roles, cfg)
	accountService := service.NewAccountService(uowFactory)
	log.Printf("Services initialized successfully (%d admin address(es))", len(cfg.AdminAddresses))

	// Initialize metrics
	log.Println("Initializing metrics...")
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.NewCollectors(registry).Attach(eventBus)
	metricsServer := metrics.StartMetricsServer(cfg.MetricsAddr, registry, db.Ping)
	log.Println("Metrics server started successfully")

	// Initialize NATS event forwarding
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled() {
		log.Println("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureBetEventStream(mapper.GetAllSubjects()); err != nil {
			natsClient.Close()
			return fmt.Errorf("failed to ensure NATS stream: %w", err)
		}
		infrastructure.NewNATSEventPublisher(natsClient, mapper).Attach(eventBus)
		log.Println("NATS event publisher initialized successfully")
	}

	// Initialize Discord notifier
	var discordBot *bot.Bot
	if cfg.DiscordEnabled() {
		log.Println("Initializing Discord bot...")
		botConfig := bot.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
		}
		discordBot, err = bot.New(botConfig, betService, eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		log.Println("Discord bot initialized successfully")
	}

	// Start HTTP API
	auth := api.NewAuthenticator(cfg.JWTSecret)
	server := api.NewServer(cfg, betService, accountService, auth, db.Healthy)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for context cancellation
	log.Printf("wagerpool is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}

	// Cleanup resources
	log.Println("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.Printf("Error closing Discord bot: %v", err)
		}
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	log.Println("Closing database connection...")
	log.Println("Shutdown completed")
	return nil
}

// configureLogging applies the configured level to the structured logger
func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
