package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/starshop/chatdesk/internal/aggregator"
	"github.com/starshop/chatdesk/internal/api"
	"github.com/starshop/chatdesk/internal/auth"
	"github.com/starshop/chatdesk/internal/classifier"
	"github.com/starshop/chatdesk/internal/config"
	"github.com/starshop/chatdesk/internal/conversation"
	"github.com/starshop/chatdesk/internal/events"
	"github.com/starshop/chatdesk/internal/handoff"
	"github.com/starshop/chatdesk/internal/metrics"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/storage"
	"github.com/starshop/chatdesk/internal/supervisor"
	"github.com/starshop/chatdesk/internal/websocket"
	"github.com/starshop/chatdesk/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting chatdesk backend server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create persistent store (DynamoDB or noop depending on DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// In-memory conversation state and message history
	convs := conversation.NewStore()
	history := conversation.NewHistory()

	// Staff presence tracking with a background staleness sweeper
	tracker := presence.NewTracker()
	sweeper := presence.NewSweeper(tracker, 15*time.Second, cfg.PresenceStale, log.Logger)
	go sweeper.Start(ctx)

	// Create WebSocket hubs
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	staffHub := websocket.NewStaffHub(tracker, log.Logger)
	go staffHub.Run()

	// Event publishers: dashboard hub always, Kafka mirror when enabled
	publishers := events.Fanout{websocket.NewHubPublisher(hub, log.Logger)}

	kafkaCfg := events.LoadKafkaConfig()
	var kafkaPublisher *events.KafkaPublisher
	if kafkaCfg.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(kafkaCfg, log.Logger)
		publishers = append(publishers, kafkaPublisher)
		log.Info().Strs("brokers", kafkaCfg.Brokers).Msg("kafka event mirror enabled")
	}

	// Routing decision engine, bounded by the classification timeout
	engine := classifier.WithTimeout(classifier.NewKeywordClassifier(), cfg.ClassifyTimeout, log.Logger)

	// Handoff queue manager and background dispatcher
	manager := handoff.NewManager(convs, tracker, &handoff.BestAvailable{}, staffHub, publishers, log.Logger)
	dispatcher := handoff.NewDispatchLoop(manager, cfg.DispatchInterval, log.Logger)
	go dispatcher.Run(ctx)

	// Conversation supervisor ties classification, queueing and timers together
	sup := supervisor.New(convs, history, manager, engine, store, publishers, cfg.ReturnToAIDelay, log.Logger)

	// Create dashboard aggregator
	aggregatorService := aggregator.NewAggregator(manager, tracker, hub, log.Logger)
	go aggregatorService.Start(ctx)

	// Create WebSocket handlers
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)
	staffWSHandler := websocket.NewStaffHandler(staffHub, log.Logger)

	// Create API handlers
	chatHandler := api.NewChatHandler(sup, convs, history, log.Logger)
	staffHandler := api.NewStaffHandler(sup, manager, tracker, log.Logger)
	adminHandler := api.NewAdminHandler(convs, manager, tracker, sup, store, log.Logger)
	historyHandler := api.NewHistoryHandler(store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Conversation routes: the customer-facing subset is unauthenticated
	// (customers are anonymous), staff actions require a token
	r.Route("/api/conversations", func(r chi.Router) {
		r.Post("/", chatHandler.CreateConversation)
		r.Get("/{conversationId}", chatHandler.GetConversation)
		r.Post("/{conversationId}/messages", chatHandler.SendMessage)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Post("/{conversationId}/close", staffHandler.CloseConversation)
			r.Post("/{conversationId}/reopen", staffHandler.ReopenConversation)
			r.Post("/{conversationId}/return", staffHandler.ReturnToAI)
			r.Delete("/{conversationId}/return", staffHandler.CancelReturnToAI)
			r.Get("/{conversationId}/decisions", historyHandler.GetDecisions)
		})
	})

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/ws", wsHandler.ServeHTTP)
		r.Get("/ws/staff", staffWSHandler.ServeHTTP)

		r.Route("/api/staff", func(r chi.Router) {
			r.Get("/roster", staffHandler.GetRoster)
			r.Get("/queue", staffHandler.GetQueue)

			r.Route("/{staffId}", func(r chi.Router) {
				r.Post("/checkin", staffHandler.CheckIn)
				r.Post("/checkout", staffHandler.CheckOut)
				r.Post("/heartbeat", staffHandler.Heartbeat)
				r.Post("/status", staffHandler.SetStatus)
				r.Get("/assignments", staffHandler.GetAssignments)
				r.Get("/handoffs", historyHandler.GetStaffHandoffs)
				r.Post("/claim/{conversationId}", staffHandler.Claim)
				r.Post("/conversations/{conversationId}/reply", staffHandler.Reply)
			})
		})

		r.Get("/api/handoffs", historyHandler.GetHandoffs)

		r.Route("/api/admin", func(r chi.Router) {
			r.With(api.RequireSupervisorOrAdmin).Get("/stats", adminHandler.GetStats)
			r.With(api.RequireSupervisorOrAdmin).Post("/queue/wipe", adminHandler.WipeQueue)
			r.With(api.RequireAdmin).Post("/reset", adminHandler.ResetMemory)
			r.With(api.RequireAdmin).Post("/storage/wipe", adminHandler.WipeDynamo)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop background services
	cancel()

	// Stop pending return timers and mark staff offline
	sup.Shutdown()
	tracker.SetAllOffline()

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close kafka publisher")
		}
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"chatdesk-backend"}`)
}
