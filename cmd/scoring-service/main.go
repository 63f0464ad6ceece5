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
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/crickline/scoring-service/internal/cache"
	"github.com/crickline/scoring-service/internal/config"
	"github.com/crickline/scoring-service/internal/handlers"
	"github.com/crickline/scoring-service/internal/hub"
	"github.com/crickline/scoring-service/internal/middleware"
	"github.com/crickline/scoring-service/internal/notifier"
	"github.com/crickline/scoring-service/internal/scoring"
	"github.com/crickline/scoring-service/internal/store"
)

func main() {
	fmt.Println("=== Crickline Scoring Service ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Postgres
	pg, err := store.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		fmt.Printf("Failed to connect to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()
	fmt.Println("✓ Connected to Postgres")

	if err := pg.Migrate(cfg.MigrationsDir); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Migrations applied")

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		fmt.Printf("Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	// Fan-out: mutations publish to the change stream, the consumer feeds
	// the hub, the hub feeds WebSocket viewers.
	snapshots := cache.NewRedisWriter(redisClient)
	publisher := notifier.NewStreamPublisher(redisClient)
	svc := scoring.NewService(pg, publisher, snapshots)

	h := hub.NewHub()
	go h.Run(ctx)

	consumer := notifier.NewStreamConsumer(redisClient, h, cfg.ConsumerGroup, cfg.ConsumerID)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			fmt.Printf("Stream consumer stopped: %v\n", err)
		}
	}()

	handler := handlers.NewHandler(ctx, pg, svc, h)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", handler.HandleMetrics)
	r.Get("/ws", handler.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		// Teams
		r.Post("/teams", handler.CreateTeam)
		r.Get("/teams", handler.GetTeams)
		r.Get("/teams/{teamID}", handler.GetTeam)
		r.Put("/teams/{teamID}", handler.UpdateTeam)
		r.Delete("/teams/{teamID}", handler.DeleteTeam)

		// Players
		r.Post("/players", handler.CreatePlayer)
		r.Get("/players", handler.GetPlayers)
		r.Get("/players/stats", handler.GetPlayerStats)
		r.Get("/players/{playerID}", handler.GetPlayer)
		r.Put("/players/{playerID}", handler.UpdatePlayer)
		r.Delete("/players/{playerID}", handler.DeletePlayer)

		// Matches
		r.Post("/matches", handler.CreateMatch)
		r.Get("/matches", handler.GetMatches)
		r.Get("/matches/{matchID}", handler.GetMatch)
		r.Put("/matches/{matchID}", handler.UpdateMatch)
		r.Delete("/matches/{matchID}", handler.DeleteMatch)
		r.Post("/matches/{matchID}/archive", handler.ArchiveMatch)
		r.Post("/matches/{matchID}/end", handler.EndMatch)
		r.Get("/matches/{matchID}/innings/current", handler.GetCurrentInnings)

		// Live scoring
		r.Post("/innings/{inningsID}/initialize", handler.InitializeInnings)
		r.Post("/innings/{inningsID}/balls", handler.RecordBall)
		r.Post("/innings/{inningsID}/undo", handler.UndoLastAction)
		r.Post("/innings/{inningsID}/batsmen", handler.AddBatsman)
		r.Post("/innings/{inningsID}/bowler", handler.ChangeBowler)
		r.Post("/innings/{inningsID}/strike", handler.SwitchStrike)
		r.Post("/innings/{inningsID}/end", handler.EndInnings)

		// Tournament
		r.Get("/points-table", handler.GetPointsTable)
	})

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Scoring service listening on %s\n", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)

	case sig := <-shutdown:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Stop the hub and consumer before refusing new requests
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}
