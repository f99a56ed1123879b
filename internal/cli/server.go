package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shyabid/rolevia/internal/app"
	"github.com/shyabid/rolevia/internal/config"
	"github.com/shyabid/rolevia/internal/domain"
	"github.com/shyabid/rolevia/internal/infra/memory"
	pgstore "github.com/shyabid/rolevia/internal/infra/postgres"
	redisinfra "github.com/shyabid/rolevia/internal/infra/redis"
	"github.com/shyabid/rolevia/internal/infra/webhook"
	transport "github.com/shyabid/rolevia/internal/transport/http"
)

const defaultWebhookPrefix = "https://discord.com/api/webhooks/"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var store app.Store = memory.NewStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool)
	}
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
		store = redisinfra.NewQuizCache(store, redisClient, cacheTTL)
	}

	idleTTL := config.TTLDuration(cfg.Sessions.IdleTTL, 15*time.Minute)
	var authoring app.AuthoringRegistry = memory.NewAuthoringRegistry(idleTTL)
	var taking app.TakingRegistry = memory.NewTakingRegistry(idleTTL)
	if redisClient != nil {
		authoring = redisinfra.NewAuthoringRegistry(authoring, redisClient, idleTTL)
		taking = redisinfra.NewTakingRegistry(taking, redisClient, idleTTL)
	}

	webhookPrefix := cfg.Webhook.Prefix
	if webhookPrefix == "" {
		webhookPrefix = defaultWebhookPrefix
	}

	// Demo collaborators; swap with gateway-backed implementations when
	// wiring a real chat platform connection.
	roles := memory.NewStaticRoleManager(sampleRoles())
	messenger := memory.NewRecordingMessenger()

	service := app.NewService(store, roles, messenger, webhook.NewClient(), authoring, taking, webhookPrefix)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting rolevia on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleRoles provides a minimal role directory for local runs.
func sampleRoles() map[int64][]domain.Role {
	return map[int64][]domain.Role{
		1: {
			{ID: 100, Name: "Member"},
			{ID: 101, Name: "Verified"},
			{ID: 102, Name: "Bots", Managed: true},
		},
	}
}
