package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcsstorage "cloud.google.com/go/storage"
	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/archive"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
	"github.com/castlemilk/wealthportal/backend/internal/billing"
	"github.com/castlemilk/wealthportal/backend/internal/chat"
	"github.com/castlemilk/wealthportal/backend/internal/config"
	"github.com/castlemilk/wealthportal/backend/internal/extraction"
	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/intent"
	"github.com/castlemilk/wealthportal/backend/internal/llm"
	"github.com/castlemilk/wealthportal/backend/internal/logger"
	"github.com/castlemilk/wealthportal/backend/internal/search"
	"github.com/castlemilk/wealthportal/backend/internal/service"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var (
		storeImpl    store.Store
		statements   archive.Archive
		firebaseAuth *auth.FirebaseAuth
	)

	if cfg.IsLocal() {
		// Local development: in-process store and archive, mock authentication
		log.Info("using in-memory store and archive for local development")
		storeImpl = store.NewMemoryStore()
		statements = archive.NewMemoryArchive()
	} else {
		if cfg.ProjectID == "" {
			return errors.New("GOOGLE_CLOUD_PROJECT is required outside local mode")
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("create firestore client: %w", err)
		}
		defer firestoreClient.Close()
		storeImpl = store.NewFirestoreStore(firestoreClient)

		if cfg.StatementsBucket == "" {
			return errors.New("STATEMENTS_BUCKET is required outside local mode")
		}
		gcsClient, err := gcsstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		defer gcsClient.Close()
		statements = archive.NewGCSArchive(gcsClient.Bucket(cfg.StatementsBucket))

		if cfg.SkipAuth {
			log.Warn("SKIP_AUTH enabled: debug impersonation only, never use in production")
		} else {
			firebaseAuth, err = auth.NewFirebaseAuth(ctx, cfg.ProjectID)
			if err != nil {
				return fmt.Errorf("initialize firebase auth: %w", err)
			}
		}
	}

	if cfg.DatabaseURL != "" {
		conversations, err := store.NewPostgresConversationStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect conversation database: %w", err)
		}
		defer conversations.Close()
		storeImpl = store.WithConversations(storeImpl, conversations)
		log.Info("chat conversations stored in postgres")
	}

	extractionSvc := extraction.NewExtractionService(extraction.Config{DraftTTL: cfg.DraftTTL, Logger: log})
	defer extractionSvc.Close()

	factsBuilder := facts.NewBuilder(storeImpl, log)
	orchestrator := chat.NewOrchestrator(
		factsBuilder,
		intent.NewRouter(log),
		newStreamer(ctx, cfg, log),
		storeImpl,
		chat.Config{MaxMessageChars: cfg.ChatMaxMessageChars, Logger: log},
	)

	deps := service.Deps{
		Store:      storeImpl,
		Extraction: extractionSvc,
		Archive:    statements,
		Facts:      factsBuilder,
		Chat:       orchestrator,
		Directory:  newDirectory(cfg, storeImpl, log),
	}
	if cfg.StripeSecretKey != "" {
		deps.Billing = billing.NewSyncer(storeImpl, billing.NewStripeBilling(cfg.StripeSecretKey), log)
	}
	portal := service.NewPortalService(deps)

	var interceptors []connect.Interceptor
	switch {
	case firebaseAuth != nil:
		interceptors = append(interceptors, auth.NewAuthInterceptor(firebaseAuth))
	case cfg.IsLocal():
		interceptors = append(interceptors, auth.LocalDevInterceptor())
	default:
		interceptors = append(interceptors, auth.DebugAuthInterceptor())
	}
	path, handler := api.NewPortalServiceHandler(portal, connect.WithInterceptors(interceptors...))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Mount(path, handler)
	if cfg.StripeWebhookSecret != "" {
		r.Method(http.MethodPost, "/webhooks/stripe", billing.NewWebhookHandler(storeImpl, cfg.StripeWebhookSecret, log))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(newCORS(cfg.AllowedOrigins).Handler(r), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Port, "procedures", path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newStreamer(ctx context.Context, cfg *config.Config, log *slog.Logger) llm.Streamer {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set: only intent-routed chat answers are available")
		return llm.Unconfigured{}
	}
	streamer, err := llm.NewGeminiStreamer(ctx, llm.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		Temperature: cfg.ChatTemperature,
		MaxTokens:   cfg.ChatMaxTokens,
		Logger:      log,
	})
	if err != nil {
		log.Error("failed to create gemini client", "error", err)
		return llm.Unconfigured{}
	}
	return streamer
}

func newDirectory(cfg *config.Config, s store.Store, log *slog.Logger) search.Directory {
	if cfg.AlgoliaAppID == "" || cfg.AlgoliaAPIKey == "" {
		return search.NewStoreDirectory(s)
	}
	dir, err := search.NewClientDirectory(search.Config{
		AppID:     cfg.AlgoliaAppID,
		APIKey:    cfg.AlgoliaAPIKey,
		IndexName: cfg.AlgoliaIndexName,
	})
	if err != nil {
		log.Error("algolia unavailable, searching the store directly", "error", err)
		return search.NewStoreDirectory(s)
	}
	return dir
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Content-Type",
			"User-Agent",
			"X-User-Agent",
			"X-Debug-Impersonate-User",
			"X-Debug-Role",
		},
		ExposedHeaders: []string{
			"Connect-Content-Encoding",
			"Grpc-Status",
			"Grpc-Message",
		},
		AllowCredentials: true,
	})
}
