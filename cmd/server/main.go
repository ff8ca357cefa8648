package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/eslab/simple-blog/pkg/simpleblog"
	"github.com/eslab/simple-blog/pkg/simpleblog/api"
	"github.com/eslab/simple-blog/pkg/simpleblog/config"
)

// ServerEnv is the environment surface of the server binary.
type ServerEnv struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
}

func main() {
	var env ServerEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	serverConfig, err := config.Load(
		config.WithPort(env.Port),
		config.WithEnvironment(env.Environment),
		config.WithDatabaseURL(env.DatabaseURL),
	)
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	ctx := context.Background()
	stores, closeStores, err := serverConfig.BuildStores(ctx)
	if err != nil {
		log.Fatalf("Failed to build stores: %v", err)
	}
	defer closeStores()

	router, err := buildRouter(stores, serverConfig)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Simple Blog Server starting on port %s (env: %s, store: %s)",
			serverConfig.Port, serverConfig.Environment, serverConfig.DatabaseType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func buildRouter(stores *config.Stores, serverConfig *config.ServerConfig) (http.Handler, error) {
	notifier := simpleblog.NewLogNotifier(slog.Default())

	blogs, err := simpleblog.NewResource("blog", stores.Blogs,
		simpleblog.WithNotifier[*simpleblog.Blog](notifier))
	if err != nil {
		return nil, err
	}
	posts, err := simpleblog.NewResource("post", stores.Posts,
		simpleblog.WithNotifier[*simpleblog.Post](notifier))
	if err != nil {
		return nil, err
	}
	tags, err := simpleblog.NewResource("tag", stores.Tags,
		simpleblog.WithNotifier[*simpleblog.Tag](notifier))
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Middleware. No blanket timeout: streamed collection reads stay open
	// until the cursor drains.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "environment": "%s", "store": "%s"}`,
			serverConfig.Environment, serverConfig.DatabaseType)
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/blogs", api.NewEntityHandler[simpleblog.Blog](blogs).Routes())
		r.Mount("/posts", api.NewEntityHandler[simpleblog.Post](posts).Routes())
		r.Mount("/tags", api.NewEntityHandler[simpleblog.Tag](tags).Routes())
	})

	return r, nil
}
