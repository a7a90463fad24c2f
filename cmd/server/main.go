package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Brownie44l1/leafcare-api/internal/artifact"
	"github.com/Brownie44l1/leafcare-api/internal/config"
	"github.com/Brownie44l1/leafcare-api/internal/handlers"
	"github.com/Brownie44l1/leafcare-api/internal/model"
	"github.com/Brownie44l1/leafcare-api/internal/remedy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var catalogLanguages = []string{"en", "ta"}

// projectPath anchors relative local paths at the project root so the server
// also starts from cmd/server.
func projectPath(path string) string {
	if artifact.IsRemote(path) || filepath.IsAbs(path) {
		return path
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get working directory: %v", err)
	}
	if filepath.Base(wd) == "server" {
		wd = filepath.Join(wd, "../..")
	}
	return filepath.Join(wd, path)
}

func newResolver(ctx context.Context, cfg config.Config) *artifact.Resolver {
	if !artifact.IsRemote(cfg.ModelPath) && !artifact.IsRemote(cfg.MetadataPath) {
		return artifact.NewResolver(nil, projectPath(cfg.ModelCacheDir))
	}

	client, err := artifact.NewS3Client(ctx, artifact.S3Config{
		EndpointURL:     cfg.S3EndpointURL,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	return artifact.NewResolver(client, projectPath(cfg.ModelCacheDir))
}

func loadCatalog(path string) *remedy.Catalog {
	var (
		catalog *remedy.Catalog
		err     error
	)
	if path == "" {
		catalog, err = remedy.Default()
	} else {
		catalog, err = remedy.LoadFile(projectPath(path))
	}
	if err != nil {
		log.Fatalf("Failed to load remedy catalog: %v", err)
	}
	return catalog
}

func main() {
	var envFile string
	flag.StringVar(&envFile, "env", "", "path to load env from")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	slog.SetDefault(cfg.Logger(os.Stderr))

	ctx := context.Background()
	resolver := newResolver(ctx, cfg)

	modelPath, err := resolver.Resolve(ctx, projectPath(cfg.ModelPath))
	if err != nil {
		log.Fatalf("Failed to resolve model: %v", err)
	}
	metadataPath, err := resolver.Resolve(ctx, projectPath(cfg.MetadataPath))
	if err != nil {
		log.Fatalf("Failed to resolve model metadata: %v", err)
	}

	modelServer, err := model.NewServer(modelPath, metadataPath, cfg.OnnxRuntimeLib)
	if err != nil {
		log.Fatalf("Failed to initialize model server: %v", err)
	}
	defer modelServer.Close()

	catalog := loadCatalog(cfg.RemedyCatalogPath)
	if gaps := catalog.Missing(modelServer.Labels(), catalogLanguages); len(gaps) > 0 {
		slog.Warn("labels without remedy entries will use the fallback record", "missing", gaps)
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.NewHandler(modelServer, catalog, cfg.MultipartMemory).AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Port, "model", modelPath, "classes", modelServer.Labels())
	slog.Info("endpoints", "health", "GET /health", "predict", "POST /predict?lang=en|ta")
	slog.Info("upload test", "curl", "curl -X POST -F \"file=@leaf.jpg\" \"http://localhost:"+cfg.Port+"/predict?lang=ta\"")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}

	slog.Info("server stopped")
}
