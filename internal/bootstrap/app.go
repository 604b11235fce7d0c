// Package bootstrap wires shared dependencies for the API server and the
// worker. Both binaries build the same App so processing behaves
// identically inline and behind the queue.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"docproc-backend/internal/documents"
	"docproc-backend/internal/engine"
	localengine "docproc-backend/internal/engine/local"
	openaiengine "docproc-backend/internal/engine/openai"
	"docproc-backend/internal/extract"
	"docproc-backend/internal/jobs"
	"docproc-backend/internal/pipeline"
	"docproc-backend/internal/queue"
	"docproc-backend/internal/shared/config"
	"docproc-backend/internal/shared/storage/db"
	"docproc-backend/internal/shared/storage/object"
	localstore "docproc-backend/internal/shared/storage/object/local"
	"docproc-backend/internal/shared/telemetry"
	"docproc-backend/internal/users"
	"docproc-backend/internal/vectorstore"
	"docproc-backend/internal/vectorstore/localdisk"
	pgvectorstore "docproc-backend/internal/vectorstore/pgvector"
)

// App holds shared dependencies for both binaries.
type App struct {
	Config config.Config
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo users.Repo
	DocsRepo  documents.Repo
	JobsRepo  jobs.Repo

	UsersService *users.Service
	DocsService  *documents.Service

	Registry    *engine.Registry
	Router      *engine.Router
	Coordinator *pipeline.Coordinator

	DocsHandler     *documents.Handler
	PipelineHandler *pipeline.Handler
}

// Options adjusts how the App is built.
type Options struct {
	// WithQueue enables the SQS client. The API server dispatches via the
	// queue when set; without it, uploads process inline.
	WithQueue bool
}

// Build prepares shared dependencies. A missing or unreachable database
// degrades to in-memory repos and an on-disk vector store, which keeps dev
// setups working with nothing but the binary.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app := &App{Config: cfg}

	app.DB = buildDB(ctx, cfg)

	app.Store = localstore.New(cfg.UploadDir)

	if opts.WithQueue {
		client, err := queue.NewSQSClient(ctx)
		if err != nil {
			telemetry.Warn("bootstrap.queue_disabled", map[string]any{"error": err.Error()})
		} else {
			app.Queue = client
		}
	}

	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.DocsRepo = &documents.PGRepo{DB: app.DB}
		app.JobsRepo = &jobs.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.DocsRepo = documents.NewMemoryRepo()
		app.JobsRepo = jobs.NewMemoryRepo()
	}
	app.UsersService = users.NewService(app.UsersRepo)

	if err := buildEngines(app, cfg); err != nil {
		return nil, err
	}

	app.Coordinator = &pipeline.Coordinator{
		Docs:      app.DocsRepo,
		Jobs:      app.JobsRepo,
		Users:     app.UsersService,
		Extractor: extract.New(),
		Router:    app.Router,
	}

	app.DocsService = &documents.Service{
		Store:     app.Store,
		Repo:      app.DocsRepo,
		Jobs:      app.JobsRepo,
		Users:     app.UsersService,
		Queue:     app.Queue,
		Processor: app.Coordinator,
		Vectors:   &routerVectors{router: app.Router},
	}

	app.DocsHandler = documents.NewHandler(app.DocsService)
	app.PipelineHandler = pipeline.NewHandler(app.Coordinator, app.UsersRepo)

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) *sql.DB {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	conn, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions())
	if err != nil {
		telemetry.Warn("bootstrap.db_unavailable", map[string]any{"error": err.Error()})
		return nil
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		telemetry.Warn("bootstrap.migrations_failed", map[string]any{"error": err.Error()})
		_ = conn.Close()
		return nil
	}
	return conn
}

// buildEngines registers the openai and local engines. Each engine owns its
// vector store: openai uses Postgres with pgvector when a database is
// present, otherwise a disk store; local always uses a disk store so it
// stays available with zero configuration.
func buildEngines(app *App, cfg config.Config) error {
	app.Registry = engine.NewRegistry()

	openaiStoreFn := func() (vectorstore.Store, error) {
		if app.DB != nil {
			return pgvectorstore.New(app.DB), nil
		}
		return localdisk.New(filepath.Join(cfg.VectorDataDir, "openai"))
	}

	app.Registry.Register("openai", func() (engine.Engine, error) {
		store, err := openaiStoreFn()
		if err != nil {
			return nil, fmt.Errorf("openai vector store: %w", err)
		}
		client, err := openaiengine.NewClient(openaiengine.Config{
			APIKey:      cfg.OpenAIAPIKey,
			ChatModel:   cfg.OpenAIModel,
			EmbedModel:  cfg.OpenAIEmbedModel,
			MaxTokens:   cfg.OpenAIMaxTokens,
			Temperature: cfg.OpenAITemperature,
		})
		if err != nil {
			return nil, err
		}
		return openaiengine.NewEngine(client, store, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	})

	app.Registry.Register("local", func() (engine.Engine, error) {
		store, err := localdisk.New(filepath.Join(cfg.VectorDataDir, "local"))
		if err != nil {
			return nil, fmt.Errorf("local vector store: %w", err)
		}
		return localengine.NewEngine(store), nil
	})

	preferred := strings.TrimSpace(cfg.PreferredEngine)
	if preferred == "" {
		preferred = "openai"
	}
	app.Router = engine.NewRouter(app.Registry, preferred, []string{"openai", "local"})
	return nil
}

// routerVectors adapts the engine router to the documents service's vector
// removal hook. Deletion sweeps every available engine, not just the active
// one, so chunks indexed before an engine switch do not linger until the
// next orphan cleanup.
type routerVectors struct {
	router *engine.Router
}

func (r *routerVectors) RemoveDocument(ctx context.Context, documentID, userID string) error {
	engines := r.router.AvailableEngines(ctx)
	if len(engines) == 0 {
		return engine.ErrUnavailable
	}

	var firstErr error
	for _, eng := range engines {
		if err := eng.RemoveDocument(ctx, documentID, userID); err != nil {
			telemetry.Warn("bootstrap.vector_remove_failed", map[string]any{
				"document_id": documentID,
				"user_id":     userID,
				"engine":      eng.Name(),
				"error":       err.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("remove from %s: %w", eng.Name(), err)
			}
		}
	}
	return firstErr
}
