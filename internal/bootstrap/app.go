package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/assist"
	googleauth "notes-backend/internal/auth"
	"notes-backend/internal/capture"
	"notes-backend/internal/llm"
	"notes-backend/internal/llm/gemini"
	"notes-backend/internal/llm/openai"
	"notes-backend/internal/notes"
	"notes-backend/internal/pipeline"
	"notes-backend/internal/queue"
	"notes-backend/internal/recordings"
	"notes-backend/internal/services/health"
	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/server"
	"notes-backend/internal/shared/storage/db"
	"notes-backend/internal/shared/storage/object"
	localstore "notes-backend/internal/shared/storage/object/local"
	s3store "notes-backend/internal/shared/storage/object/s3"
	"notes-backend/internal/users"
	"notes-backend/internal/workerproc"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	NotesRepo         notes.Repo
	UsersRepo         users.Repo
	NotesService      *notes.Service
	UsersService      *users.Service
	Processor         *pipeline.Processor
	CaptureManager    *capture.Manager
	Tracker           *recordings.Tracker
	NotesHandler      *notes.Handler
	RecordingsHandler *recordings.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
	Health            *health.Service
	WorkerRunner      *workerproc.Runner
}

// Build prepares shared dependencies and registers routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		NotesHandler:      app.NotesHandler,
		RecordingsHandler: app.RecordingsHandler,
		UsersHandler:      app.UsersHandler,
		GoogleAuth:        app.GoogleAuth,
		Health:            app.Health,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		signer := localstore.NewSigner(cfg.PublicBaseURL, cfg.AudioURLSecret)
		return localstore.New(cfg.LocalStoreDir, signer), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// buildClients picks the speech and chat providers. Speech always goes
// through the OpenAI-compatible API; chat may be served by Gemini instead.
func buildClients(ctx context.Context, ai config.AIConfig) (llm.SpeechClient, llm.ChatClient, error) {
	var (
		speech llm.SpeechClient = llm.Unconfigured{}
		chat   llm.ChatClient   = llm.Unconfigured{}
	)
	if strings.TrimSpace(ai.APIKey) != "" {
		timeout := time.Duration(ai.TimeoutSeconds) * time.Second
		client, err := openai.NewClient(ai.APIKey, ai.BaseURL, timeout)
		if err != nil {
			return nil, nil, err
		}
		speech, chat = client, client
	} else {
		log.Printf("bootstrap: LLM_API_KEY empty; transcription and summaries are disabled")
	}
	if ai.Provider == "gemini" && strings.TrimSpace(ai.GeminiAPIKey) != "" {
		client, err := gemini.NewClient(ctx, ai.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		chat = client
	}
	return speech, chat, nil
}

func buildServices(ctx context.Context, app *App) error {
	var notesRepo notes.Repo
	var userRepo users.Repo
	var pinger health.Pinger

	if app.DB != nil {
		notesRepo = &notes.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		pinger = app.DB
	} else {
		notesRepo = notes.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	speech, chat, err := buildClients(ctx, app.Config.AI)
	if err != nil {
		return err
	}

	notesSvc := &notes.Service{
		Repo:         notesRepo,
		Store:        app.Store,
		Answerer:     assist.NewAnswerer(chat, app.Config.AI),
		SignedURLTTL: app.Config.Retention.SignedURLTTL,
		RetentionAge: app.Config.Retention.MaxAge,
	}
	processor := &pipeline.Processor{
		Transcriber: assist.NewTranscriber(speech, app.Config.AI),
		Summarizer:  assist.NewSummarizer(chat, app.Config.AI),
		Titler:      assist.NewTitler(chat, app.Config.AI),
		Notes:       notesSvc,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	var audio notes.AudioVerifier
	if local, ok := app.Store.(*localstore.Store); ok && local.Signer() != nil {
		audio = local.Signer()
	}

	manager := capture.NewManager(nil, nil)
	tracker := recordings.NewTracker()
	recordingsHandler := recordings.NewHandler(manager, tracker, processor, app.Queue, app.Store)
	recordingsHandler.Participants = userSvc

	app.NotesRepo = notesRepo
	app.UsersRepo = userRepo
	app.NotesService = notesSvc
	app.UsersService = userSvc
	app.Processor = processor
	app.CaptureManager = manager
	app.Tracker = tracker
	app.NotesHandler = notes.NewHandler(notesSvc, processor, audio, userSvc)
	app.RecordingsHandler = recordingsHandler
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc
	app.Health = health.NewService(pinger)
	app.WorkerRunner = &workerproc.Runner{Store: app.Store, Processor: processor}

	if app.NotesHandler == nil || app.RecordingsHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
