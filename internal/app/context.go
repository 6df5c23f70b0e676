package app

import (
	"database/sql"
	"log/slog"
	"net/http"
	"path/filepath"

	"taskflow/internal/auth"
	"taskflow/internal/blob"
	"taskflow/internal/config"
	"taskflow/internal/db"
	"taskflow/internal/events"
	"taskflow/internal/identity"
	"taskflow/internal/migrate"
	"taskflow/internal/notify"
	"taskflow/internal/server"
	"taskflow/internal/service"
)

// App wires the configuration, database and services together. One
// instance backs both the HTTP server and the CLI commands.
type App struct {
	Cfg        *config.Config
	DB         *sql.DB
	Users      *identity.Store
	Files      *blob.Store
	Hub        *notify.Hub
	Events     *events.Writer
	Auth       *auth.Service
	Accounts   *service.AccountService
	Developers *service.DeveloperService
	Tasks      *service.TaskService
	Logger     *slog.Logger
}

// Load reads the workspace config, opens and migrates the database and
// builds the service graph.
func Load(workspace string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	return build(cfg, logger)
}

func build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := db.Open(db.Config{Workspace: cfg.Workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}

	users := identity.NewStore(conn)
	files := blob.NewStore(uploadsDir(cfg))
	hub := notify.NewHub(logger)
	writer := &events.Writer{}
	provider := auth.Provider{Settings: auth.Settings{
		Key:             cfg.JWT.Key,
		Issuer:          cfg.JWT.Issuer,
		Audience:        cfg.JWT.Audience,
		LifetimeMinutes: cfg.JWT.LifetimeMinutes,
		RefreshDays:     cfg.JWT.RefreshDays,
	}}

	developers := service.NewDeveloperService(conn, users, files, logger)
	developers.Events = writer
	tasks := service.NewTaskService(conn, files, hub, logger)
	tasks.Events = writer

	return &App{
		Cfg:        cfg,
		DB:         conn,
		Users:      users,
		Files:      files,
		Hub:        hub,
		Events:     writer,
		Auth:       auth.NewService(users, provider, logger),
		Accounts:   service.NewAccountService(users, logger),
		Developers: developers,
		Tasks:      tasks,
		Logger:     logger,
	}, nil
}

// Handler builds the HTTP API handler over the service graph.
func (a *App) Handler() (http.Handler, error) {
	return server.New(server.Config{
		Auth:       a.Auth,
		Accounts:   a.Accounts,
		Developers: a.Developers,
		Tasks:      a.Tasks,
		Hub:        a.Hub,
		JWTSecret:  a.Cfg.JWT.Key,
		BaseURL:    a.Cfg.Server.BaseURL,
		Logger:     a.Logger,
	})
}

func (a *App) Close() error {
	return a.DB.Close()
}

func uploadsDir(cfg *config.Config) string {
	dir := cfg.Uploads.Dir
	if filepath.IsAbs(dir) {
		return dir
	}
	workspace := cfg.Workspace
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, dir)
}
