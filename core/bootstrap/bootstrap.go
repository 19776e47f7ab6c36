package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/artfuse/stylebot/core/config"
	coredatabase "github.com/artfuse/stylebot/core/database"
	"github.com/artfuse/stylebot/core/logger"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when the history store is disabled.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger and, when history is enabled, connects to the
// database and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if !opts.Config.History.Enabled {
		return &Result{}, nil
	}

	dbCfg := databaseConfig(opts.Config.History)

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: history database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}

func databaseConfig(h coreconfig.HistoryConfig) coredatabase.Config {
	return coredatabase.Config{
		Host:           h.Host,
		Port:           h.Port,
		User:           h.User,
		Password:       h.Password,
		Name:           h.Name,
		SSLMode:        h.SSLMode,
		MaxConnections: h.MaxConnections,
	}
}
