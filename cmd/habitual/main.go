package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cache"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/events"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/utils"
)

var CLI struct {
	Version   kong.VersionFlag
	DB        string `help:"SQLite path, PostgreSQL connection string (no password), 'memory' or 'keyring'." default:"${db}"`
	Timezone  string `help:"IANA timezone that decides what 'today' is." default:"${timezone}"`
	ConfigDir string `help:"Directory for logs and the default database." default:"${config_dir}"`
	Debug     bool   `help:"Log at debug level and mirror logs to stderr." default:"${debug}"`
	RedisURL  string `help:"Redis URL for the stats cache shared by all processes (empty: no cache, except in-process for --db memory)." default:"${redis_url}"`
	AMQPURL   string `name:"amqp-url" help:"AMQP URL for domain events (empty disables them, 'keyring' reads it from the OS keyring)." default:"${amqp_url}"`
	AMQPQueue string `name:"amqp-queue" help:"Queue that receives domain events." default:"${amqp_queue}"`

	Init     system.InitCmd     `cmd:"" help:"Initialize habitual storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	DebugCmd system.DebugCmd    `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Keyring  system.KeyringCmd  `cmd:"" help:"Manage secrets in the OS keyring."`
	Backup   system.BackupCmd   `cmd:"" help:"Create, list and restore SQLite backups."`
	Serve    system.ServeCmd    `cmd:"" help:"Serve the JSON HTTP API."`
	Habit    habits.HabitCmd    `cmd:"" help:"Manage habits."`
	Mark     habits.MarkCmd     `cmd:"" help:"Mark a habit as done for a day."`
	Unmark   habits.UnmarkCmd   `cmd:"" help:"Remove a day's completion."`
	Photo    habits.PhotoCmd    `cmd:"" help:"Manage completion photos."`
	Stats    habits.StatsCmd    `cmd:"" help:"Show a habit's statistics."`
	Progress habits.ProgressCmd `cmd:"" help:"Show progress in the current week or month."`
	Today    habits.TodayCmd    `cmd:"" help:"Show today's habits and their status." default:"1"`
	Log      habits.LogCmd      `cmd:"" help:"Show habit log (ASCII history)."`
}

// Commands that manage storage themselves and never touch the tracker.
var storageCommands = []string{"init", "migrate", "doctor", "keyring", "backup", "debug db-path", "debug log-path"}

func needsTracker(command string) bool {
	for _, prefix := range storageCommands {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}

func newParser(cfg config.Config, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Habit scheduling and completion statistics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars(cfg.Vars()),
	}, options...)
	return kong.New(&CLI, options...)
}

// applyFlags copies the parsed global flags over the loaded configuration.
func applyFlags(cfg config.Config) config.Config {
	cfg.DB = CLI.DB
	cfg.Timezone = CLI.Timezone
	cfg.ConfigDir = CLI.ConfigDir
	cfg.Debug = CLI.Debug
	cfg.RedisURL = CLI.RedisURL
	cfg.AMQPURL = CLI.AMQPURL
	cfg.AMQPQueue = CLI.AMQPQueue
	cfg.ListenAddr = CLI.Serve.Addr
	return cfg
}

func main() {
	cfg, err := config.Load()
	apperrors.Fatal(err)

	parser, err := newParser(cfg)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	cfg = applyFlags(cfg)

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.ConfigDir,
		Stderr:    ctx.Command() == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	apperrors.Fatal(run(ctx, cfg, os.Stdout))
}

func run(ctx *kong.Context, cfg config.Config, out io.Writer) error {
	dsn, err := config.ResolveDSN(cfg.DB, keyring.Lookup)
	if err != nil {
		return err
	}
	store := storage.New(dsn)
	defer store.Close()

	appCtx := &cli.Context{Store: store, Config: cfg, Out: out}

	if needsTracker(ctx.Command()) {
		if err := store.Load(); err != nil {
			return err
		}
		t, closeFn, err := newTracker(store, cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		appCtx.Tracker = t
	}

	return ctx.Run(appCtx)
}

func newTracker(store storage.Provider, cfg config.Config) (*tracker.Tracker, func(), error) {
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	_, processLocal := store.(*memory.Store)
	statsCache, err := cache.New(context.Background(), cfg.RedisURL, processLocal)
	if err != nil {
		return nil, nil, err
	}

	amqpURL, err := config.ResolveAMQPURL(cfg.AMQPURL, keyring.Lookup)
	if err != nil {
		statsCache.Close()
		return nil, nil, err
	}
	publisher, err := events.New(amqpURL, cfg.AMQPQueue)
	if err != nil {
		statsCache.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
		if err := statsCache.Close(); err != nil {
			logger.Warn("Failed to close stats cache", "error", err)
		}
	}
	t := tracker.New(store, tracker.Options{
		Cache:    statsCache,
		Events:   publisher,
		Location: loc,
	})
	return t, closeFn, nil
}
