package cli

import (
	"fmt"
	"os"
	"strings"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/format"
	"catalog-editor/internal/logging"
	"catalog-editor/internal/opqueue"
	"catalog-editor/internal/store"
	"catalog-editor/internal/tui"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	User       string
	DBServer   string
	PrettyJSON bool
	Format     string
	LogFile    string
	LogLevel   string

	cfg *store.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "catalog",
		Short:        "Labels/values catalog editor (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive grid editor
  catalog

  # Scriptable commands
  catalog labels list --search rojo
  catalog batch plan ops.json

  # Local backend for development
  catalog dev-server --addr 127.0.0.1:3034
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Backend base URL (overrides apiUrl in config.json and "+store.EnvAPIURL+")")
	cmd.PersistentFlags().StringVar(&app.User, "user", "", "LoggedUser sent to the backend")
	cmd.PersistentFlags().StringVar(&app.DBServer, "db-server", "", "DBServer sent to the backend")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CATALOG_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Write logs to this file")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newLabelsCmd(app))
	cmd.AddCommand(newBatchCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDevServerCmd(app))

	return cmd
}

// config resolves config.json, .env and the environment, then applies flags.
func (app *App) config() (*store.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, err := store.Resolve()
	if err != nil {
		return nil, err
	}
	overrides := []struct {
		flag string
		dst  *string
	}{
		{app.APIURL, &cfg.APIURL},
		{app.User, &cfg.User},
		{app.DBServer, &cfg.DBServer},
		{app.LogFile, &cfg.LogFile},
		{app.LogLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(o.flag); v != "" {
			*o.dst = v
		}
	}
	app.cfg = cfg
	return cfg, nil
}

// logger writes to --log-file when set and to stderr otherwise.
func (app *App) logger(cmd *cobra.Command) (zerolog.Logger, func(), error) {
	cfg, err := app.config()
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	if cfg.LogFile == "" {
		level := cfg.LogLevel
		if level == "" {
			level = "warn"
		}
		lg, err := logging.New().
			FromWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: "15:04:05"}).
			Level(level).
			Make()
		if err != nil {
			return zerolog.Nop(), func() {}, err
		}
		return lg.Logger, func() {}, nil
	}
	lg, err := logging.New().FromPath(cfg.LogFile).Level(cfg.LogLevel).Make()
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	return lg.Logger, func() { _ = lg.Close() }, nil
}

func (app *App) service(queue *opqueue.Store, log zerolog.Logger) (*catalogsync.Service, error) {
	cfg, err := app.config()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("%w (set --api-url, %s or `catalog config set apiUrl <url>`)", catalogsync.ErrNoBaseURL, store.EnvAPIURL)
	}
	return catalogsync.New(catalogsync.Config{
		BaseURL:    cfg.APIURL,
		LoggedUser: cfg.User,
		DBServer:   cfg.DBServer,
	}, queue, catalogsync.WithLogger(log)), nil
}

func runTUI(app *App) error {
	cfg, err := app.config()
	if err != nil {
		return err
	}
	// The grid owns the terminal; logs go to a file or nowhere.
	lg, err := logging.New().FromPath(cfg.LogFile).Level(cfg.LogLevel).Make()
	if err != nil {
		return err
	}
	defer lg.Close()

	queue := opqueue.New(opqueue.WithLogger(lg.Logger))
	svc, err := app.service(queue, lg.Logger)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Service: svc,
		Queue:   queue,
		State:   store.DefaultStateDir(),
		Log:     lg.Logger,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
