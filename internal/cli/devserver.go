package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"catalog-editor/internal/devserver"

	"github.com/spf13/cobra"
)

const defaultDevServerAddr = "127.0.0.1:3034"

func newDevServerCmd(app *App) *cobra.Command {
	var addr string
	var dbPath string
	var seed bool

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run a local SQLite-backed catalog backend",
		Long: strings.TrimSpace(`
Serve POST /api/cat/crudLabelsValues (ProcessType=GetAll|CRUD) from a local SQLite
database. Batches run in one transaction: one failing operation rejects the batch.

Point the editor at it with --api-url http://<addr>.
`),
		Example: strings.TrimSpace(`
catalog dev-server --addr 127.0.0.1:3034
catalog --api-url http://127.0.0.1:3034 labels list
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			listen := strings.TrimSpace(addr)
			if listen == "" && cfg.DevServer != nil {
				listen = strings.TrimSpace(cfg.DevServer.Addr)
			}
			if listen == "" {
				listen = defaultDevServerAddr
			}
			path := strings.TrimSpace(dbPath)
			if path == "" {
				if path, err = cfg.DevServerDBPath(); err != nil {
					return writeErr(cmd, err)
				}
			}

			log, done, err := app.logger(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := devserver.Open(ctx, path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			if seed {
				seeded, err := db.Seed(ctx, devserver.SampleCatalog())
				if err != nil {
					return writeErr(cmd, err)
				}
				if seeded {
					log.Info().Str("db", path).Msg("seeded sample catalog")
				}
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":   listen,
					"url":    "http://" + listen,
					"dbPath": path,
				},
			})
			if err := devserver.NewServer(db, log).ListenAndServe(ctx, listen); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default "+defaultDevServerAddr+")")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default <config dir>/devserver.db)")
	cmd.Flags().BoolVar(&seed, "seed", true, "Load a sample catalog into an empty database")
	return cmd
}
