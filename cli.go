package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"timeline-editor/api"
	"timeline-editor/config"
	"timeline-editor/logging"
	"timeline-editor/preset"
	"timeline-editor/session"
	"timeline-editor/transfer"
)

// App carries settings shared by every subcommand.
type App struct {
	Cfg config.Config
	Log *slog.Logger

	logCloser io.Closer
}

func NewRootCmd(cfg config.Config) *cobra.Command {
	app := &App{Cfg: cfg}

	cmd := &cobra.Command{
		Use:          "timeline-editor",
		Short:        "Preset and timeline editor service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => serve.
			return runServe(cmd.Context(), app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.Cfg.Normalize()
		if err := app.Cfg.Validate(); err != nil {
			return err
		}
		app.Log, app.logCloser = logging.Init(logging.Options{
			Level:  app.Cfg.LogLevel,
			Format: app.Cfg.LogFormat,
			File:   app.Cfg.LogFile,
		})
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	f := cmd.PersistentFlags()
	f.StringVar(&app.Cfg.Store, "store", cfg.Store, "Persistence backend (file|sqlite)")
	f.StringVar(&app.Cfg.PresetFile, "preset-file", cfg.PresetFile, "JSON file for the file backend")
	f.StringVar(&app.Cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "Database path for the sqlite backend")
	f.StringVar(&app.Cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	f.StringVar(&app.Cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (console|json)")
	f.StringVar(&app.Cfg.LogFile, "log-file", cfg.LogFile, "Optional rotating log file")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

// openPresets opens the configured backend. The returned close func releases it.
func openPresets(app *App) (*preset.Manager, func() error, error) {
	var (
		store   preset.Persister
		closeFn = func() error { return nil }
	)
	switch app.Cfg.Store {
	case config.StoreSQLite:
		s, err := preset.OpenSQLiteStore(app.Cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	default:
		store = preset.NewFileStore(app.Cfg.PresetFile)
	}
	pm, err := preset.NewManager(store, app.Log)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("load presets: %w", err), closeFn())
	}
	return pm, closeFn, nil
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app)
		},
	}
	cmd.Flags().IntVar(&app.Cfg.Port, "port", app.Cfg.Port, "Listen port")
	return cmd
}

func runServe(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pm, closeStore, err := openPresets(app)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              app.Cfg.Addr(),
		Handler:           api.RegisterRoutes(pm, session.NewManager(), app.Log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		app.Log.Info("timeline-editor listening", slog.String("addr", srv.Addr), slog.String("store", app.Cfg.Store))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, closeStore, err := openPresets(app)
			if err != nil {
				return err
			}
			defer closeStore()

			coll := pm.Snapshot()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCHARACTERS\tEVENTS\tSELECTED")
			for _, p := range coll.Presets {
				named := len(preset.ValidCharacterIDs(p))
				sel := ""
				if coll.SelectedPresetID != nil && *coll.SelectedPresetID == p.ID {
					sel = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Name, named, len(p.Timeline), sel)
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var id, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all presets, or one with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := transfer.ParseFormat(format)
			if err != nil {
				return err
			}
			pm, closeStore, err := openPresets(app)
			if err != nil {
				return err
			}
			defer closeStore()

			var v any = pm.Snapshot().Presets
			if id != "" {
				p, ok := pm.Get(id)
				if !ok {
					return fmt.Errorf("preset %q: %w", id, preset.ErrNotFound)
				}
				v = p
			}
			data, err := transfer.Encode(v, f)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0644)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Export only this preset")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var into string
	var single bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import presets from a JSON file",
		Long: "Replaces the collection with the presets in <file>, each under a fresh id.\n" +
			"With --single the file holds one preset that is added; with --into it\n" +
			"replaces the content of an existing preset and keeps its id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pm, closeStore, err := openPresets(app)
			if err != nil {
				return err
			}
			defer closeStore()

			switch {
			case into != "":
				imported, err := transfer.DecodePreset(data)
				if err != nil {
					return err
				}
				_, ok, err := pm.Edit(into, func(target preset.Preset) preset.Preset {
					return transfer.ImportInto(target, imported)
				})
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("preset %q: %w", into, preset.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported into %s\n", into)
			case single:
				p, err := transfer.DecodePreset(data)
				if err != nil {
					return err
				}
				p = transfer.ReassignIDs(p)
				if err := pm.Add(p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", p.ID)
			default:
				presets, err := transfer.DecodeCollection(data)
				if err != nil {
					return err
				}
				for i := range presets {
					presets[i] = transfer.ReassignIDs(presets[i])
				}
				if err := pm.BulkReplace(presets); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d presets\n", len(presets))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "Replace the content of this preset, keeping its id")
	cmd.Flags().BoolVar(&single, "single", false, "File holds one preset to add")
	return cmd
}
