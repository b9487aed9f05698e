// Command elbchat runs the Hamburg assistant: an HTTP/WebSocket chat server
// with tool calling and retrieval, plus a document ingestion subcommand.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/elbchat/elbchat/config"
	"github.com/elbchat/elbchat/ingest"
	"github.com/elbchat/elbchat/internal/metrics"
	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/orchestrator"
	"github.com/elbchat/elbchat/retrieval"
	"github.com/elbchat/elbchat/server"
	"github.com/elbchat/elbchat/session"
	"github.com/elbchat/elbchat/tool"
	"github.com/elbchat/elbchat/tools"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "elbchat",
		Short:         "Hamburg city-guide assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newIngestCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			engine, cleanup, err := buildEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()
			engine.OnQuery(func(target retrieval.Target) {
				m.CountRetrievalQuery(string(target))
			})

			mdl, err := buildModel(cfg)
			if err != nil {
				return err
			}

			toolRegistry := tool.NewRegistry()
			if err := tools.RegisterBuiltins(toolRegistry, tools.Deps{
				Weather: tools.WeatherConfig{
					BaseURL: cfg.Tools.WeatherAPIURL,
					APIKey:  cfg.Tools.WeatherAPIKey,
				},
				Places: tools.PlacesConfig{
					BaseURL: cfg.Tools.PlacesAPIURL,
					APIKey:  cfg.Tools.PlacesAPIKey,
				},
				Directions: tools.DirectionsConfig{
					BaseURL: cfg.Tools.DirectionsAPIURL,
					APIKey:  cfg.Tools.PlacesAPIKey,
				},
				Engine: engine,
			}); err != nil {
				return fmt.Errorf("register tools: %w", err)
			}

			sessions := session.NewStore(func(o *session.Options) {
				o.WindowCapacity = cfg.Memory.WindowSize
				o.IdleTimeout = cfg.Memory.IdleTimeout
				o.Logger = logger
			})
			go sessions.Run(ctx)

			dispatcher := tool.NewDispatcher(toolRegistry, func(o *tool.DispatcherOptions) {
				o.Logger = logger
			})
			orch := orchestrator.New(mdl, sessions, toolRegistry, dispatcher, engine,
				func(o *orchestrator.Options) {
					o.ModelTimeout = cfg.Model.Timeout
					o.Logger = logger
					o.Metrics = m
				})

			srv := server.New(orch, server.Options{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Logger:          logger,
				Gatherer:        reg,
				Ingester:        ingest.New(engine, logger),
			})
			return srv.ListenAndServe(ctx)
		},
	}
}

func newIngestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file-or-dir>...",
		Short: "Load plain-text documents into the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Retrieval.Backend != "pgvector" {
				return fmt.Errorf("ingest requires the pgvector backend; the memory backend does not persist")
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, cleanup, err := buildEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			ing := ingest.New(engine, logger)
			total := 0
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				var n int
				if info.IsDir() {
					n, err = ing.IngestDir(ctx, path)
				} else {
					n, err = ing.IngestFile(ctx, path)
				}
				if err != nil {
					return err
				}
				total += n
			}
			logger.Info("ingest.done", "chunks", total)
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d chunks\n", total)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) logging.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Output:    os.Stderr,
		AddSource: cfg.Logging.AddSource,
	})
}
