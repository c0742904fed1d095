package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/statecore/internal/agent"
	"github.com/dshills/statecore/internal/attrs"
	"github.com/dshills/statecore/internal/config"
	"github.com/dshills/statecore/internal/event"
	"github.com/dshills/statecore/internal/event/topic"
	"github.com/dshills/statecore/internal/logging"
	"github.com/dshills/statecore/internal/loop"
	"github.com/dshills/statecore/internal/metrics"
	"github.com/dshills/statecore/internal/source"
	"github.com/dshills/statecore/internal/validate"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

type watchOptions struct {
	format      string
	metricsAddr string
	rulesPath   string
	scriptPath  string
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [FILE]",
		Short: "Load an attribute file and re-apply it whenever it changes",
		Long: "Load an attribute file into a store, log every attribute change and\n" +
			"re-apply the file when it is written. SIGHUP forces a reload.",
		Example: "  statecore watch settings.yaml\n" +
			"  statecore watch --rules rules.yaml --metrics-addr :9090 settings.toml",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *root.cfg
			if len(args) == 1 {
				cfg.Source.Path = args[0]
			}
			if opts.format != "" {
				cfg.Source.Format = opts.format
			}
			if opts.metricsAddr != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Addr = opts.metricsAddr
			}
			if err := config.Validate(&cfg); err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd.ErrOrStderr(), &cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "File format (toml, yaml, json); detected by extension when empty")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "Validate attributes against the tag rules in this file")
	cmd.Flags().StringVar(&opts.scriptPath, "script", "", "Validate attributes with the Lua validate function in this file")
	return cmd
}

// runWatch serves until ctx is done.
func runWatch(ctx context.Context, logOut io.Writer, cfg *config.Config, opts *watchOptions) error {
	if cfg.Source.Path == "" {
		return errors.New("no attribute file: pass FILE or set source.path")
	}

	logger, err := logging.Setup(cfg.Log, logOut)
	if err != nil {
		return err
	}

	format, err := source.ParseFormat(cfg.Source.Format)
	if err != nil {
		return fmt.Errorf("source format %q: %w", cfg.Source.Format, err)
	}

	validator, closeValidator, err := loadValidator(opts)
	if err != nil {
		return err
	}
	defer closeValidator()

	busOpts := []event.BusOption{event.WithIsolation(cfg.Bus.Isolate)}
	storeOpts := []attrs.Option{attrs.WithLogger(logger), attrs.WithBusOptions(busOpts...)}
	if validator != nil {
		storeOpts = append(storeOpts, attrs.WithValidator(validator))
	}

	store, err := attrs.New(nil, storeOpts...)
	if err != nil {
		return err
	}

	l := loop.New(loop.WithLogger(logger))
	snapshots := agent.New(l, agent.WithContext(ctx), agent.WithLogger(logger), agent.WithBusOptions(busOpts...))
	defer snapshots.Close()

	wire(logger, store, snapshots)

	setOpts := attrs.Options{Validate: validator != nil}
	if err := source.Sync(store, cfg.Source.Path, format, setOpts); err != nil {
		return err
	}

	watcher, err := source.NewWatcher(l, store, cfg.Source.Path,
		source.WithFormat(format),
		source.WithDebounce(cfg.Source.Debounce),
		source.WithSetOptions(setOpts),
		source.WithLogger(logger),
		source.WithErrorHandler(func(err error) {
			logger.Error().Err(err).Msg("attribute file not applied")
		}),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if cfg.Metrics.Enabled {
		collector := metrics.New(cfg.Metrics.Namespace)
		collector.AddStore("attributes", store)
		collector.AddAgent("snapshots", snapshots)
		collector.AddLoop("main", l)

		stop, err := serveMetrics(logger, cfg.Metrics.Addr, collector)
		if err != nil {
			return err
		}
		defer stop()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := watcher.Reload(); err != nil {
					logger.Warn().Err(err).Msg("reload on SIGHUP failed")
				}
			}
		}
	}()

	logger.Info().Str("path", watcher.Path()).Int("keys", store.Len()).Msg("watching attribute file")

	err = l.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	_ = l.Close()

	logger.Info().Msg("stopped")
	return err
}

// wire connects the store and the snapshot agent to the logger. Every
// settled wave submits a snapshot; a newer wave supersedes an older one.
func wire(logger zerolog.Logger, store *attrs.Store, snapshots *agent.Agent) {
	store.SubscribeFunc(topic.All, func(e event.Event) error {
		if key, ok := e.Name.Attribute(); ok {
			logger.Info().Str("key", key).Interface("value", e.Arg(1)).Msg("attribute changed")
		}
		return nil
	}, nil)

	store.SubscribeFunc(topic.Invalid, func(e event.Event) error {
		err, _ := e.Arg(1).(error)
		logger.Warn().Err(err).Msg("attributes rejected")
		return nil
	}, nil)

	store.SubscribeFunc(topic.Changed, func(event.Event) error {
		return snapshots.Submit(agent.TaskFunc(func(context.Context, *agent.Agent, []any) (any, error) {
			return store.Attributes(), nil
		}))
	}, nil)

	snapshots.SubscribeFunc(topic.Updated, func(e event.Event) error {
		m, _ := e.Arg(0).(map[string]any)
		logger.Info().Int("keys", len(m)).Msg("attributes settled")
		return nil
	}, nil)
}

// loadValidator builds the validator named by the flags. Rules and script
// may be combined; both must accept.
func loadValidator(opts *watchOptions) (attrs.Validator, func(), error) {
	var validators []attrs.Validator
	closer := func() {}

	if opts.rulesPath != "" {
		rules, err := source.Load(opts.rulesPath)
		if err != nil {
			return nil, closer, fmt.Errorf("loading rules: %w", err)
		}
		validators = append(validators, validate.NewRules(rules))
	}

	if opts.scriptPath != "" {
		src, err := os.ReadFile(opts.scriptPath)
		if err != nil {
			return nil, closer, fmt.Errorf("loading script: %w", err)
		}
		script, err := validate.NewScript(string(src))
		if err != nil {
			return nil, closer, fmt.Errorf("loading script %s: %w", opts.scriptPath, err)
		}
		validators = append(validators, script)
		closer = script.Close
	}

	switch len(validators) {
	case 0:
		return nil, closer, nil
	case 1:
		return validators[0], closer, nil
	}
	return attrs.ValidatorFunc(func(m map[string]any) error {
		for _, v := range validators {
			if err := v.Validate(m); err != nil {
				return err
			}
		}
		return nil
	}), closer, nil
}

// serveMetrics starts the Prometheus endpoint and returns its shutdown.
func serveMetrics(logger zerolog.Logger, addr string, collector *metrics.Collector) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return nil, err
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("metrics server shutdown")
		}
	}, nil
}
