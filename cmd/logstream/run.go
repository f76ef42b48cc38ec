package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/abyssdigger/logstream"
	"github.com/abyssdigger/logstream/config"
)

type runOptions struct {
	configPath  string
	watch       bool
	duration    time.Duration
	producers   int
	interval    time.Duration
	metricsAddr string
}

// RunCommand creates the run subcommand
func RunCommand() *cobra.Command {
	opts := &runOptions{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run producers against a configured log stream",
		Long: "Builds a log stream from defaults, --config and LOGSTREAM_* variables, " +
			"then runs producer goroutines logging across categories and priorities " +
			"until --duration elapses or the process is interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runStream(ctx, cmd, opts)
		},
	}

	runCmd.Flags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	runCmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-apply levels when the configuration file changes")
	runCmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "How long to run (0 until interrupted)")
	runCmd.Flags().IntVar(&opts.producers, "producers", 4, "Number of producer goroutines")
	runCmd.Flags().DurationVar(&opts.interval, "interval", 100*time.Millisecond, "Pause between entries of one producer")
	runCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")

	return runCmd
}

func runStream(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	if opts.producers < 1 {
		return fmt.Errorf("--producers must be at least 1, got %d", opts.producers)
	}
	if opts.watch && opts.configPath == "" {
		return errors.New("--watch requires --config")
	}
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	s, err := cfg.NewStream(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to build log stream: %w", err)
	}
	defer s.Close()

	registry := prometheus.NewRegistry()
	metrics, err := logstream.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	s.SetMetrics(metrics)

	if opts.metricsAddr != "" {
		srv, err := serveMetrics(opts.metricsAddr, registry)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := s.Start(); err != nil {
		return err
	}
	prev := logstream.SetDefault(s)
	defer logstream.SetDefault(prev)

	var wg sync.WaitGroup
	if opts.watch {
		wg.Go(func() {
			err := config.Watch(ctx, opts.configPath, s, func(err error) {
				fmt.Fprintln(cmd.ErrOrStderr(), "config:", err)
			})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "config watch stopped:", err)
			}
		})
	}

	var counts produceCounts
	categories := logstream.Categories()
	for i := range opts.producers {
		client := s.NewClient(categories[i%len(categories)])
		wg.Go(func() { produce(ctx, client, opts.interval, &counts) })
	}
	wg.Wait()

	pending := s.Pending()
	s.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "produced %d entries with %d producers: %d queued, %d filtered (%d pending at shutdown, queued entries delivered)\n",
		counts.queued.Load()+counts.filtered.Load(), opts.producers, counts.queued.Load(), counts.filtered.Load(), pending)
	return nil
}

type produceCounts struct {
	queued   atomic.Uint64
	filtered atomic.Uint64
}

// produce logs one entry per interval, cycling through the priorities
// (developer levels included).
func produce(ctx context.Context, client *logstream.Client, interval time.Duration, counts *produceCounts) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p := logstream.LVL_BULK + logstream.Priority(n%int(logstream.LVL_POPUP))
		if !client.Stream().WouldLog(client.Category(), p) {
			counts.filtered.Add(1)
			continue
		}
		client.Log(p, fmt.Sprintf("%s entry %d at %s", client.Category(), n, p))
		counts.queued.Add(1)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go srv.Serve(ln)
	return srv, nil
}
