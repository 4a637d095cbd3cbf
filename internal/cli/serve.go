package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/httpapi"
	"github.com/roach88/storefront/internal/resources"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Backend     string
	Seed        bool
	SuccessRate float64

	// Outcome overrides the random outcome source (for testing).
	Outcome engine.OutcomeSource

	// Getenv overrides os.Getenv for port resolution (for testing).
	Getenv func(string) string

	// Ready, if set, is called with each collection's bound address once
	// every listener is up (for testing).
	Ready func(addrs map[string]string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [collections...]",
		Short: "Serve resource collections over HTTP",
		Long: `Serve one or more collections, each on its own port.

With no arguments every collection of the rule table is served. Ports come
from the collection's variable (USERS_PORT, PRODUCTS_PORT, ORDERS_PORT,
PAYMENTS_PORT, NOTIFICATIONS_PORT), then PORT when a single collection is
served, then the config file, then the built-in default (3001-3005).

Example:
  storefront serve
  storefront serve payments --success-rate 1
  PORT=8080 storefront serve users --backend sqlite`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", "store backend (memory|sqlite)")
	cmd.Flags().BoolVar(&opts.Seed, "seed", true, "load seed records at start")
	cmd.Flags().Float64Var(&opts.SuccessRate, "success-rate", engine.DefaultSuccessRate, "simulated payment/delivery success rate")

	return cmd
}

func runServe(opts *ServeOptions, collections []string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = opts.Backend
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.Seed
	}
	if flags.Changed("success-rate") {
		cfg.SuccessRate = opts.SuccessRate
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	rulesPath := cfg.Rules
	if opts.Rules != "" {
		rulesPath = opts.Rules
	}
	table, err := loadRules(rulesPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	outcome := opts.Outcome
	if outcome == nil {
		outcome = engine.NewRandomOutcome(cfg.SuccessRate, nil)
	}
	reg, err := resources.NewRegistry(table, resources.Options{
		Backend:     cfg.Backend,
		Collections: collections,
		Engine:      []engine.Option{engine.WithOutcome(outcome)},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build services", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- reg.Run(ctx) }()

	err = serveAll(ctx, cancel, opts, cfg, reg, cmd)

	cancel()
	if rerr := <-runErr; rerr != nil {
		err = errors.Join(err, rerr)
	}
	if err != nil {
		return err
	}

	slog.Info("services stopped gracefully")
	return nil
}

// serveAll seeds the engines, binds one listener per collection and serves
// until ctx is done or a server fails.
func serveAll(ctx context.Context, cancel context.CancelFunc, opts *ServeOptions, cfg *config.Config, reg *resources.Registry, cmd *cobra.Command) error {
	if cfg.Seed {
		if err := reg.Seed(ctx); err != nil {
			return WrapExitError(ExitFailure, "failed to seed", err)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	names := reg.Collections()
	single := len(names) == 1
	listeners := make(map[string]net.Listener, len(names))
	closeAll := func() {
		for _, ln := range listeners {
			_ = ln.Close()
		}
	}

	for _, name := range names {
		e, _ := reg.Engine(name)
		port, err := cfg.Port(e.Entity(), single, getenv)
		if err != nil {
			closeAll()
			return WrapExitError(ExitCommandError, "invalid port", err)
		}

		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			closeAll()
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to listen for %s", name), err)
		}
		listeners[name] = ln
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	addrs := make(map[string]string, len(names))
	for _, name := range names {
		e, _ := reg.Engine(name)
		ln := listeners[name]
		addrs[name] = ln.Addr().String()

		slog.Info("service listening",
			"service", e.Entity().Service,
			"collection", name,
			"addr", addrs[name],
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpapi.Serve(ctx, ln, httpapi.NewRouter(e)); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancel()
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d collection(s). Press Ctrl-C to stop.\n", len(names))
	if opts.Ready != nil {
		opts.Ready(addrs)
	}

	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
