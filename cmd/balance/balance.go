package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmagro/addr-balance/internal/address"
	"github.com/dmagro/addr-balance/internal/config"
	"github.com/dmagro/addr-balance/internal/env"
	"github.com/dmagro/addr-balance/internal/logging"
	"github.com/dmagro/addr-balance/internal/metrics"
	"github.com/dmagro/addr-balance/internal/output"
	"github.com/dmagro/addr-balance/internal/rpc"
	"github.com/dmagro/addr-balance/internal/runner"
)

const pushTimeout = 5 * time.Second

type options struct {
	configPath     string
	configRequired bool
	json           bool
	table          bool
	network        string
	url            string
	interval       time.Duration
	logLevel       string
	strict         bool
}

func (o options) format() output.Format {
	switch {
	case o.json:
		return output.FormatJSON
	case o.table:
		return output.FormatTable
	default:
		return output.FormatText
	}
}

// loadConfig layers command-line overrides on top of the file and
// environment configuration.
func loadConfig(opts options) (*config.Config, []string, error) {
	if err := env.Load(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(opts.configPath, opts.configRequired)
	if err != nil {
		return nil, nil, err
	}

	if opts.network != "" {
		cfg.Service.Network = opts.network
	}
	if opts.url != "" {
		cfg.Service.URL = opts.url
	}
	if opts.interval > 0 {
		cfg.PollInterval = opts.interval
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, warnings, nil
}

func runBalance(cmd *cobra.Command, opts options, args []string) error {
	cfg, warnings, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := logging.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	for _, w := range warnings {
		log.Warn(w)
	}

	params, err := address.Params(cfg.Service.Network)
	if err != nil {
		return err
	}

	var addrs []btcutil.Address
	if len(args) > 0 {
		addrs, err = address.DecodeAll(args, params)
	} else {
		addrs, err = address.Read(cmd.InOrStdin(), params)
	}
	if err != nil {
		return err
	}

	format := opts.format()
	if format != output.FormatText {
		color.NoColor = true
	}
	renderer, err := output.New(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	summary, err := runner.Run(ctx, runner.Config{
		Dial: func() (runner.Conn, error) {
			return rpc.NewClient(rpc.ClientConfig{
				URL:        cfg.Service.URL,
				Timeout:    cfg.Service.Timeout,
				MaxRetries: cfg.Service.MaxRetries,
				RateLimit:  cfg.Service.RateLimit,
				Workers:    cfg.Service.Workers,
				Logger:     log.Named("rpc"),
			}), nil
		},
		Renderer: renderer,
		Interval: cfg.PollInterval,
		Metrics:  collector,
		Logger:   log,
	}, addrs)

	if cfg.Metrics.Pushgateway != "" && summary.Submitted > 0 {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		if perr := collector.Push(pushCtx, cfg.Metrics.Pushgateway, cfg.Metrics.Job); perr != nil {
			log.Warn("metrics push failed", zap.Error(perr))
		}
		cancel()
	}

	if err != nil {
		return err
	}
	if opts.strict && summary.Failed > 0 {
		return fmt.Errorf("%d of %d addresses could not be fetched", summary.Failed, len(addrs))
	}
	return nil
}
