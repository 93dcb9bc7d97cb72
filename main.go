package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/icingautil/icinga-reconcile/config"
	"github.com/icingautil/icinga-reconcile/icinga"
	"github.com/icingautil/icinga-reconcile/journal"
	"github.com/icingautil/icinga-reconcile/logger"
	"github.com/icingautil/icinga-reconcile/metrics"
	"github.com/icingautil/icinga-reconcile/params"
	"github.com/icingautil/icinga-reconcile/reconcile"
)

// result is the single JSON document written to stdout: the outcome plus
// an echo of the validated invocation.
type result struct {
	reconcile.Outcome
	Invocation *invocation `json:"invocation,omitempty"`
}

type invocation struct {
	Url           string            `json:"url"`
	User          string            `json:"user"`
	Password      string            `json:"password"`
	Endpoint      string            `json:"endpoint"`
	ObjectFamily  string            `json:"object_family,omitempty"`
	ObjectName    string            `json:"object_name,omitempty"`
	State         string            `json:"state,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	ValidateCerts bool              `json:"validate_certs"`
	CascadeDelete bool              `json:"cascade_delete"`
	Definition    map[string]any    `json:"definition,omitempty"`
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "icinga-reconcile.yaml", "path to config file")
	paramsPath := flag.String("params", "-", "path to JSON parameter document, - for stdin")
	dryRun := flag.Bool("dry-run", false, "build the request but do not send it")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address")
	logLevel := flag.String("log-level", "", "override log level")
	logEnv := flag.String("log-env", "", "override log environment (dev or prod)")
	flag.Parse()

	// Logs go to stderr from the start, stdout carries the outcome.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logEnv != "" {
		cfg.Log.Env = *logEnv
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Env)

	m := metrics.New(true)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		// The process exits after one run; the listener lives only as
		// long as the run does.
		go func() {
			slog.Info("Starting metrics server", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	raw, err := readParams(*paramsPath)
	if err != nil {
		slog.Error("Failed to read parameters", "path", *paramsPath, "error", err)
		emit(result{Outcome: reconcile.Outcome{Failed: true, Msg: fmt.Sprintf("read parameters: %v", err)}})
		return 1
	}

	// Config supplies connection defaults; invocation parameters win.
	for k, v := range cfg.Defaults() {
		if _, ok := raw[k]; !ok {
			raw[k] = v
		}
	}

	req, err := params.Validate(raw)
	if err != nil {
		slog.Error("Parameter validation failed", "error", err)
		m.IncValidationFailure(params.Field(err))
		emit(result{Outcome: reconcile.Outcome{Failed: true, Msg: err.Error()}})
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := icinga.New(req, cfg.Timeout, m)
	engine := reconcile.NewEngine(client, m, cfg.DryRun)
	outcome := engine.Run(ctx, req)

	if cfg.JournalPath != "" {
		if err := appendJournal(ctx, cfg.JournalPath, m, req, outcome); err != nil {
			slog.Warn("Failed to record run in journal", "path", cfg.JournalPath, "error", err)
		}
	}

	emit(result{Outcome: outcome, Invocation: echo(req)})
	if outcome.Failed {
		return 1
	}
	return 0
}

func readParams(path string) (params.Raw, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	raw := params.Raw{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func appendJournal(ctx context.Context, path string, m *metrics.Metrics, req reconcile.Request, outcome reconcile.Outcome) error {
	j, err := journal.New(path, m)
	if err != nil {
		return err
	}
	defer j.Close()
	return j.Append(ctx, journal.FromRun(req, outcome))
}

func echo(req reconcile.Request) *invocation {
	return &invocation{
		Url:           req.BaseURL,
		User:          req.Username,
		Password:      req.Password,
		Endpoint:      string(req.Endpoint),
		ObjectFamily:  string(req.Family),
		ObjectName:    req.ObjectName,
		State:         string(req.State),
		Headers:       req.Headers,
		ValidateCerts: req.ValidateCerts,
		CascadeDelete: req.Cascade,
		Definition:    req.Definition,
	}
}

func emit(res result) {
	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(res); err != nil {
		slog.Error("Failed to encode result", "error", err)
	}
}
