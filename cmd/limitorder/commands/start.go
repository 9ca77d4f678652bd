package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	abciserver "github.com/tendermint/tendermint/abci/server"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/tendermint/limitorder/abci/app"
	cfg "github.com/tendermint/limitorder/config"
	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/libs/log"
	tmos "github.com/tendermint/limitorder/libs/os"
	"github.com/tendermint/limitorder/types"
)

const shutdownTimeout = 5 * time.Second

// StartCmd runs the ABCI application until SIGINT or SIGTERM.
var StartCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"node", "run"},
	Short:   "Run the ABCI application",
	RunE:    startApp,
}

func init() {
	StartCmd.Flags().String("proxy_app", config.ProxyApp, "address the ABCI server listens on")
	StartCmd.Flags().String("abci", config.ABCI, "abci transport (socket | grpc)")
	StartCmd.Flags().String("db_backend", config.DBBackend, "database backend")
	StartCmd.Flags().Bool("instrumentation.prometheus", config.Instrumentation.Prometheus,
		"serve prometheus metrics under /metrics")
}

// resolveChainID returns the configured chain id, falling back to the one
// of the genesis file.
func resolveChainID(conf *cfg.Config) (string, error) {
	if conf.ChainID != "" {
		return conf.ChainID, nil
	}
	doc, err := types.GenesisDocFromFile(conf.GenesisFile())
	if err != nil {
		return "", fmt.Errorf("chain_id is not configured: %w", err)
	}
	return doc.ChainID, nil
}

// NewApplication opens the database of conf and returns the application
// serving it.
func NewApplication(conf *cfg.Config, logger log.Logger) (*app.Application, error) {
	chainID, err := resolveChainID(conf)
	if err != nil {
		return nil, err
	}
	db, err := dbm.NewDB("limitorder", dbm.BackendType(conf.DBBackend), conf.DBDir())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	options := []app.Option{
		app.WithLogger(logger.With("module", "app")),
		app.WithPolicy(validation.Policy{
			AllowAggregatePayment: conf.Predicate.AllowAggregatePayment,
		}),
	}
	if conf.Instrumentation.Prometheus {
		ns := conf.Instrumentation.Namespace
		options = append(options, app.WithMetrics(app.PrometheusMetrics(ns), validation.PrometheusMetrics(ns)))
	}
	application, err := app.NewApplication(chainID, db, options...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return application, nil
}

func startApp(cmd *cobra.Command, args []string) error {
	application, err := NewApplication(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	srv, err := abciserver.NewServer(config.ProxyApp, config.ABCI, application)
	if err != nil {
		return err
	}
	srv.SetLogger(log.NewTMLogger(logger.With("module", "abci-server")))
	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("Started ABCI server", "addr", config.ProxyApp, "transport", config.ABCI)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := tmos.TrapSignal(parent, logger)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if config.Instrumentation.Prometheus {
		metricsSrv, err := startPrometheusServer(config.Instrumentation)
		if err != nil {
			_ = srv.Stop()
			return err
		}
		logger.Info("Serving metrics", "addr", config.Instrumentation.PrometheusListenAddr)
		g.Go(func() error {
			<-ctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return metricsSrv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Stopping ABCI server")
		return srv.Stop()
	})
	return g.Wait()
}

func startPrometheusServer(conf *cfg.InstrumentationConfig) (*http.Server, error) {
	ln, err := net.Listen("tcp", conf.PrometheusListenAddr)
	if err != nil {
		return nil, err
	}
	if conf.MaxOpenConnections > 0 {
		ln = netutil.LimitListener(ln, conf.MaxOpenConnections)
	}
	srv := &http.Server{
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Prometheus HTTP server ListenAndServe", "err", err)
		}
	}()
	return srv, nil
}
