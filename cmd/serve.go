package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/server"
	"github.com/poisonlab/poisonlab/util"
)

//nolint:gochecknoglobals
var (
	done    = make(chan bool, 1)
	signals = make(chan os.Signal, 1)
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "serve",
		Args:              cobra.NoArgs,
		Short:             "start the lab with its DNS and HTTP endpoints (default command)",
		RunE:              startServer,
		PersistentPreRunE: initConfigPreRun,
		SilenceUsage:      true,
	}
}

func startServer(_ *cobra.Command, _ []string) error {
	printBanner()

	cfg, err := config.LoadConfig(configPath, false)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	log.ConfigureLogger(cfg.Log)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("can't start server: %w", err)
	}

	const errChanSize = 10
	errChan := make(chan error, errChanSize)

	srv.Start(ctx, errChan)

	var terminationErr error

	go func() {
		select {
		case <-signals:
			log.Log().Infof("Terminating...")
		case err := <-errChan:
			log.Log().Error("server start failed: ", err)
			terminationErr = err
		}

		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()

		util.LogOnError("can't stop server: ", srv.Stop(stopCtx))
		cancelFn()

		done <- true
	}()

	evt.Bus().Publish(evt.ApplicationStarted, util.Version, util.BuildTime)
	<-done

	return terminationErr
}

func printBanner() {
	log.Log().Info("_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/")
	log.Log().Info("_/                                                              _/")
	log.Log().Info("_/     _/_/_/             _/                            _/      _/")
	log.Log().Info("_/    _/    _/   _/_/          _/_/_/    _/_/    _/_/_/  _/     _/")
	log.Log().Info("_/   _/_/_/   _/    _/  _/  _/_/      _/    _/  _/    _/  _/    _/")
	log.Log().Info("_/  _/       _/    _/  _/      _/_/  _/    _/  _/    _/   _/    _/")
	log.Log().Info("_/ _/         _/_/    _/  _/_/_/      _/_/    _/    _/  lab     _/")
	log.Log().Info("_/                                                              _/")
	log.Log().Infof("_/  Version: %-18s Build time: %-18s  _/", util.Version, util.BuildTime)
	log.Log().Info("_/                                                              _/")
	log.Log().Info("_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/")
}
