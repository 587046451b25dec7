package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maksimkurb/hostgate/src/internal/config"
	"github.com/maksimkurb/hostgate/src/internal/core"
	"github.com/maksimkurb/hostgate/src/internal/log"
)

func CreateServeCommand() *ServeCommand {
	sc := &ServeCommand{
		fs: flag.NewFlagSet("serve", flag.ExitOnError),
	}

	sc.fs.DurationVar(&sc.ReadyTimeout, "ready-timeout", 10*time.Second, "How long to wait for the listener to become ready")

	return sc
}

type ServeCommand struct {
	fs           *flag.FlagSet
	cfg          *config.Config
	ctx          *AppContext
	ReadyTimeout time.Duration

	deps *core.AppDependencies

	// signals is replaced in tests.
	signals chan os.Signal
}

func (s *ServeCommand) Name() string {
	return s.fs.Name()
}

func (s *ServeCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx); err != nil {
		return err
	} else {
		s.cfg = cfg
	}

	deps, err := core.NewAppDependencies(s.cfg, core.AppConfig{})
	if err != nil {
		return fmt.Errorf("failed to create dependencies: %w", err)
	}
	s.deps = deps

	return nil
}

func (s *ServeCommand) Run() error {
	log.Infof("Starting hostgate...")

	server := s.deps.Server()
	defer func() {
		if err := server.Close(); err != nil {
			log.Errorf("Failed to close server: %v", err)
		}
	}()

	if banned := s.deps.Host().BannedIDs(); len(banned) > 0 {
		log.Infof("Banned client identifiers: %v", banned)
	}

	if err := server.Start(); err != nil {
		return err
	}

	readyCtx, cancel := context.WithTimeout(context.Background(), s.ReadyTimeout)
	defer cancel()
	if err := server.WaitUntilReady(readyCtx); err != nil {
		return fmt.Errorf("server did not become ready: %w", err)
	}

	if s.signals == nil {
		s.signals = make(chan os.Signal, 1)
		signal.Notify(s.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(s.signals)
	}

	log.Infof("Service started successfully.")

	for {
		select {
		case sig := <-s.signals:
			switch sig {
			case syscall.SIGHUP:
				log.Warnf("Received SIGHUP: configuration is fixed while serving, restart the process to apply changes")
			default:
				log.Infof("Received signal %v, shutting down...", sig)
				return server.Stop()
			}
		case <-server.Done():
			log.Infof("Server stopped, exiting")
			return nil
		}
	}
}
