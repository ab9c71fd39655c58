package commands

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/maksimkurb/openwrt-monitor/src/internal/components"
	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
	"github.com/maksimkurb/openwrt-monitor/src/internal/metrics"
)

func CreateServiceCommand() *ServiceCommand {
	sc := &ServiceCommand{
		fs: flag.NewFlagSet("service", flag.ExitOnError),
	}
	sc.fs.StringVar(&sc.listen, "listen", "", "Override the API listen address from the configuration")
	return sc
}

// ServiceCommand runs the pollers and the API until SIGINT or SIGTERM.
type ServiceCommand struct {
	fs     *flag.FlagSet
	cfg    *config.Config
	ctx    *AppContext
	listen string

	recorder   *metrics.Recorder
	serviceMgr *ServiceManager
	components []components.Component
}

func (s *ServiceCommand) Name() string {
	return s.fs.Name()
}

func (s *ServiceCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	s.cfg = cfg
	if cfg.General.Verbose {
		log.SetVerbose(true)
	}

	s.recorder = metrics.NewRecorder()
	if s.serviceMgr, err = NewServiceManager(ctx.ConfigPath, s.recorder); err != nil {
		return err
	}
	return nil
}

func (s *ServiceCommand) Run() error {
	log.Infof("Starting openwrt-monitor service...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGINT, unix.SIGTERM, unix.SIGHUP, unix.SIGUSR1)
	defer signal.Stop(sigChan)

	if err := s.serviceMgr.Start(); err != nil {
		return fmt.Errorf("failed to start pollers: %w", err)
	}

	if s.cfg.General.IsAPIEnabled() {
		addr := s.cfg.General.APIListen
		if s.listen != "" {
			addr = s.listen
		}
		apiServer := components.NewAPIServer(addr, s.serviceMgr, s.recorder)
		if err := apiServer.Start(); err != nil {
			log.Errorf("Failed to start %s: %v", apiServer.Name(), err)
			log.Warnf("Service will continue without the HTTP API")
		} else {
			s.components = append(s.components, apiServer)
		}
	} else {
		log.Infof("HTTP API is disabled")
	}

	log.Infof("Service started. Send SIGHUP to reload configuration, SIGUSR1 to refresh all routers")

	for sig := range sigChan {
		switch sig {
		case unix.SIGHUP:
			log.Infof("Received SIGHUP, reloading configuration...")
			if err := s.serviceMgr.Reload(); err != nil {
				log.Errorf("Failed to reload configuration, keeping the running one: %v", err)
			} else {
				log.Infof("Configuration reloaded")
			}

		case unix.SIGUSR1:
			log.Infof("Received SIGUSR1, refreshing all routers...")
			s.serviceMgr.RefreshAll()

		case unix.SIGINT, unix.SIGTERM:
			log.Infof("Received signal %v, shutting down...", sig)
			return s.shutdown()
		}
	}
	return nil
}

func (s *ServiceCommand) shutdown() error {
	for i := len(s.components) - 1; i >= 0; i-- {
		c := s.components[i]
		if !c.IsRunning() {
			continue
		}
		if err := c.Stop(); err != nil {
			log.Warnf("Failed to stop %s: %v", c.Name(), err)
		}
	}
	if err := s.serviceMgr.Stop(); err != nil {
		log.Errorf("Failed to stop pollers: %v", err)
		return err
	}
	log.Infof("Service stopped")
	return nil
}
