package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"touchscenes/bridge"
	"touchscenes/config"
	"touchscenes/endpointstore"
	"touchscenes/httpserver"
	"touchscenes/logger"
	"touchscenes/mdnsmanager"
	"touchscenes/metrics"
	"touchscenes/oscmanager"
	"touchscenes/scenehost"
	"touchscenes/scenesync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the OSC bridge",
	Long:  `Binds the OSC port, advertises it over mDNS, browses for controllers and switches scenes on the configured host until interrupted.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "OSC port to listen on (overrides osc.port)")
	serveCmd.Flags().Bool("standalone", false, "Run without a scene host; buttons are received but switch nothing")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cmd.Flags().Changed("port") {
		cfg.OSC.Port, _ = cmd.Flags().GetInt("port")
	}
	standalone, _ := cmd.Flags().GetBool("standalone")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	host, closeHost, err := buildHost(ctx, cfg, standalone, log)
	if err != nil {
		return err
	}
	defer closeHost()

	store := endpointstore.New()

	controller := scenesync.New(host, store, oscmanager.NewSender(nil, m), cfg.Slots,
		log.With(logger.String("component", "scenesync")), m)

	deps := bridge.Deps{
		Controller: controller,
		Logger:     log.With(logger.String("component", "bridge")),
		Metrics:    m,
	}
	if cfg.Discovery.Enabled {
		mdnsLog := log.With(logger.String("component", "mdns"))
		backend := mdnsmanager.NewDNSSD(mdnsLog)
		deps.Advertiser = mdnsmanager.NewAdvertiser(backend, cfg.Discovery.ServiceType, cfg.Discovery.InstanceName, mdnsLog)
		deps.Listener = mdnsmanager.NewListener(backend, cfg.Discovery.InstanceName, mdnsLog)
	}

	srv, err := bridge.NewServer(bridge.Options{
		ListenHost:  cfg.OSC.ListenHost,
		Port:        cfg.OSC.Port,
		ServiceType: cfg.Discovery.ServiceType,
	}, deps)
	if err != nil {
		return err
	}

	plugin := bridge.NewPlugin(srv, bridge.NewTickerScheduler(), cfg.ResyncInterval, log)
	if err := plugin.OnLoad(); err != nil {
		return err
	}
	log.Info(plugin.Description(), logger.String("version", version), logger.Bool("standalone", standalone))

	httpErr := make(chan error, 1)
	var httpSrv *httpserver.Server
	if cfg.HTTP.Listen != "" {
		httpSrv = httpserver.New(cfg.HTTP.Listen, httpserver.Deps{
			Logger:    log.With(logger.String("component", "http")),
			Bridge:    srv,
			Store:     store,
			Gatherer:  reg,
			StartTime: startTime,
			Version:   version,
		})
		go func() { httpErr <- httpSrv.Start() }()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-httpErr:
		if err != nil {
			log.Error("HTTP server failed", logger.Error(err))
		}
	}

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpSrv.Stop(shutdownCtx); err != nil {
			log.Warn("HTTP server did not shut down cleanly", logger.Error(err))
		}
		cancel()
	}

	if err := plugin.OnUnload(); err != nil {
		log.Warn("bridge stop failed", logger.Error(err))
	}
	return nil
}

// buildHost returns the scene host selected by host.kind and a func releasing it.
func buildHost(ctx context.Context, cfg *config.Config, standalone bool, log logger.Logger) (scenesync.Host, func(), error) {
	noop := func() {}
	hostLog := log.With(logger.String("component", "scenehost"))

	if standalone {
		log.Info("standalone mode: scene host disabled")
		return scenesync.NopHost{}, noop, nil
	}

	switch cfg.Host.Kind {
	case config.HostStatic:
		return scenehost.NewStatic(cfg.Host.Scenes, hostLog), noop, nil
	case config.HostRedis:
		client, err := scenehost.Connect(ctx, scenehost.ConnectOptions{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		}, hostLog)
		if err != nil {
			return nil, nil, err
		}
		host := scenehost.NewRedis(client, scenehost.RedisOptions{
			ScenesKey: cfg.Redis.ScenesKey,
			ActiveKey: cfg.Redis.ActiveKey,
			Channel:   cfg.Redis.Channel,
			Timeout:   cfg.Redis.Timeout,
		}, hostLog)
		return host, func() { _ = client.Close() }, nil
	case config.HostNone:
		return scenesync.NopHost{}, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown host kind %q", cfg.Host.Kind)
	}
}
