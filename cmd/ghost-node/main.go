// Command ghost-node runs a single ghost network node.
//
// The node announces itself with beacons, routes packets through ephemeral
// resonance channels, and exposes an interactive console for sending and
// receiving masked transactions.
//
// Usage:
//
//	ghost-node [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-psi float         Resonance psi coordinate (overrides config)
//	-rho float         Resonance rho coordinate (overrides config)
//	-omega float       Resonance omega coordinate (overrides config)
//	-local             Run without a network transport
//	-interactive       Start the interactive console (default true)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start a node at a chosen fingerprint on the default multicast group
//	ghost-node -psi 1.5 -rho 2.0 -omega 0.5
//
//	# Start from a config file, local-only
//	ghost-node -config /etc/ghost/node.yaml -local
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghost-network/ghost-go/cmd/ghost-node/interactive"
	"github.com/ghost-network/ghost-go/internal/telemetry"
	"github.com/ghost-network/ghost-go/pkg/broadcast"
	"github.com/ghost-network/ghost-go/pkg/config"
	"github.com/ghost-network/ghost-go/pkg/discovery"
	"github.com/ghost-network/ghost-go/pkg/log"
	"github.com/ghost-network/ghost-go/pkg/protocol"
	"github.com/ghost-network/ghost-go/pkg/transport"
)

var flags struct {
	configFile      string
	psi, rho, omega float64
	local           bool
	interactiveMode bool
	logLevel        string
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path (YAML)")
	flag.Float64Var(&flags.psi, "psi", 0, "Resonance psi coordinate (overrides config)")
	flag.Float64Var(&flags.rho, "rho", 0, "Resonance rho coordinate (overrides config)")
	flag.Float64Var(&flags.omega, "omega", 0, "Resonance omega coordinate (overrides config)")
	flag.BoolVar(&flags.local, "local", false, "Run without a network transport")
	flag.BoolVar(&flags.interactiveMode, "interactive", true, "Start the interactive console")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	logger := setupLogging(flags.logLevel)

	cfg := config.Default()
	if flags.configFile != "" {
		var err error
		cfg, err = config.Load(flags.configFile)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if flags.psi != 0 || flags.rho != 0 || flags.omega != 0 {
		cfg.Node.Psi = flags.psi
		cfg.Node.Rho = flags.rho
		cfg.Node.Omega = flags.omega
	}

	state := cfg.Node.Resonance()
	logger.Info("ghost node starting", "resonance", state.String())

	eventLogger, closeLogger, err := setupEventLogger(logger, cfg.Node.LogFile)
	if err != nil {
		logger.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer closeLogger()

	bcTransport, dcTransport, closeTransports, err := setupTransports(cfg)
	if err != nil {
		logger.Error("failed to open transport", "error", err)
		os.Exit(1)
	}
	defer closeTransports()

	bc := broadcast.NewWithTransport(cfg.BroadcastEngine(), bcTransport)
	bc.SetLogger(eventLogger)
	dc := discovery.NewWithTransport(cfg.DiscoveryEngine(), dcTransport)
	dc.SetLogger(eventLogger)
	proto := protocol.New(cfg.ProtocolLayer())
	proto.SetLogger(eventLogger)

	telemetry.ObserveBroadcast(bc)
	telemetry.ObserveDiscovery(dc)
	if cfg.Node.MetricsAddress != "" {
		go serveMetrics(logger, cfg.Node.MetricsAddress)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runSchedule(ctx, logger, cfg, bc, dc)

	if flags.interactiveMode {
		console, err := interactive.New(interactive.Node{
			Resonance:    state,
			Capabilities: cfg.Node.Capabilities,
			Broadcast:    bc,
			Discovery:    dc,
			Protocol:     proto,
		})
		if err != nil {
			logger.Error("failed to start console", "error", err)
			os.Exit(1)
		}
		console.Run(ctx, cancel)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
}

func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// setupEventLogger builds the protocol event logger: always the slog
// adapter, plus file capture when configured.
func setupEventLogger(logger *slog.Logger, path string) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger)
	if path == "" {
		return adapter, func() {}, nil
	}
	file, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := file.Close(); err != nil {
			logger.Warn("failed to close log file", "error", err)
		}
	}
	return log.NewMultiLogger(adapter, file), closer, nil
}

// setupTransports opens one multicast socket per engine so the two receive
// paths do not steal each other's datagrams. Local mode returns nil
// transports: the engines then work purely in-process.
func setupTransports(cfg config.Config) (bc, dc transport.Transport, closer func(), err error) {
	if flags.local || cfg.Node.MulticastAddress == "" {
		return nil, nil, func() {}, nil
	}

	bcUDP, err := transport.NewUDPMulticast(cfg.Node.MulticastAddress)
	if err != nil {
		return nil, nil, nil, err
	}
	dcUDP, err := transport.NewUDPMulticast(cfg.Node.MulticastAddress)
	if err != nil {
		bcUDP.Close()
		return nil, nil, nil, err
	}
	return bcUDP, dcUDP, func() {
		bcUDP.Close()
		dcUDP.Close()
	}, nil
}

func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	logger.Info("metrics listening", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

// runSchedule drives the periodic duties the engines leave to the caller:
// channel cleanup, node-table cleanup, self-announcement, decoy traffic.
func runSchedule(ctx context.Context, logger *slog.Logger, cfg config.Config, bc *broadcast.Engine, dc *discovery.Engine) {
	cleanup := time.NewTicker(time.Duration(cfg.Broadcast.CleanupIntervalSeconds) * time.Second)
	defer cleanup.Stop()
	announce := time.NewTicker(time.Duration(cfg.Discovery.AnnounceIntervalSeconds) * time.Second)
	defer announce.Stop()

	var decoyC <-chan time.Time
	if cfg.Broadcast.DecoyIntervalSeconds > 0 {
		decoy := time.NewTicker(time.Duration(cfg.Broadcast.DecoyIntervalSeconds) * time.Second)
		defer decoy.Stop()
		decoyC = decoy.C
	}

	state := cfg.Node.Resonance()
	for {
		select {
		case <-ctx.Done():
			return

		case <-cleanup.C:
			removed := bc.CleanupExpiredChannels()
			beacons, nodes := dc.Cleanup()
			if removed > 0 || beacons > 0 || nodes > 0 {
				logger.Debug("cleanup",
					"channels", removed, "beacons", beacons, "nodes", nodes)
			}

		case <-announce.C:
			if _, err := dc.Announce(state, cfg.Node.Capabilities); err != nil {
				logger.Warn("announce failed", "error", err)
			}
			if accepted, err := dc.PollBeacons(); err != nil {
				logger.Warn("beacon poll failed", "error", err)
			} else if accepted > 0 {
				logger.Debug("beacons accepted", "count", accepted)
			}

		case <-decoyC:
			if err := bc.GenerateDecoyTraffic(cfg.Broadcast.DecoyBatchSize); err != nil {
				logger.Warn("decoy generation failed", "error", err)
			}
		}
	}
}
