// Package telemetry exposes engine counters as Prometheus metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghost-network/ghost-go/pkg/broadcast"
	"github.com/ghost-network/ghost-go/pkg/discovery"
)

var (
	Registry = prometheus.NewRegistry()

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "ghost",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(uptime)
}

// ObserveBroadcast registers gauges that mirror the broadcast engine's
// counters. Call once per engine at startup.
func ObserveBroadcast(e *broadcast.Engine) {
	Registry.MustRegister(
		gauge("channels_active", "Number of alive channels.",
			func() float64 { return float64(e.ChannelCount()) }),
		gauge("channels_created_total", "Channels created since start.",
			func() float64 { return float64(e.Stats().ChannelsCreated) }),
		gauge("packets_sent_total", "Packets broadcast since start.",
			func() float64 { return float64(e.Stats().PacketsSent) }),
		gauge("packets_received_total", "Packets received since start.",
			func() float64 { return float64(e.Stats().PacketsReceived) }),
		gauge("decoy_packets_total", "Decoy packets generated since start.",
			func() float64 { return float64(e.Stats().DecoyPackets) }),
	)
}

// ObserveDiscovery registers gauges that mirror the discovery engine's
// counters. Call once per engine at startup.
func ObserveDiscovery(e *discovery.Engine) {
	Registry.MustRegister(
		gauge("nodes_known", "Entries in the discovered-node table.",
			func() float64 { return float64(e.NodeCount()) }),
		gauge("beacons_sent_total", "Beacons announced since start.",
			func() float64 { return float64(e.Stats().BeaconsSent) }),
		gauge("beacons_received_total", "Beacons accepted since start.",
			func() float64 { return float64(e.Stats().BeaconsReceived) }),
		gauge("nodes_discovered_total", "New nodes discovered since start.",
			func() float64 { return float64(e.Stats().NodesDiscovered) }),
		gauge("events_participated_total", "Rendezvous participations since start.",
			func() float64 { return float64(e.Stats().EventsParticipated) }),
	)
}

// MetricsHandler exposes /metrics. Mount it with
// mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func gauge(name, help string, fn func() float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "ghost",
			Name:      name,
			Help:      help,
		},
		fn,
	)
}
