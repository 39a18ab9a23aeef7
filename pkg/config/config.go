// Package config provides YAML configuration loading for ghost nodes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghost-network/ghost-go/pkg/broadcast"
	"github.com/ghost-network/ghost-go/pkg/discovery"
	"github.com/ghost-network/ghost-go/pkg/protocol"
	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Configuration validation errors.
var (
	ErrNonFiniteResonance = errors.New("node resonance must be finite")
	ErrNonPositiveEpsilon = errors.New("epsilon must be positive")
	ErrNonPositiveSize    = errors.New("size limits must be positive")
	ErrNonPositiveSeconds = errors.New("durations must be positive")
)

// NodeConfig describes the node's own identity and fingerprint.
type NodeConfig struct {
	// Psi, Rho, Omega are the node's resonance coordinates.
	Psi   float64 `yaml:"psi"`
	Rho   float64 `yaml:"rho"`
	Omega float64 `yaml:"omega"`

	// Capabilities are advertised in every beacon.
	Capabilities []string `yaml:"capabilities,omitempty"`

	// MulticastAddress is the UDP multicast group to join. Empty means
	// local-only mode with no network transport.
	MulticastAddress string `yaml:"multicast_address,omitempty"`

	// MetricsAddress is where the metrics endpoint listens. Empty
	// disables metrics.
	MetricsAddress string `yaml:"metrics_address,omitempty"`

	// LogFile is where protocol events are captured. Empty disables
	// file capture.
	LogFile string `yaml:"log_file,omitempty"`
}

// Resonance returns the node's fingerprint.
func (n NodeConfig) Resonance() resonance.State {
	return resonance.State{Psi: n.Psi, Rho: n.Rho, Omega: n.Omega}
}

// BroadcastConfig configures the broadcast engine and its timers.
type BroadcastConfig struct {
	// MaxBufferSize bounds each channel's packet buffer.
	MaxBufferSize int `yaml:"max_buffer_size"`

	// CleanupIntervalSeconds is how often expired channels are swept.
	CleanupIntervalSeconds int64 `yaml:"cleanup_interval_seconds"`

	// DecoyIntervalSeconds is how often decoy traffic is generated.
	// Zero disables decoy generation.
	DecoyIntervalSeconds int64 `yaml:"decoy_interval_seconds,omitempty"`

	// DecoyBatchSize is how many decoy packets each batch emits.
	DecoyBatchSize int `yaml:"decoy_batch_size,omitempty"`
}

// DiscoveryConfig configures the discovery engine and its timers.
type DiscoveryConfig struct {
	// BeaconTTLSeconds is the lifetime stamped onto announced beacons.
	BeaconTTLSeconds int64 `yaml:"beacon_ttl_seconds"`

	// NodeTimeoutSeconds is how long a node stays active without
	// announcing.
	NodeTimeoutSeconds int64 `yaml:"node_timeout_seconds"`

	// Epsilon is the matching window for node lookups.
	Epsilon float64 `yaml:"epsilon"`

	// AnnounceIntervalSeconds is how often the node announces itself.
	AnnounceIntervalSeconds int64 `yaml:"announce_interval_seconds"`
}

// ProtocolConfig configures transaction creation and packet validation.
type ProtocolConfig struct {
	// Epsilon is the resonance matching window for received packets.
	Epsilon float64 `yaml:"epsilon"`

	// MaxActionSize bounds the opaque action payload, in bytes.
	MaxActionSize int `yaml:"max_action_size"`

	// VerifyProofs toggles proof tag verification on receive.
	VerifyProofs bool `yaml:"verify_proofs"`
}

// Config is the root node configuration.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Protocol  ProtocolConfig  `yaml:"protocol"`
}

// Default returns a configuration with every field at its default.
func Default() Config {
	return Config{
		Broadcast: BroadcastConfig{
			MaxBufferSize:          broadcast.DefaultMaxBufferSize,
			CleanupIntervalSeconds: 60,
			DecoyIntervalSeconds:   0,
			DecoyBatchSize:         5,
		},
		Discovery: DiscoveryConfig{
			BeaconTTLSeconds:        int64(discovery.DefaultBeaconTTL / time.Second),
			NodeTimeoutSeconds:      int64(discovery.DefaultNodeTimeout / time.Second),
			Epsilon:                 discovery.DefaultDiscoveryEpsilon,
			AnnounceIntervalSeconds: 120,
		},
		Protocol: ProtocolConfig{
			Epsilon:       protocol.DefaultEpsilon,
			MaxActionSize: protocol.DefaultMaxActionSize,
			VerifyProofs:  true,
		},
	}
}

// Load reads a YAML configuration file, filling unset fields with defaults,
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engines would reject.
func (c Config) Validate() error {
	if !c.Node.Resonance().IsFinite() {
		return ErrNonFiniteResonance
	}
	if c.Discovery.Epsilon <= 0 || c.Protocol.Epsilon <= 0 {
		return ErrNonPositiveEpsilon
	}
	if c.Broadcast.MaxBufferSize <= 0 || c.Protocol.MaxActionSize <= 0 {
		return ErrNonPositiveSize
	}
	if c.Broadcast.CleanupIntervalSeconds <= 0 ||
		c.Discovery.BeaconTTLSeconds <= 0 ||
		c.Discovery.NodeTimeoutSeconds <= 0 ||
		c.Discovery.AnnounceIntervalSeconds <= 0 {
		return ErrNonPositiveSeconds
	}
	if c.Broadcast.DecoyIntervalSeconds < 0 {
		return ErrNonPositiveSeconds
	}
	return nil
}

// BroadcastEngine returns the broadcast engine configuration.
func (c Config) BroadcastEngine() broadcast.Config {
	cfg := broadcast.DefaultConfig()
	cfg.MaxBufferSize = c.Broadcast.MaxBufferSize
	return cfg
}

// DiscoveryEngine returns the discovery engine configuration.
func (c Config) DiscoveryEngine() discovery.Config {
	cfg := discovery.DefaultConfig()
	cfg.BeaconTTL = time.Duration(c.Discovery.BeaconTTLSeconds) * time.Second
	cfg.NodeTimeout = time.Duration(c.Discovery.NodeTimeoutSeconds) * time.Second
	cfg.DiscoveryEpsilon = c.Discovery.Epsilon
	return cfg
}

// ProtocolLayer returns the protocol configuration.
func (c Config) ProtocolLayer() protocol.Config {
	cfg := protocol.DefaultConfig()
	cfg.Epsilon = c.Protocol.Epsilon
	cfg.MaxActionSize = c.Protocol.MaxActionSize
	cfg.VerifyProofs = c.Protocol.VerifyProofs
	return cfg
}
