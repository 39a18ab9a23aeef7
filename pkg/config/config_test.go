package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
node:
  psi: 1.5
  rho: -0.25
  omega: 3.0
  capabilities: [relay]
discovery:
  epsilon: 0.75
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Node.Psi)
	assert.Equal(t, []string{"relay"}, cfg.Node.Capabilities)
	assert.Equal(t, 0.75, cfg.Discovery.Epsilon)

	// Everything the file omits keeps its default.
	def := Default()
	assert.Equal(t, def.Broadcast, cfg.Broadcast)
	assert.Equal(t, def.Protocol, cfg.Protocol)
	assert.Equal(t, def.Discovery.BeaconTTLSeconds, cfg.Discovery.BeaconTTLSeconds)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			"non-finite resonance",
			"node:\n  psi: .nan\n",
			ErrNonFiniteResonance,
		},
		{
			"zero epsilon",
			"protocol:\n  epsilon: 0\n",
			ErrNonPositiveEpsilon,
		},
		{
			"zero buffer",
			"broadcast:\n  max_buffer_size: 0\n",
			ErrNonPositiveSize,
		},
		{
			"zero beacon ttl",
			"discovery:\n  beacon_ttl_seconds: 0\n",
			ErrNonPositiveSeconds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEngineConfigConversion(t *testing.T) {
	cfg := Default()
	cfg.Discovery.BeaconTTLSeconds = 42
	cfg.Broadcast.MaxBufferSize = 7

	assert.Equal(t, 7, cfg.BroadcastEngine().MaxBufferSize)
	assert.Equal(t, int64(42), int64(cfg.DiscoveryEngine().BeaconTTL.Seconds()))
	assert.True(t, cfg.ProtocolLayer().VerifyProofs)
}
