package discovery

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghost-network/ghost-go/pkg/resonance"
	"github.com/ghost-network/ghost-go/pkg/transport"
)

func testBeacon(state resonance.State, ttl int64, caps ...string) *Beacon {
	return &Beacon{
		ID:           uuid.New(),
		Resonance:    state,
		Timestamp:    time.Now().Unix(),
		TTLSeconds:   ttl,
		Capabilities: caps,
	}
}

func TestReceiveBeaconRegistersNode(t *testing.T) {
	e := New(DefaultConfig())

	b := testBeacon(resonance.State{Psi: 1}, 60, "relay")
	require.NoError(t, e.ReceiveBeacon(b))

	assert.Equal(t, 1, e.NodeCount())
	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.BeaconsReceived)
	assert.Equal(t, uint64(1), stats.NodesDiscovered)

	// Same beacon ID again: an update, not a new discovery.
	b.Capabilities = []string{"relay", "store"}
	require.NoError(t, e.ReceiveBeacon(b))
	assert.Equal(t, 1, e.NodeCount())
	stats = e.Stats()
	assert.Equal(t, uint64(2), stats.BeaconsReceived)
	assert.Equal(t, uint64(1), stats.NodesDiscovered)
}

func TestReceiveBeaconRejectsExpiredWithoutMutation(t *testing.T) {
	e := New(DefaultConfig())
	base := time.Now()
	e.timeNow = func() time.Time { return base }

	b := testBeacon(resonance.State{Psi: 1}, 1)
	b.Timestamp = base.Unix()

	e.timeNow = func() time.Time { return base.Add(2 * time.Second) }
	err := e.ReceiveBeacon(b)
	assert.ErrorIs(t, err, ErrExpiredBeacon)
	assert.Equal(t, 0, e.NodeCount())
	assert.Equal(t, Stats{}, e.Stats())
}

func TestReceiveBeaconValidation(t *testing.T) {
	e := New(DefaultConfig())

	b := testBeacon(resonance.State{}, 60)
	b.ID = uuid.Nil
	assert.ErrorIs(t, e.ReceiveBeacon(b), ErrMissingBeaconID)

	b = testBeacon(resonance.State{}, 60)
	b.Timestamp = 0
	assert.ErrorIs(t, e.ReceiveBeacon(b), ErrZeroBeaconTimestamp)

	b = testBeacon(resonance.State{}, 0)
	assert.ErrorIs(t, e.ReceiveBeacon(b), ErrNonPositiveBeaconTTL)
}

func TestAnnounceAndPollOverLoopback(t *testing.T) {
	hub := transport.NewLoopbackHub()
	announcer := NewWithTransport(DefaultConfig(), hub.Endpoint())
	observer := NewWithTransport(DefaultConfig(), hub.Endpoint())

	state := resonance.State{Psi: 1, Rho: 2, Omega: 3}
	beacon, err := announcer.Announce(state, []string{"relay"})
	require.NoError(t, err)
	require.NotNil(t, beacon)
	assert.Equal(t, uint64(1), announcer.Stats().BeaconsSent)

	accepted, err := observer.PollBeacons()
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)

	nodes := observer.FindNodes(state)
	require.Len(t, nodes, 1)
	assert.Equal(t, beacon.ID, nodes[0].BeaconID)
	assert.Equal(t, state, nodes[0].Resonance)
}

func TestAnnounceMintsFreshBeaconIDs(t *testing.T) {
	e := New(DefaultConfig())

	first, err := e.Announce(resonance.State{Psi: 1}, nil)
	require.NoError(t, err)
	second, err := e.Announce(resonance.State{Psi: 1}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestFindNodesHonorsDiscoveryWindow(t *testing.T) {
	e := New(DefaultConfig())

	near := testBeacon(resonance.State{Psi: 1.2}, 60)
	far := testBeacon(resonance.State{Psi: 9}, 60)
	require.NoError(t, e.ReceiveBeacon(near))
	require.NoError(t, e.ReceiveBeacon(far))

	found := e.FindNodes(resonance.State{Psi: 1})
	require.Len(t, found, 1)
	assert.Equal(t, near.ID, found[0].BeaconID)
}

func TestFindNodesWithCapabilitiesRequiresSuperset(t *testing.T) {
	e := New(DefaultConfig())

	both := testBeacon(resonance.State{Psi: 1}, 60, "relay", "store")
	one := testBeacon(resonance.State{Psi: 9}, 60, "relay")
	require.NoError(t, e.ReceiveBeacon(both))
	require.NoError(t, e.ReceiveBeacon(one))

	found := e.FindNodesWithCapabilities([]string{"relay", "store"})
	require.Len(t, found, 1)
	assert.Equal(t, both.ID, found[0].BeaconID)

	// Capability search ignores resonance proximity; an empty requirement
	// matches every active node.
	found = e.FindNodesWithCapabilities(nil)
	assert.Len(t, found, 2)
}

func TestNodeTimeoutExcludesUntilCleanup(t *testing.T) {
	e := New(DefaultConfig())
	base := time.Now()
	e.timeNow = func() time.Time { return base }

	b := testBeacon(resonance.State{Psi: 1}, 60)
	b.Timestamp = base.Unix()
	require.NoError(t, e.ReceiveBeacon(b))

	// Past the node timeout: invisible to lookups, still in the table.
	e.timeNow = func() time.Time { return base.Add(DefaultNodeTimeout + time.Second) }
	assert.Empty(t, e.GetActiveNodes())
	assert.Empty(t, e.FindNodes(resonance.State{Psi: 1}))
	assert.Equal(t, 1, e.NodeCount())

	beacons, nodes := e.Cleanup()
	assert.Equal(t, 1, beacons)
	assert.Equal(t, 1, nodes)
	assert.Equal(t, 0, e.NodeCount())
}

func TestCreateEventValidation(t *testing.T) {
	e := New(DefaultConfig())

	_, err := e.CreateEvent(EventRendezvous, nil, time.Now(), time.Minute)
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = e.CreateEvent(EventRendezvous, []resonance.State{{Psi: 1}}, time.Now(), 0)
	assert.ErrorIs(t, err, ErrNonPositiveDuration)
}

func TestParticipateInEvent(t *testing.T) {
	e := New(DefaultConfig())
	base := time.Now()
	e.timeNow = func() time.Time { return base }

	pattern := []resonance.State{
		{Psi: 1}, {Psi: 2}, {Psi: 3}, {Psi: 4},
	}
	id, err := e.CreateEvent(EventScheduled, pattern, base, 40*time.Second)
	require.NoError(t, err)

	// Before the window opens there is nothing to derive.
	e.timeNow = func() time.Time { return base.Add(-time.Second) }
	state, err := e.ParticipateInEvent(id)
	require.NoError(t, err)
	assert.Nil(t, state)

	// Each pattern entry holds for an equal share of the window.
	steps := []struct {
		offset time.Duration
		want   resonance.State
	}{
		{0, pattern[0]},
		{9 * time.Second, pattern[0]},
		{10 * time.Second, pattern[1]},
		{25 * time.Second, pattern[2]},
		{39 * time.Second, pattern[3]},
	}
	for _, step := range steps {
		e.timeNow = func() time.Time { return base.Add(step.offset) }
		state, err := e.ParticipateInEvent(id)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, step.want, *state, "offset %s", step.offset)
	}

	// After the window closes the event goes quiet again.
	e.timeNow = func() time.Time { return base.Add(41 * time.Second) }
	state, err = e.ParticipateInEvent(id)
	require.NoError(t, err)
	assert.Nil(t, state)

	assert.Equal(t, uint64(5), e.Stats().EventsParticipated)

	_, err = e.ParticipateInEvent(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestBeaconCodecRoundtrip(t *testing.T) {
	b := testBeacon(resonance.State{Psi: 1.5, Rho: -0.25, Omega: 3}, 300, "relay")

	data, err := EncodeBeacon(b)
	require.NoError(t, err)

	got, err := DecodeBeacon(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = DecodeBeacon([]byte("{"))
	assert.Error(t, err)
}
