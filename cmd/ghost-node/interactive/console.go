// Package interactive provides the interactive command-line interface
// for the ghost node.
package interactive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/broadcast"
	"github.com/ghost-network/ghost-go/pkg/discovery"
	"github.com/ghost-network/ghost-go/pkg/ghost"
	"github.com/ghost-network/ghost-go/pkg/protocol"
	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Node bundles everything the console needs to drive a running node.
type Node struct {
	// Resonance is the node's own fingerprint.
	Resonance resonance.State

	// Capabilities are advertised in every beacon.
	Capabilities []string

	Broadcast *broadcast.Engine
	Discovery *discovery.Engine
	Protocol  *protocol.Protocol
}

// Console handles interactive mode for ghost-node.
type Console struct {
	node Node
	rl   *readline.Instance
}

// New creates a new interactive console.
func New(node Node) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ghost> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{node: node, rl: rl}, nil
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "announce", "a":
			c.cmdAnnounce()

		case "poll", "p":
			c.cmdPoll()

		case "nodes", "n":
			c.cmdNodes(args)

		case "send", "s":
			c.cmdSend(args)

		case "recv", "r":
			c.cmdRecv()

		case "channel", "ch":
			c.cmdChannel(args)

		case "channels":
			c.cmdChannels()

		case "decoy", "d":
			c.cmdDecoy(args)

		case "event", "e":
			c.cmdEvent(args)

		case "stats":
			c.cmdStats()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.rl.Stdout(), `Commands:
  announce, a                        Announce a fresh beacon
  poll, p                            Poll the network for beacons
  nodes, n [psi rho omega]           List discovered nodes (near a point)
  send, s <psi> <rho> <omega> <msg>  Send a message to a fingerprint
  recv, r                            Receive pending packets
  channel, ch <psi> <rho> <omega> [eps] [ttl_s]
                                     Open a listening channel
  channels                           List alive channels
  decoy, d [count]                   Generate decoy traffic
  event, e create <dur_s> <psi rho omega>...
  event, e join <id>                 Derive an event's current fingerprint
  stats                              Show engine counters
  quit, q                            Exit
`)
}

func (c *Console) cmdAnnounce() {
	beacon, err := c.node.Discovery.Announce(c.node.Resonance, c.node.Capabilities)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Announce failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Announced beacon %s at %s\n", beacon.ID, beacon.Resonance)
}

func (c *Console) cmdPoll() {
	accepted, err := c.node.Discovery.PollBeacons()
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Poll failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Accepted %d beacons\n", accepted)
}

func (c *Console) cmdNodes(args []string) {
	center := c.node.Resonance
	if len(args) >= 3 {
		state, err := parseState(args[:3])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad fingerprint: %v\n", err)
			return
		}
		center = state
	}

	nodes := c.node.Discovery.FindNodes(center)
	if len(nodes) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No nodes in range")
		return
	}
	for _, n := range nodes {
		fmt.Fprintf(c.rl.Stdout(), "  %s  %s  caps=%v  last-seen=%s\n",
			n.BeaconID, n.Resonance, n.Capabilities,
			n.LastSeen.Format(time.TimeOnly))
	}
}

func (c *Console) cmdSend(args []string) {
	if len(args) < 4 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: send <psi> <rho> <omega> <message>")
		return
	}
	target, err := parseState(args[:3])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad fingerprint: %v\n", err)
		return
	}
	message := strings.Join(args[3:], " ")

	packet, tx, err := c.node.Protocol.PreparePacket(
		c.node.Resonance, target, []byte(message), ghost.CarrierZeroWidth)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Prepare failed: %v\n", err)
		return
	}
	matched, err := c.node.Broadcast.Broadcast(packet)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Broadcast failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Sent transaction %s (%d local channels matched)\n",
		tx.ID, len(matched))
}

func (c *Console) cmdRecv() {
	identity := ghost.NewIdentity(c.node.Resonance)
	packets, err := c.node.Broadcast.Receive(identity)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Receive failed: %v\n", err)
		return
	}
	if len(packets) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Nothing pending")
		return
	}

	for _, packet := range packets {
		tx, err := c.node.Protocol.ReceivePacket(packet, c.node.Resonance)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "  %s  rejected: %v\n", packet.ID, err)
			continue
		}
		if tx == nil {
			// Overheard but not addressed to us; expected with decoys.
			continue
		}
		fmt.Fprintf(c.rl.Stdout(), "  %s  from %s: %q\n",
			tx.ID, tx.SenderResonance, tx.Action)
	}
}

func (c *Console) cmdChannel(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: channel <psi> <rho> <omega> [epsilon] [ttl_seconds]")
		return
	}
	state, err := parseState(args[:3])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad fingerprint: %v\n", err)
		return
	}

	epsilon := 0.1
	if len(args) >= 4 {
		if epsilon, err = strconv.ParseFloat(args[3], 64); err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad epsilon: %v\n", err)
			return
		}
	}
	ttl := 300 * time.Second
	if len(args) >= 5 {
		seconds, err := strconv.Atoi(args[4])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad TTL: %v\n", err)
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}

	id := c.node.Broadcast.CreateChannel(state, epsilon, ttl)
	fmt.Fprintf(c.rl.Stdout(), "Channel %s open at %s (eps=%.2f ttl=%s)\n",
		id, state, epsilon, ttl)
}

func (c *Console) cmdChannels() {
	channels := c.node.Broadcast.ActiveChannels()
	if len(channels) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No alive channels")
		return
	}
	for _, ch := range channels {
		kind := "channel"
		if ch.IsDecoy {
			kind = "decoy"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %s  %s  eps=%.2f  ttl=%s  %s\n",
			ch.ID, ch.Resonance, ch.Epsilon, ch.TTL, kind)
	}
}

func (c *Console) cmdDecoy(args []string) {
	count := 5
	if len(args) >= 1 {
		var err error
		if count, err = strconv.Atoi(args[0]); err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad count: %v\n", err)
			return
		}
	}
	if err := c.node.Broadcast.GenerateDecoyTraffic(count); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Decoy generation failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Generated %d decoy packets\n", count)
}

func (c *Console) cmdEvent(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: event create <dur_s> <psi rho omega>... | event join <id>")
		return
	}

	switch args[0] {
	case "create":
		if len(args) < 5 || (len(args)-2)%3 != 0 {
			fmt.Fprintln(c.rl.Stdout(), "Usage: event create <dur_s> <psi rho omega>...")
			return
		}
		seconds, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad duration: %v\n", err)
			return
		}
		var pattern []resonance.State
		for i := 2; i < len(args); i += 3 {
			state, err := parseState(args[i : i+3])
			if err != nil {
				fmt.Fprintf(c.rl.Stdout(), "Bad pattern entry: %v\n", err)
				return
			}
			pattern = append(pattern, state)
		}
		id, err := c.node.Discovery.CreateEvent(
			discovery.EventRendezvous, pattern, time.Now(),
			time.Duration(seconds)*time.Second)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Create failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "Event %s created\n", id)

	case "join":
		if len(args) < 2 {
			fmt.Fprintln(c.rl.Stdout(), "Usage: event join <id>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad event ID: %v\n", err)
			return
		}
		state, err := c.node.Discovery.ParticipateInEvent(id)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Join failed: %v\n", err)
			return
		}
		if state == nil {
			fmt.Fprintln(c.rl.Stdout(), "Event window is not open")
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "Rendezvous fingerprint: %s\n", state)

	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown event subcommand: %s\n", args[0])
	}
}

func (c *Console) cmdStats() {
	bs := c.node.Broadcast.Stats()
	ds := c.node.Discovery.Stats()
	fmt.Fprintf(c.rl.Stdout(),
		"Broadcast: channels=%d created=%d sent=%d received=%d decoys=%d\n",
		c.node.Broadcast.ChannelCount(), bs.ChannelsCreated,
		bs.PacketsSent, bs.PacketsReceived, bs.DecoyPackets)
	fmt.Fprintf(c.rl.Stdout(),
		"Discovery: nodes=%d announced=%d beacons=%d discovered=%d events=%d\n",
		c.node.Discovery.NodeCount(), ds.BeaconsSent,
		ds.BeaconsReceived, ds.NodesDiscovered, ds.EventsParticipated)
}

func parseState(args []string) (resonance.State, error) {
	var coords [3]float64
	for i, arg := range args {
		value, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return resonance.State{}, fmt.Errorf("%q is not a number", arg)
		}
		coords[i] = value
	}
	state := resonance.State{Psi: coords[0], Rho: coords[1], Omega: coords[2]}
	if !state.IsFinite() {
		return resonance.State{}, fmt.Errorf("fingerprint must be finite")
	}
	return state, nil
}
