package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level
// (Warn level for error events).
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.PacketID != "" {
		attrs = append(attrs, slog.String("packet_id", event.PacketID))
	}
	if event.ChannelID != "" {
		attrs = append(attrs, slog.String("channel_id", event.ChannelID))
	}
	if event.BeaconID != "" {
		attrs = append(attrs, slog.String("beacon_id", event.BeaconID))
	}
	if event.Decoy {
		attrs = append(attrs, slog.Bool("decoy", true))
	}
	if event.Detail != "" {
		attrs = append(attrs, slog.String("detail", event.Detail))
	}

	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Error))
	}

	a.logger.LogAttrs(context.Background(), level, "protocol event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
