// Package log provides structured protocol logging for the ghost network.
//
// This package defines the Logger interface and Event type for capturing
// protocol-level events at multiple layers (broadcast, discovery, protocol,
// transport). It is separate from operational logging (slog) - protocol
// capture provides a machine-readable event trace for debugging and
// traffic-analysis experiments.
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	engine.SetLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/ghost/node.glog")
//
//	// Both: use MultiLogger
//	log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// Log files use CBOR encoding with the .glog extension.
package log
