// Package log provides leveled logging for openwrt-monitor.
//
// The package keeps a small global facade (Debugf, Infof, Warnf, Errorf,
// Fatalf) on top of zerolog's console writer. Debug messages are only emitted
// in verbose mode; errors go to stderr, everything else to stdout unless
// SetForceStdErr is enabled.
//
// Messages that belong to a single router instance should go through a
// component logger so the router name is attached as a field:
//
//	logger := log.Router("home")
//	logger.Warnf("Login rejected: %v", err)
//
// Credentials and session tokens must never be passed to the logger.
package log
