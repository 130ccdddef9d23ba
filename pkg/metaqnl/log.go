package metaqnl

import "github.com/hashicorp/go-hclog"

// namedLogger returns logger named sub, or a null logger if logger is nil.
// Every constructor in this package accepts an *hclog.Logger-shaped logger
// and falls back to this helper so that passing nil is always safe, the way
// nomad's subsystems fall back to a default logger rather than requiring
// every caller to supply one.
func namedLogger(logger hclog.Logger, sub string) hclog.Logger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return logger.Named(sub)
}
