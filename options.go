package seam

import "log/slog"

type Option func(*engineConfig)

type engineConfig struct {
	logger       *slog.Logger
	decls        Declarations
	prioritySort bool
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = logger
	}
}

// WithDeclarations swaps the declaration source; the default is a fresh
// TagDeclarations reading the "seam" struct tag.
func WithDeclarations(decls Declarations) Option {
	return func(cfg *engineConfig) {
		cfg.decls = decls
	}
}

// WithPriorityOrdering sorts collection results ascending by explicit
// candidate priority; candidates without one keep registration order after
// the prioritized ones. Without this option all collection results stay in
// registration order.
func WithPriorityOrdering() Option {
	return func(cfg *engineConfig) {
		cfg.prioritySort = true
	}
}
