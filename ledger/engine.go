// Package ledger derives customer outstanding balances from sale and cash
// receipt history, keeps the denormalized balance cache on the customer
// record consistent with that history, and reconstructs point-in-time
// running-balance statements.
//
// The engine is stateless: every operation reads through a Source bound by
// the caller (usually to the enclosing database transaction) and takes the
// current timestamp as an explicit argument, so the arithmetic is
// deterministic over a stable snapshot.
package ledger

import (
	"github.com/sirupsen/logrus"
)

type Engine struct {
	source Source
	logger *logrus.Logger
}

func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Option func(*Engine)

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}
