package service

import "log/slog"

// compensator pairs external side effects with their inverses. The
// service registers an undo right after each side effect succeeds; run
// unwinds them in reverse when a later step fails; discard forgets them
// once the operation commits. A failed undo is logged and never masks
// the original failure.
type compensator struct {
	logger *slog.Logger
	undos  []func() error
}

func newCompensator(logger *slog.Logger) *compensator {
	if logger == nil {
		logger = slog.Default()
	}
	return &compensator{logger: logger}
}

func (c *compensator) register(undo func() error) {
	c.undos = append(c.undos, undo)
}

func (c *compensator) run() {
	for i := len(c.undos) - 1; i >= 0; i-- {
		if err := c.undos[i](); err != nil {
			c.logger.Error("compensating action failed", "error", err)
		}
	}
	c.undos = nil
}

func (c *compensator) discard() {
	c.undos = nil
}
