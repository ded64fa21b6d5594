package profile

import (
	log "github.com/sirupsen/logrus"
)

// Hook observes registry changes. The Profile calls it after a listener was added or removed.
type Hook interface {
	ListenerAdded(l *Listener, total int)
	ListenerRemoved(l *Listener, remain int)
}

// LogHook writes registry changes to a logrus logger at debug level.
type LogHook struct {
	// Logger defaults to the logrus standard logger.
	Logger *log.Logger
}

func (h LogHook) entry(l *Listener) *log.Entry {
	logger := h.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return logger.WithFields(log.Fields{
		"listener":   l.Name(),
		"listenerID": l.ID(),
	})
}

func (h LogHook) ListenerAdded(l *Listener, total int) {
	h.entry(l).WithField("total", total).Debug("profile listener added")
}

func (h LogHook) ListenerRemoved(l *Listener, remain int) {
	h.entry(l).WithField("remain", remain).Debug("profile listener removed")
}

// Hooks fans registry events out to several hooks in order.
type Hooks []Hook

func (hs Hooks) ListenerAdded(l *Listener, total int) {
	for _, h := range hs {
		h.ListenerAdded(l, total)
	}
}

func (hs Hooks) ListenerRemoved(l *Listener, remain int) {
	for _, h := range hs {
		h.ListenerRemoved(l, remain)
	}
}
