package logger

import "go.uber.org/zap"

// Once logs only the first occurrence of each key. It is not safe for
// concurrent use.
type Once struct {
	log  *zap.Logger
	seen map[string]struct{}
}

// NewOnce creates a first-occurrence logger writing to log.
func NewOnce(log *zap.Logger) *Once {
	if log == nil {
		log = zap.NewNop()
	}
	return &Once{log: log, seen: make(map[string]struct{})}
}

// Warn logs msg at warn level the first time key is seen and reports
// whether it logged.
func (o *Once) Warn(key, msg string, fields ...zap.Field) bool {
	if _, ok := o.seen[key]; ok {
		return false
	}
	o.seen[key] = struct{}{}
	o.log.Warn(msg, append(fields, zap.String("key", key))...)
	return true
}

// Seen reports whether key was already logged.
func (o *Once) Seen(key string) bool {
	_, ok := o.seen[key]
	return ok
}
