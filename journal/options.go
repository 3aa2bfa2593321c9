package journal

import (
	"log/slog"
	"time"
)

// options содержит настройки Flusher.
type options struct {
	interval  time.Duration
	limit     int
	queueSize int
	logger    *slog.Logger
}

// Option определяет функцию для конфигурации журнала.
type Option func(*options)

func defaultOptions() options {
	return options{
		interval:  5 * time.Second,
		limit:     100,
		queueSize: 1024,
		logger:    slog.Default(),
	}
}

// WithInterval устанавливает интервал сброса накопленных записей.
func WithInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.interval = interval
		}
	}
}

// WithLimit устанавливает размер пакета, при достижении которого записи
// сбрасываются, не дожидаясь интервала.
func WithLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// WithQueueSize устанавливает емкость очереди. При переполнении новые
// записи отбрасываются.
func WithQueueSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.queueSize = size
		}
	}
}

// WithLogger устанавливает логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
