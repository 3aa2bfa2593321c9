package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Flusher - это фоновый процесс, который сохраняет записи журнала пакетами.
type Flusher struct {
	storage   Storage
	queue     chan *Entry
	done      chan struct{}
	stopped   chan struct{}
	interval  time.Duration
	limit     int
	logger    *slog.Logger
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewFlusher создает новый экземпляр Flusher. Для запуска вызовите Start.
func NewFlusher(storage Storage, opts ...Option) *Flusher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Flusher{
		storage:  storage,
		queue:    make(chan *Entry, o.queueSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		interval: o.interval,
		limit:    o.limit,
		logger:   o.logger,
	}
}

// Enqueue ставит запись в очередь без блокировки. Возвращает false, если
// очередь переполнена или Flusher остановлен.
func (f *Flusher) Enqueue(entry *Entry) bool {
	select {
	case <-f.done:
		return false
	default:
	}

	select {
	case f.queue <- entry:
		return true
	default:
		f.logger.Warn("очередь журнала переполнена, запись отброшена",
			slog.String("request_id", entry.ID.String()),
			slog.String("path", entry.Path),
		)
		return false
	}
}

// Start запускает фоновый процесс. Повторные вызовы игнорируются.
func (f *Flusher) Start() {
	f.startOnce.Do(func() {
		go f.run()
	})
}

// Stop останавливает фоновый процесс и сохраняет оставшиеся записи.
// Ожидание ограничено контекстом.
func (f *Flusher) Stop(ctx context.Context) error {
	f.stopOnce.Do(func() {
		close(f.done)
	})
	f.Start()

	select {
	case <-f.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run выполняет цикл накопления и сброса записей.
func (f *Flusher) run() {
	defer close(f.stopped)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Debug("журнал обменов запущен")
	batch := make([]*Entry, 0, f.limit)
	for {
		select {
		case entry := <-f.queue:
			batch = append(batch, entry)
			if len(batch) >= f.limit {
				f.flush(batch)
				batch = make([]*Entry, 0, f.limit)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				f.flush(batch)
				batch = make([]*Entry, 0, f.limit)
			}
		case <-f.done:
		drain:
			for {
				select {
				case entry := <-f.queue:
					batch = append(batch, entry)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				f.flush(batch)
			}
			f.logger.Debug("журнал обменов остановлен")
			return
		}
	}
}

// flush сохраняет один пакет записей.
func (f *Flusher) flush(batch []*Entry) {
	if err := f.storage.Save(context.Background(), batch...); err != nil {
		f.logger.Error("ошибка сохранения записей журнала", slog.Int("count", len(batch)), slog.Any("error", err))
		return
	}
	f.logger.Debug("записи журнала сохранены", slog.Int("count", len(batch)))
}
