package journal

import (
	"context"
	"errors"
	"time"

	"github.com/x-research-team/docdb-proxy/proxy"
)

// Middleware записывает каждый обмен прокси в журнал. Один экземпляр
// предназначен для одного прокси: Shutdown прокси останавливает его Flusher.
type Middleware struct {
	flusher *Flusher
}

// NewMiddleware создает middleware журнала и запускает его Flusher.
func NewMiddleware(storage Storage, opts ...Option) *Middleware {
	flusher := NewFlusher(storage, opts...)
	flusher.Start()
	return &Middleware{flusher: flusher}
}

// Wrap реализует proxy.Middleware.
func (m *Middleware) Wrap(next proxy.Transport) proxy.Transport {
	return &journalTransport{
		next:    next,
		flusher: m.flusher,
	}
}

// journalTransport - это обертка над транспортом, которая ставит записи в очередь журнала.
type journalTransport struct {
	next    proxy.Transport
	flusher *Flusher
}

// Send выполняет запрос и записывает его результат. Ошибка транспорта
// возвращается без изменений.
func (t *journalTransport) Send(ctx context.Context, req *proxy.Request, expectedStatus int, out any) (*proxy.RawResponse, error) {
	startedAt := time.Now()
	raw, err := t.next.Send(ctx, req, expectedStatus, out)
	t.flusher.Enqueue(newEntry(req, expectedStatus, raw, err, startedAt))
	return raw, err
}

// BaseURI делегирует вызов.
func (t *journalTransport) BaseURI() string {
	return t.next.BaseURI()
}

// Shutdown останавливает Flusher, сохраняя оставшиеся записи, и делегирует
// вызов следующему транспорту в цепочке.
func (t *journalTransport) Shutdown(ctx context.Context) error {
	err := t.flusher.Stop(ctx)
	if s, ok := t.next.(interface{ Shutdown(context.Context) error }); ok {
		err = errors.Join(err, s.Shutdown(ctx))
	}
	return err
}
