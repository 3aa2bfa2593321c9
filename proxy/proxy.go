package proxy

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNilTransport возвращается, если прокси создается без транспорта.
var ErrNilTransport = errors.New("транспорт не может быть nil")

// Proxy выполняет команды через внедренный транспорт. Прокси не хранит
// изменяемого состояния между вызовами и безопасен для конкурентного
// использования, если таковым является транспорт.
type Proxy struct {
	transport Transport
	base      Transport
}

// NewProxy создает новый, готовый к использованию экземпляр прокси.
// Транспорт оборачивается цепочкой middleware один раз, при создании.
func NewProxy(transport Transport, opts ...Option) (*Proxy, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	cfg := &config{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	allMiddlewares := []Middleware{
		NewLoggingMiddleware(cfg.logger),
		NewMetricsMiddleware(cfg.meterProvider),
		NewTracingMiddleware(cfg.tracerProvider),
	}
	allMiddlewares = append(allMiddlewares, cfg.middlewares...)

	return &Proxy{
		transport: applyMiddlewares(transport, allMiddlewares...),
		base:      transport,
	}, nil
}

// BaseURI возвращает базовый адрес транспорта.
func (p *Proxy) BaseURI() string {
	return p.base.BaseURI()
}

// Shutdown корректно завершает работу цепочки транспорта.
func (p *Proxy) Shutdown(ctx context.Context) error {
	return shutdownTransport(ctx, p.transport)
}

// Execute выполняет команду и возвращает десериализованный результат.
//
// Если транспорт вернул *UnexpectedResponseError, прокси строит ErrorResult и
// ровно один раз вызывает cmd.HandleError; его результат, значение или ошибка,
// возвращается без изменений. Все прочие ошибки возвращаются как есть.
func Execute[T any](ctx context.Context, p *Proxy, cmd Command[T]) (T, error) {
	var zero T

	req, err := NewRequest(cmd)
	if err != nil {
		return zero, err
	}

	resp, err := Process[T](ctx, p.transport, req, cmd.SuccessStatusCode())
	if err == nil {
		return resp.DeserializedContent, nil
	}

	unexpected, ok := AsUnexpectedResponse(err)
	if !ok {
		return zero, err
	}

	result := &ErrorResult{
		Route:      req.Path,
		Method:     req.Method,
		BaseURI:    p.base.BaseURI(),
		StatusCode: unexpected.StatusCode,
		Message:    unexpected.Message(),
		Content:    unexpected.Content,
	}
	return cmd.HandleError(ctx, req.Path, result, unexpected)
}
