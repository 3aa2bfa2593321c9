package proxy

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitMiddleware ограничивает частоту запросов к серверу.
type rateLimitMiddleware struct {
	limiter *rate.Limiter
}

// NewRateLimitMiddleware создает middleware, которое перед каждым запросом
// ожидает разрешения лимитера. Один лимитер разделяется всеми обернутыми
// транспортами.
func NewRateLimitMiddleware(requestsPerSecond float64, burst int) Middleware {
	if requestsPerSecond <= 0 {
		return &noopMiddleware{}
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitMiddleware{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wrap оборачивает транспорт ограничителем частоты.
func (m *rateLimitMiddleware) Wrap(next Transport) Transport {
	return &rateLimitTransport{
		next:    next,
		limiter: m.limiter,
	}
}

type rateLimitTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// Send ожидает разрешения лимитера и выполняет запрос.
func (t *rateLimitTransport) Send(ctx context.Context, req *Request, expectedStatus int, out any) (*RawResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ожидание лимитера запросов: %w", err)
	}
	return t.next.Send(ctx, req, expectedStatus, out)
}

// BaseURI делегирует вызов.
func (t *rateLimitTransport) BaseURI() string {
	return t.next.BaseURI()
}

// Shutdown делегирует вызов.
func (t *rateLimitTransport) Shutdown(ctx context.Context) error {
	return shutdownTransport(ctx, t.next)
}
