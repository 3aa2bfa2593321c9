package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/x-research-team/docdb-proxy/proxy"
	instrumentationVersion = "0.1.0"
	metricKeyPrefix        = "docdb.client."
)

const (
	outcomeSuccess    = "success"
	outcomeUnexpected = "unexpected_status"
	outcomeError      = "error"
)

// Middleware определяет интерфейс для middleware транспорта.
// Middleware не должно оборачивать или подменять *UnexpectedResponseError.
type Middleware interface {
	Wrap(next Transport) Transport
}

// MiddlewareFunc является адаптером, позволяющим использовать обычные функции как middleware.
type MiddlewareFunc func(next Transport) Transport

// Wrap реализует интерфейс Middleware.
func (f MiddlewareFunc) Wrap(next Transport) Transport {
	return f(next)
}

// outcomeOf классифицирует результат обмена.
func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if _, ok := AsUnexpectedResponse(err); ok {
		return outcomeUnexpected
	}
	return outcomeError
}

// statusOf возвращает фактический статус обмена или 0, если он неизвестен.
func statusOf(raw *RawResponse, err error) int {
	if raw != nil {
		return raw.StatusCode
	}
	if unexpected, ok := AsUnexpectedResponse(err); ok {
		return unexpected.StatusCode
	}
	return 0
}

// loggingMiddleware реализует Middleware для логирования обменов.
type loggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware создает новое middleware для логирования.
// Если логгер не предоставлен (nil), возвращается no-op middleware.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		return &noopMiddleware{}
	}
	return &loggingMiddleware{
		logger: logger,
	}
}

// Wrap оборачивает транспорт для добавления логирования.
func (m *loggingMiddleware) Wrap(next Transport) Transport {
	return &loggingTransport{
		next:   next,
		logger: m.logger,
	}
}

// loggingTransport - это обертка над транспортом, которая добавляет логирование.
type loggingTransport struct {
	next   Transport
	logger *slog.Logger
}

// Send логирует и выполняет запрос.
func (t *loggingTransport) Send(ctx context.Context, req *Request, expectedStatus int, out any) (raw *RawResponse, err error) {
	attrs := []any{
		slog.String("request_id", req.ID.String()),
		slog.String("command_type", req.Command),
		slog.String("method", req.Method.String()),
		slog.String("path", req.Path),
	}
	t.logger.InfoContext(ctx, "отправка запроса", attrs...)

	startTime := time.Now()
	defer func() {
		attrs = append(attrs,
			slog.Int("status", statusOf(raw, err)),
			slog.Int("expected_status", expectedStatus),
			slog.Duration("duration", time.Since(startTime)),
		)
		switch outcomeOf(err) {
		case outcomeUnexpected:
			t.logger.WarnContext(ctx, "неожиданный статус ответа", append(attrs, slog.Any("error", err))...)
		case outcomeError:
			t.logger.ErrorContext(ctx, "ошибка отправки запроса", append(attrs, slog.Any("error", err))...)
		default:
			t.logger.DebugContext(ctx, "запрос выполнен", attrs...)
		}
	}()

	return t.next.Send(ctx, req, expectedStatus, out)
}

// BaseURI делегирует вызов.
func (t *loggingTransport) BaseURI() string {
	return t.next.BaseURI()
}

// Shutdown делегирует вызов следующему транспорту в цепочке.
func (t *loggingTransport) Shutdown(ctx context.Context) error {
	return shutdownTransport(ctx, t.next)
}

// metricsMiddleware реализует Middleware для сбора метрик OpenTelemetry.
type metricsMiddleware struct {
	requestCounter metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// NewMetricsMiddleware создает новое middleware для сбора метрик.
func NewMetricsMiddleware(provider metric.MeterProvider) Middleware {
	if provider == nil {
		return &noopMiddleware{}
	}

	meter := provider.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))

	requestCounter, err := meter.Int64Counter(
		metricKeyPrefix+"request.count",
		metric.WithDescription("Количество запросов к базе данных"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		panic(fmt.Sprintf("не удалось создать счетчик request.count: %v", err))
	}

	durationHist, err := meter.Float64Histogram(
		metricKeyPrefix+"request.duration",
		metric.WithDescription("Длительность запроса к базе данных"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("не удалось создать гистограмму request.duration: %v", err))
	}

	return &metricsMiddleware{
		requestCounter: requestCounter,
		durationHist:   durationHist,
	}
}

// Wrap оборачивает транспорт для добавления сбора метрик.
func (m *metricsMiddleware) Wrap(next Transport) Transport {
	return &metricsTransport{
		next:           next,
		requestCounter: m.requestCounter,
		durationHist:   m.durationHist,
	}
}

// metricsTransport - это обертка над транспортом, которая собирает метрики.
type metricsTransport struct {
	next           Transport
	requestCounter metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// Send собирает метрики и выполняет запрос.
func (t *metricsTransport) Send(ctx context.Context, req *Request, expectedStatus int, out any) (*RawResponse, error) {
	startTime := time.Now()
	raw, err := t.next.Send(ctx, req, expectedStatus, out)
	duration := float64(time.Since(startTime).Milliseconds())

	attrs := metric.WithAttributes(
		attribute.String("http.request.method", req.Method.String()),
		attribute.String("command.type", req.Command),
		attribute.String("outcome", outcomeOf(err)),
		attribute.String("http.response.status_code", strconv.Itoa(statusOf(raw, err))),
	)
	t.requestCounter.Add(ctx, 1, attrs)
	t.durationHist.Record(ctx, duration, attrs)

	return raw, err
}

// BaseURI делегирует вызов.
func (t *metricsTransport) BaseURI() string {
	return t.next.BaseURI()
}

// Shutdown делегирует вызов.
func (t *metricsTransport) Shutdown(ctx context.Context) error {
	return shutdownTransport(ctx, t.next)
}

// tracingMiddleware реализует Middleware для распределенной трассировки OpenTelemetry.
type tracingMiddleware struct {
	tracer trace.Tracer
}

// NewTracingMiddleware создает новое middleware для трассировки.
// Контекст спана передается дальше, и транспорт может внедрить его в заголовки.
func NewTracingMiddleware(tp trace.TracerProvider) Middleware {
	if tp == nil {
		return &noopMiddleware{}
	}

	return &tracingMiddleware{
		tracer: tp.Tracer(
			instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
		),
	}
}

// Wrap оборачивает транспорт для добавления трассировки.
func (m *tracingMiddleware) Wrap(next Transport) Transport {
	return &tracingTransport{
		next:   next,
		tracer: m.tracer,
	}
}

// tracingTransport - это обертка над транспортом, которая управляет спанами.
type tracingTransport struct {
	next   Transport
	tracer trace.Tracer
}

// Send создает клиентский спан вокруг запроса.
func (t *tracingTransport) Send(ctx context.Context, req *Request, expectedStatus int, out any) (raw *RawResponse, err error) {
	spanName := fmt.Sprintf("%s %s", req.Method, req.Path)
	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method.String()),
			attribute.String("url.path", req.Path),
			attribute.String("command.type", req.Command),
			attribute.String("request.id", req.ID.String()),
		),
	)
	defer func() {
		if status := statusOf(raw, err); status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return t.next.Send(ctx, req, expectedStatus, out)
}

// BaseURI делегирует вызов.
func (t *tracingTransport) BaseURI() string {
	return t.next.BaseURI()
}

// Shutdown делегирует вызов.
func (t *tracingTransport) Shutdown(ctx context.Context) error {
	return shutdownTransport(ctx, t.next)
}

// applyMiddlewares применяет цепочку middleware к базовому транспорту.
// Первое middleware в списке оказывается внешним.
func applyMiddlewares(transport Transport, middlewares ...Middleware) Transport {
	t := transport
	for i := len(middlewares) - 1; i >= 0; i-- {
		t = middlewares[i].Wrap(t)
	}
	return t
}

// noopMiddleware представляет собой пустое middleware.
type noopMiddleware struct{}

// Wrap просто возвращает следующий транспорт без изменений.
func (m *noopMiddleware) Wrap(next Transport) Transport {
	return next
}
