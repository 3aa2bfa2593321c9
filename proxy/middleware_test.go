package proxy_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/x-research-team/docdb-proxy/proxy"
)

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	transport := &stubTransport{status: http.StatusNotFound, body: "missing"}
	p, err := proxy.NewProxy(transport, proxy.WithLogger(logger))
	require.NoError(t, err)

	cmd := proxy.Spec[resultStub]{Path: "db/doc", Method: proxy.OperationGet, SuccessStatus: http.StatusOK}
	_, err = proxy.Execute[resultStub](context.Background(), p, cmd)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "отправка запроса")
	assert.Contains(t, out, "неожиданный статус ответа")
	assert.Contains(t, out, `"path":"db/doc"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestLoggingMiddleware_TransportError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	transport := &stubTransport{err: errors.New("connection refused")}
	p, err := proxy.NewProxy(transport, proxy.WithLogger(logger))
	require.NoError(t, err)

	_, err = proxy.Execute[resultStub](context.Background(), p, proxy.Spec[resultStub]{Path: "db", Method: proxy.OperationGet, SuccessStatus: http.StatusOK})
	require.Error(t, err)

	assert.Contains(t, buf.String(), "ошибка отправки запроса")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	transport := &stubTransport{status: http.StatusConflict, body: "conflict"}
	p, err := proxy.NewProxy(transport, proxy.WithLogger(nil), proxy.WithTracerProvider(tp))
	require.NoError(t, err)

	cmd := proxy.Spec[resultStub]{Path: "db", Method: proxy.OperationPut, SuccessStatus: http.StatusCreated}
	_, err = proxy.Execute[resultStub](context.Background(), p, cmd)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "PUT db", span.Name())
	assert.Equal(t, trace.SpanKindClient, span.SpanKind())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.Int("http.response.status_code", http.StatusConflict))
	assert.Contains(t, span.Attributes(), attribute.String("url.path", "db"))
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	transport := &stubTransport{status: http.StatusOK, body: `{"status":"completed"}`}
	p, err := proxy.NewProxy(transport, proxy.WithLogger(nil), proxy.WithMeterProvider(mp))
	require.NoError(t, err)

	cmd := proxy.Spec[resultStub]{Path: "db", Method: proxy.OperationGet, SuccessStatus: http.StatusOK}
	for i := 0; i < 3; i++ {
		_, err := proxy.Execute[resultStub](context.Background(), p, cmd)
		require.NoError(t, err)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m
	}
	require.Contains(t, names, "docdb.client.request.count")
	require.Contains(t, names, "docdb.client.request.duration")

	sum, ok := names["docdb.client.request.count"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
	outcome, ok := sum.DataPoints[0].Attributes.Value("outcome")
	require.True(t, ok)
	assert.Equal(t, "success", outcome.AsString())
}

// Пользовательские middleware вызываются в порядке добавления.
func TestWithMiddleware_Order(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	record := func(name string) proxy.Middleware {
		return proxy.MiddlewareFunc(func(next proxy.Transport) proxy.Transport {
			return &recordingTransport{Transport: next, onSend: func() {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
			}}
		})
	}

	transport := &stubTransport{status: http.StatusOK, body: `{}`}
	p, err := proxy.NewProxy(transport, proxy.WithLogger(nil), proxy.WithMiddleware(record("first"), record("second")))
	require.NoError(t, err)

	_, err = proxy.Execute[resultStub](context.Background(), p, proxy.Spec[resultStub]{Path: "db", Method: proxy.OperationGet, SuccessStatus: http.StatusOK})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

// Отмена контекста во время ожидания лимитера возвращается как обычная ошибка.
func TestRateLimitMiddleware_Canceled(t *testing.T) {
	t.Parallel()

	transport := &stubTransport{status: http.StatusOK, body: `{}`}
	p, err := proxy.NewProxy(transport, proxy.WithLogger(nil), proxy.WithMiddleware(proxy.NewRateLimitMiddleware(0.001, 1)))
	require.NoError(t, err)

	spy := &handlerSpy{}
	cmd := proxy.Spec[resultStub]{Path: "db", Method: proxy.OperationGet, SuccessStatus: http.StatusOK, OnError: spy.handler(resultStub{}, nil)}

	_, err = proxy.Execute[resultStub](context.Background(), p, cmd)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = proxy.Execute[resultStub](ctx, p, cmd)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, spy.calls)
	assert.Equal(t, 1, transport.calls())
}

type recordingTransport struct {
	proxy.Transport
	onSend func()
}

func (r *recordingTransport) Send(ctx context.Context, req *proxy.Request, expectedStatus int, out any) (*proxy.RawResponse, error) {
	r.onSend()
	return r.Transport.Send(ctx, req, expectedStatus, out)
}
