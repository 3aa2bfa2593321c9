// Package httptransport реализует proxy.Transport поверх net/http.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"

	"github.com/x-research-team/docdb-proxy/codec"
	"github.com/x-research-team/docdb-proxy/proxy"
)

// HeaderRequestID - заголовок с идентификатором выполнения команды.
const HeaderRequestID = "X-Request-ID"

// ErrInvalidBaseURI возвращается для некорректного базового адреса.
var ErrInvalidBaseURI = errors.New("некорректный базовый адрес")

// Doer - минимальный HTTP-клиент; ему удовлетворяет *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ServerError описывает тело ошибки сервера вида {"error": ..., "reason": ...}.
type ServerError struct {
	StatusCode int
	Code       string `json:"error"`
	Reason     string `json:"reason"`
}

// Error реализует интерфейс error.
func (e *ServerError) Error() string {
	if e.Reason == "" {
		return e.Code
	}
	return e.Code + ": " + e.Reason
}

// Option определяет функциональную опцию транспорта.
type Option func(*Transport)

// WithHTTPClient задает HTTP-клиент вместо созданного по конфигурации.
func WithHTTPClient(client Doer) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithCodec задает кодек тел запросов и ответов.
func WithCodec(c codec.Codec) Option {
	return func(t *Transport) {
		t.codec = c
	}
}

// WithPropagator задает механизм распространения контекста трассировки в заголовках.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Transport) {
		t.propagator = p
	}
}

// Transport выполняет один синхронный HTTP-обмен на каждый вызов Send.
// Безопасен для конкурентного использования.
type Transport struct {
	baseURI    string
	username   string
	password   string
	userAgent  string
	client     Doer
	codec      codec.Codec
	propagator propagation.TextMapPropagator
}

// New создает транспорт по конфигурации.
func New(cfg Config, opts ...Option) (*Transport, error) {
	base, err := url.Parse(cfg.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %v", ErrInvalidBaseURI, cfg.BaseURI, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w '%s'", ErrInvalidBaseURI, cfg.BaseURI)
	}

	t := &Transport{
		baseURI:    strings.TrimRight(cfg.BaseURI, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		userAgent:  cfg.UserAgent,
		codec:      codec.JSON,
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = newHTTPClient(cfg)
	}

	return t, nil
}

// newHTTPClient создает HTTP-клиент с пулом соединений к одному хосту.
func newHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// BaseURI реализует proxy.Transport.
func (t *Transport) BaseURI() string {
	return t.baseURI
}

// Send реализует proxy.Transport.
func (t *Transport) Send(ctx context.Context, req *proxy.Request, expectedStatus int, out any) (*proxy.RawResponse, error) {
	httpReq, err := t.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать тело ответа %s %s: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode != expectedStatus {
		return nil, proxy.NewUnexpectedResponseError(resp.StatusCode, expectedStatus, string(content), serverError(resp.StatusCode, content))
	}

	if req.Method != proxy.OperationHead && out != nil {
		if err := t.codec.Unmarshal(content, out); err != nil {
			return nil, err
		}
	}

	contentLength := resp.ContentLength
	if contentLength < 0 {
		contentLength = int64(len(content))
	}

	return &proxy.RawResponse{
		ContentType:       resp.Header.Get("Content-Type"),
		ContentLength:     contentLength,
		Content:           string(content),
		StatusCode:        resp.StatusCode,
		StatusDescription: http.StatusText(resp.StatusCode),
	}, nil
}

// Shutdown закрывает простаивающие соединения клиента.
func (t *Transport) Shutdown(ctx context.Context) error {
	if c, ok := t.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

// newHTTPRequest строит HTTP-запрос: адрес, тело и заголовки.
func (t *Transport) newHTTPRequest(ctx context.Context, req *proxy.Request) (*http.Request, error) {
	var body io.Reader
	if req.HasPayload() {
		data, err := t.codec.Marshal(req.Payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), t.resolve(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать запрос %s %s: %w", req.Method, req.Path, err)
	}

	httpReq.Header.Set("Accept", t.codec.ContentType())
	if body != nil {
		httpReq.Header.Set("Content-Type", t.codec.ContentType())
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	httpReq.Header.Set(HeaderRequestID, req.ID.String())
	if t.username != "" {
		httpReq.SetBasicAuth(t.username, t.password)
	}
	if t.propagator != nil {
		t.propagator.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	}

	return httpReq, nil
}

// resolve присоединяет относительный путь к базовому адресу.
func (t *Transport) resolve(path string) string {
	return t.baseURI + "/" + strings.TrimLeft(path, "/")
}

// serverError извлекает описание ошибки из тела ответа.
func serverError(status int, content []byte) error {
	var se ServerError
	if err := json.Unmarshal(content, &se); err == nil && se.Code != "" {
		se.StatusCode = status
		return &se
	}

	if text := strings.TrimSpace(string(content)); text != "" {
		return errors.New(text)
	}
	return errors.New(http.StatusText(status))
}
