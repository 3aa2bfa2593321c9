package proxy

import "context"

// Transport определяет контракт внешнего клиента, выполняющего HTTP-запрос.
type Transport interface {
	// Send выполняет запрос. Если статус ответа совпадает с expectedStatus,
	// тело десериализуется в out (указатель). Иначе возвращается
	// *UnexpectedResponseError, а out не изменяется. Любые другие сбои
	// возвращаются как обычные ошибки.
	Send(ctx context.Context, req *Request, expectedStatus int, out any) (*RawResponse, error)

	// BaseURI возвращает базовый адрес сервера для диагностики.
	BaseURI() string
}

// shutdowner реализуется транспортами, которым нужно освобождать ресурсы.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Process выполняет запрос через транспорт и возвращает типизированный ответ.
func Process[T any](ctx context.Context, t Transport, req *Request, expectedStatus int) (*Response[T], error) {
	var content T
	raw, err := t.Send(ctx, req, expectedStatus, &content)
	if err != nil {
		return nil, err
	}

	resp := &Response[T]{DeserializedContent: content}
	if raw != nil {
		resp.RawResponse = *raw
	}
	return resp, nil
}

// shutdownTransport завершает работу транспорта, если он это поддерживает.
func shutdownTransport(ctx context.Context, t Transport) error {
	if s, ok := t.(shutdowner); ok {
		return s.Shutdown(ctx)
	}
	return nil
}
