package commands

import (
	"context"
	"net/http"
	"net/url"

	"github.com/x-research-team/docdb-proxy/proxy"
)

// CreateDocument сохраняет новый документ; идентификатор назначает сервер,
// если документ его не содержит.
type CreateDocument struct {
	Database string
	Document any
}

func (c CreateDocument) Route() string { return databasePath(c.Database) }
func (c CreateDocument) Operation() proxy.Operation { return proxy.OperationPost }
func (c CreateDocument) Message() any { return c.Document }
func (c CreateDocument) SuccessStatusCode() int { return http.StatusCreated }

// HandleError реализует proxy.Command.
func (c CreateDocument) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (DocumentResult, error) {
	return DocumentResult{}, fail("создание документа", result, cause, map[int]error{
		http.StatusNotFound: ErrNotFound,
		http.StatusConflict: ErrConflict,
	})
}

// PutDocument создает или обновляет документ с заданным идентификатором.
// Для обновления документ должен содержать актуальную ревизию "_rev".
type PutDocument struct {
	Database string
	ID       string
	Document any
}

func (c PutDocument) Route() string { return documentPath(c.Database, c.ID) }
func (c PutDocument) Operation() proxy.Operation { return proxy.OperationPut }
func (c PutDocument) Message() any { return c.Document }
func (c PutDocument) SuccessStatusCode() int { return http.StatusCreated }

// HandleError реализует proxy.Command.
func (c PutDocument) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (DocumentResult, error) {
	return DocumentResult{}, fail("запись документа", result, cause, map[int]error{
		http.StatusNotFound: ErrNotFound,
		http.StatusConflict: ErrConflict,
	})
}

// ReadDocument читает документ и декодирует его в T.
type ReadDocument[T any] struct {
	Database string
	ID       string
}

func (c ReadDocument[T]) Route() string { return documentPath(c.Database, c.ID) }
func (c ReadDocument[T]) Operation() proxy.Operation { return proxy.OperationGet }
func (c ReadDocument[T]) Message() any { return nil }
func (c ReadDocument[T]) SuccessStatusCode() int { return http.StatusOK }

// HandleError реализует proxy.Command.
func (c ReadDocument[T]) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (T, error) {
	var zero T
	return zero, fail("чтение документа", result, cause, map[int]error{
		http.StatusNotFound: ErrNotFound,
	})
}

// DeleteDocument удаляет ревизию документа.
type DeleteDocument struct {
	Database string
	ID       string
	Rev      string
}

// Route возвращает путь документа с ревизией в параметре запроса.
func (c DeleteDocument) Route() string {
	path := documentPath(c.Database, c.ID)
	if path == "" || c.Rev == "" {
		return path
	}
	return path + "?" + url.Values{"rev": {c.Rev}}.Encode()
}

func (c DeleteDocument) Operation() proxy.Operation { return proxy.OperationDelete }
func (c DeleteDocument) Message() any { return nil }
func (c DeleteDocument) SuccessStatusCode() int { return http.StatusOK }

// HandleError реализует proxy.Command.
func (c DeleteDocument) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (DocumentResult, error) {
	return DocumentResult{}, fail("удаление документа", result, cause, map[int]error{
		http.StatusNotFound: ErrNotFound,
		http.StatusConflict: ErrConflict,
	})
}
