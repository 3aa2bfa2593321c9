// Package commands содержит конкретные команды для HTTP API документной базы
// данных в стиле CouchDB. Каждая команда - небольшое значение, реализующее
// proxy.Command, со своей политикой обработки неожиданных ответов.
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/x-research-team/docdb-proxy/proxy"
)

var (
	// ErrNotFound возвращается, если база данных или документ не существуют.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrDatabaseExists возвращается при создании уже существующей базы данных.
	ErrDatabaseExists = errors.New("база данных уже существует")
	// ErrConflict возвращается при конфликте ревизий документа.
	ErrConflict = errors.New("конфликт ревизий документа")
	// ErrUnauthorized возвращается при отказе в доступе.
	ErrUnauthorized = errors.New("доступ запрещен")
)

// CommandError описывает неудачное выполнение команды.
type CommandError struct {
	Op     string
	Result *proxy.ErrorResult
	Err    error
}

// Error реализует интерфейс error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Result, e.Err)
}

// Unwrap возвращает доменную ошибку или исходную ошибку транспорта.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// StatusCode возвращает HTTP-статус неудавшегося обмена.
func (e *CommandError) StatusCode() int {
	return e.Result.StatusCode
}

// fail переводит неожиданный ответ в ошибку команды. Статусы из mapping
// заменяются доменными ошибками, остальные сохраняют исходную причину.
func fail(op string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError, mapping map[int]error) error {
	err := error(cause)
	if domainErr, ok := mapping[result.StatusCode]; ok {
		err = fmt.Errorf("%w: %w", domainErr, cause)
	} else if result.StatusCode == http.StatusUnauthorized || result.StatusCode == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrUnauthorized, cause)
	}
	return &CommandError{Op: op, Result: result, Err: err}
}

// databasePath возвращает путь базы данных.
func databasePath(name string) string {
	if name == "" {
		return ""
	}
	return url.PathEscape(name)
}

// documentPath возвращает путь документа.
func documentPath(db, id string) string {
	if db == "" || id == "" {
		return ""
	}
	return url.PathEscape(db) + "/" + url.PathEscape(id)
}

// OK - ответ сервера на операции без полезных данных.
type OK struct {
	OK bool `json:"ok"`
}

// DatabaseInfo - сведения о базе данных.
type DatabaseInfo struct {
	Name      string `json:"db_name"`
	DocCount  int64  `json:"doc_count"`
	DelCount  int64  `json:"doc_del_count"`
	UpdateSeq string `json:"update_seq"`
	Sizes     struct {
		File     int64 `json:"file"`
		External int64 `json:"external"`
		Active   int64 `json:"active"`
	} `json:"sizes"`
}

// DocumentResult - ответ сервера на запись документа.
type DocumentResult struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// CreateDatabase создает базу данных.
type CreateDatabase struct {
	Name string
}

func (c CreateDatabase) Route() string { return databasePath(c.Name) }
func (c CreateDatabase) Operation() proxy.Operation { return proxy.OperationPut }
func (c CreateDatabase) Message() any { return nil }
func (c CreateDatabase) SuccessStatusCode() int { return http.StatusCreated }

// HandleError реализует proxy.Command.
func (c CreateDatabase) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (OK, error) {
	return OK{}, fail("создание базы данных", result, cause, map[int]error{
		http.StatusPreconditionFailed: ErrDatabaseExists,
	})
}

// EnsureDatabase создает базу данных, если ее еще нет. Существующая база
// считается успехом.
type EnsureDatabase struct {
	Name string
}

func (c EnsureDatabase) Route() string { return databasePath(c.Name) }
func (c EnsureDatabase) Operation() proxy.Operation { return proxy.OperationPut }
func (c EnsureDatabase) Message() any { return nil }
func (c EnsureDatabase) SuccessStatusCode() int { return http.StatusCreated }

// HandleError реализует proxy.Command.
func (c EnsureDatabase) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (OK, error) {
	if result.StatusCode == http.StatusPreconditionFailed {
		return OK{OK: true}, nil
	}
	return OK{}, fail("создание базы данных", result, cause, nil)
}

// ReadDatabase читает сведения о базе данных.
type ReadDatabase struct {
	Name string
}

func (c ReadDatabase) Route() string { return databasePath(c.Name) }
func (c ReadDatabase) Operation() proxy.Operation { return proxy.OperationGet }
func (c ReadDatabase) Message() any { return nil }
func (c ReadDatabase) SuccessStatusCode() int { return http.StatusOK }

// HandleError реализует proxy.Command.
func (c ReadDatabase) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (DatabaseInfo, error) {
	return DatabaseInfo{}, fail("чтение базы данных", result, cause, map[int]error{
		http.StatusNotFound: ErrNotFound,
	})
}

// DeleteDatabase удаляет базу данных.
type DeleteDatabase struct {
	Name string
}

func (c DeleteDatabase) Route() string { return databasePath(c.Name) }
func (c DeleteDatabase) Operation() proxy.Operation { return proxy.OperationDelete }
func (c DeleteDatabase) Message() any { return nil }
func (c DeleteDatabase) SuccessStatusCode() int { return http.StatusOK }

// HandleError реализует proxy.Command.
func (c DeleteDatabase) HandleError(ctx context.Context, route string, result *proxy.ErrorResult, cause *proxy.UnexpectedResponseError) (OK, error) {
	return OK{}, fail("удаление базы данных", result, cause, map[int]error{
		http.StatusNotFound: ErrNotFound,
	})
}
