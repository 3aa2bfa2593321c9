// Package proxy реализует клиентский прокси для выполнения типизированных команд
// поверх HTTP API документной базы данных. Прокси превращает команду в запрос,
// передает его транспорту, возвращает десериализованный результат, а при
// неожиданном статусе ответа передает управление обработчику ошибок самой команды.
package proxy

import (
	"context"
	"net/http"
)

// Operation определяет HTTP-метод, которым выполняется команда.
type Operation string

const (
	OperationGet    Operation = http.MethodGet
	OperationPost   Operation = http.MethodPost
	OperationPut    Operation = http.MethodPut
	OperationDelete Operation = http.MethodDelete
	OperationHead   Operation = http.MethodHead
)

// Valid сообщает, поддерживается ли операция прокси.
func (o Operation) Valid() bool {
	switch o {
	case OperationGet, OperationPost, OperationPut, OperationDelete, OperationHead:
		return true
	default:
		return false
	}
}

// HasBody сообщает, может ли операция передавать тело запроса.
func (o Operation) HasBody() bool {
	return o == OperationPost || o == OperationPut
}

// String возвращает имя HTTP-метода.
func (o Operation) String() string {
	return string(o)
}

// Command описывает одну операцию над базой данных, параметризованную типом
// результата T. Каждая конкретная операция - это небольшое значение,
// реализующее данный интерфейс.
type Command[T any] interface {
	// Route возвращает относительный путь ресурса.
	Route() string

	// Operation возвращает HTTP-метод команды.
	Operation() Operation

	// Message возвращает тело запроса или nil, если тела нет.
	// Значение передается транспорту без изменений.
	Message() any

	// SuccessStatusCode возвращает ожидаемый HTTP-статус успешного ответа.
	SuccessStatusCode() int

	// HandleError вызывается ровно один раз, если транспорт вернул
	// неожиданный статус. Возврат значения без ошибки означает, что команда
	// восстановилась, и это значение становится результатом Execute.
	HandleError(ctx context.Context, route string, result *ErrorResult, cause *UnexpectedResponseError) (T, error)
}

// ErrorHandlerFunc - функция-обработчик неожиданного ответа для Spec.
type ErrorHandlerFunc[T any] func(ctx context.Context, route string, result *ErrorResult, cause *UnexpectedResponseError) (T, error)

// Spec - это универсальная команда, собираемая из полей. Удобна для
// одноразовых операций и тестов, когда отдельный тип команды избыточен.
// Если OnError не задан, исходная ошибка транспорта возвращается вызывающему.
type Spec[T any] struct {
	Path          string
	Method        Operation
	Body          any
	SuccessStatus int
	OnError       ErrorHandlerFunc[T]
}

// Route реализует Command.
func (s Spec[T]) Route() string { return s.Path }

// Operation реализует Command.
func (s Spec[T]) Operation() Operation { return s.Method }

// Message реализует Command.
func (s Spec[T]) Message() any { return s.Body }

// SuccessStatusCode реализует Command.
func (s Spec[T]) SuccessStatusCode() int { return s.SuccessStatus }

// HandleError реализует Command.
func (s Spec[T]) HandleError(ctx context.Context, route string, result *ErrorResult, cause *UnexpectedResponseError) (T, error) {
	if s.OnError == nil {
		var zero T
		return zero, cause
	}
	return s.OnError(ctx, route, result, cause)
}
