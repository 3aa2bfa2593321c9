package proxy

import (
	"errors"
	"fmt"
)

// UnexpectedResponseError возвращается транспортом, когда фактический статус
// ответа не совпадает с ожидаемым. Прокси перехватывает только эту ошибку.
type UnexpectedResponseError struct {
	// StatusCode - фактический статус ответа.
	StatusCode int
	// Expected - статус, который ожидала команда.
	Expected int
	// Content - сырое тело ответа, если оно было прочитано.
	Content string
	// Cause - исходная причина, например текст ошибки сервера.
	Cause error
}

// NewUnexpectedResponseError создает ошибку неожиданного ответа.
func NewUnexpectedResponseError(status, expected int, content string, cause error) *UnexpectedResponseError {
	return &UnexpectedResponseError{
		StatusCode: status,
		Expected:   expected,
		Content:    content,
		Cause:      cause,
	}
}

// Error реализует интерфейс error.
func (e *UnexpectedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("неожиданный статус ответа %d (ожидался %d): %v", e.StatusCode, e.Expected, e.Cause)
	}
	return fmt.Sprintf("неожиданный статус ответа %d (ожидался %d)", e.StatusCode, e.Expected)
}

// Unwrap возвращает исходную причину.
func (e *UnexpectedResponseError) Unwrap() error {
	return e.Cause
}

// HTTPStatus возвращает фактический HTTP-статус.
func (e *UnexpectedResponseError) HTTPStatus() int {
	return e.StatusCode
}

// Message возвращает текст причины или пустую строку.
func (e *UnexpectedResponseError) Message() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

// AsUnexpectedResponse извлекает UnexpectedResponseError из цепочки ошибок.
func AsUnexpectedResponse(err error) (*UnexpectedResponseError, bool) {
	var target *UnexpectedResponseError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// ErrorResult описывает неудавшийся обмен. Создается прокси только при
// неожиданном ответе, передается обработчику команды и не сохраняется.
type ErrorResult struct {
	Route      string
	Method     Operation
	BaseURI    string
	StatusCode int
	// Message - текст ошибки из причины.
	Message string
	// Content - сырое тело ответа сервера.
	Content string
}

// String возвращает краткое описание для логов.
func (r *ErrorResult) String() string {
	return fmt.Sprintf("%s %s (%s): статус %d: %s", r.Method, r.Route, r.BaseURI, r.StatusCode, r.Message)
}
