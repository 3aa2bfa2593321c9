// Package journal ведет журнал HTTP-обменов прокси. Middleware журнала
// записывает каждый обмен в очередь, а Flusher в фоне сохраняет записи
// пакетами в Storage, не задерживая сам запрос.
package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/x-research-team/docdb-proxy/proxy"
)

const (
	// OutcomeSuccess означает, что статус ответа совпал с ожидаемым.
	OutcomeSuccess = "SUCCESS"
	// OutcomeUnexpected означает, что транспорт вернул неожиданный статус.
	OutcomeUnexpected = "UNEXPECTED_STATUS"
	// OutcomeFailed означает любую другую ошибку обмена.
	OutcomeFailed = "FAILED"
)

// Entry представляет один обмен, сохраненный в журнале.
type Entry struct {
	ID             uuid.UUID     // Идентификатор запроса
	Command        string        // Тип команды
	Method         string        // HTTP-метод
	Path           string        // Относительный путь
	ExpectedStatus int           // Ожидаемый статус
	StatusCode     int           // Фактический статус, 0 если ответа не было
	Outcome        string        // SUCCESS, UNEXPECTED_STATUS или FAILED
	Error          string        // Текст ошибки
	Duration       time.Duration // Длительность обмена
	CreatedAt      time.Time     // Время начала обмена
}

// newEntry строит запись по результату обмена.
func newEntry(req *proxy.Request, expectedStatus int, raw *proxy.RawResponse, err error, startedAt time.Time) *Entry {
	entry := &Entry{
		ID:             req.ID,
		Command:        req.Command,
		Method:         req.Method.String(),
		Path:           req.Path,
		ExpectedStatus: expectedStatus,
		Outcome:        OutcomeSuccess,
		Duration:       time.Since(startedAt),
		CreatedAt:      startedAt.UTC(),
	}

	if raw != nil {
		entry.StatusCode = raw.StatusCode
	}
	if err != nil {
		entry.Error = err.Error()
		entry.Outcome = OutcomeFailed
		if unexpected, ok := proxy.AsUnexpectedResponse(err); ok {
			entry.Outcome = OutcomeUnexpected
			entry.StatusCode = unexpected.StatusCode
		}
	}

	return entry
}
