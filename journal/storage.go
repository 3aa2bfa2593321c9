package journal

import "context"

// Storage определяет контракт для персистентного хранения записей журнала.
// Все операции должны быть потокобезопасными.
type Storage interface {
	// Save сохраняет пакет записей.
	Save(ctx context.Context, entries ...*Entry) error

	// Recent возвращает последние записи, начиная с самой новой.
	Recent(ctx context.Context, limit int) ([]*Entry, error)
}
