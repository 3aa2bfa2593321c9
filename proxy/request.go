package proxy

import (
	"errors"
	"fmt"

	"github.com/goccy/go-reflect"
	"github.com/google/uuid"
)

var (
	// ErrNilCommand возвращается, если в Execute передана пустая команда.
	ErrNilCommand = errors.New("команда не может быть nil")
	// ErrEmptyRoute возвращается, если команда не задает путь ресурса.
	ErrEmptyRoute = errors.New("путь команды не может быть пустым")
	// ErrUnsupportedOperation возвращается для неизвестного HTTP-метода.
	ErrUnsupportedOperation = errors.New("неподдерживаемая операция")
)

// Request описывает исходящий HTTP-запрос. Создается заново для каждого
// выполнения команды и не изменяется после построения.
type Request struct {
	// ID - идентификатор выполнения для корреляции логов, спанов и журнала.
	ID uuid.UUID
	// Path - относительный путь ресурса; базовый адрес добавляет транспорт.
	Path string
	// Method - HTTP-метод.
	Method Operation
	// Payload - тело запроса в исходном виде или nil.
	Payload any
	// Command - имя типа команды, из которой построен запрос.
	Command string
}

// HasPayload сообщает, несет ли запрос тело.
func (r *Request) HasPayload() bool {
	return r.Payload != nil
}

// NewRequest строит запрос из команды. Сообщение команды передается как есть,
// без копирования и преобразования.
func NewRequest[T any](cmd Command[T]) (*Request, error) {
	if cmd == nil {
		return nil, ErrNilCommand
	}

	route := cmd.Route()
	if route == "" {
		return nil, ErrEmptyRoute
	}

	op := cmd.Operation()
	if !op.Valid() {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedOperation, op)
	}

	return &Request{
		ID:      uuid.New(),
		Path:    route,
		Method:  op,
		Payload: cmd.Message(),
		Command: commandName(cmd),
	}, nil
}

// commandName извлекает имя типа команды с помощью рефлексии.
func commandName(cmd any) string {
	val := reflect.ValueOf(cmd)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return reflect.TypeOf(cmd).String()
		}
		val = val.Elem()
	}

	if name := val.Type().Name(); name != "" {
		return name
	}
	return val.Type().String()
}
