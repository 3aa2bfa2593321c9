// Package codec определяет сменный текстовый кодек, которым транспорт
// сериализует тела запросов и десериализует тела ответов.
package codec

import (
	"encoding/json"
	"fmt"
)

// Codec сериализует и десериализует значения для передачи по сети.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

// JSON - кодек по умолчанию.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

// Marshal сериализует значение в JSON. Срезы байт и json.RawMessage
// передаются без изменений.
func (jsonCodec) Marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case json.RawMessage:
		return val, nil
	case []byte:
		return val, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать значение %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal десериализует JSON в v. Пустое тело оставляет v без изменений,
// а *string и *[]byte получают сырое тело.
func (jsonCodec) Unmarshal(data []byte, v any) error {
	switch target := v.(type) {
	case nil:
		return nil
	case *string:
		*target = string(data)
		return nil
	case *[]byte:
		*target = append((*target)[:0], data...)
		return nil
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("не удалось десериализовать ответ в %T: %w", v, err)
	}
	return nil
}

// ContentType возвращает MIME-тип кодека.
func (jsonCodec) ContentType() string {
	return "application/json"
}
