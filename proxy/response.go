package proxy

// RawResponse содержит нетипизированную часть HTTP-ответа, которую
// возвращает транспорт.
type RawResponse struct {
	ContentType       string
	ContentLength     int64
	Content           string
	StatusCode        int
	StatusDescription string
}

// Response - это типизированный ответ транспорта.
// DeserializedContent заполнен тогда и только тогда, когда статус ответа
// совпал с ожидаемым.
type Response[T any] struct {
	RawResponse
	DeserializedContent T
}
