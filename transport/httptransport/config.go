package httptransport

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config описывает подключение к HTTP API базы данных.
type Config struct {
	BaseURI             string        `env:"DOCDB_BASE_URI,required"`
	Username            string        `env:"DOCDB_USERNAME"`
	Password            string        `env:"DOCDB_PASSWORD"`
	UserAgent           string        `env:"DOCDB_USER_AGENT" envDefault:"docdb-proxy/0.1"`
	Timeout             time.Duration `env:"DOCDB_TIMEOUT" envDefault:"30s"`
	MaxIdleConnsPerHost int           `env:"DOCDB_MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
}

// LoadConfig загружает конфигурацию из переменных окружения. Перед этим
// читаются указанные .env-файлы (по умолчанию ".env"); отсутствующий файл
// не считается ошибкой, а уже заданные переменные не перезаписываются.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("не удалось загрузить .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("не удалось разобрать переменные окружения: %w", err)
	}
	return cfg, nil
}
