// Package config загружает конфигурацию ядра из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"coreuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"rewards_core"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Часовой пояс, в котором считаются «календарные дни» дрипов
	// и по которому идут cron-задачи
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Allocation / drip ---
	// Сколько дней по умолчанию растягивается аллокация (если тариф не задал своё)
	AllocationDefaultDays int `envconfig:"ALLOCATION_DEFAULT_DAYS" default:"30"`
	// Куда уходит нераспределённый остаток при истечении аллокации: admin | treasury
	UnclaimedDestination string `envconfig:"UNCLAIMED_DESTINATION" default:"treasury"`
	// Расписание дрип-цикла (раз в сутки, после полуночи)
	DripCronSpec string `envconfig:"DRIP_CRON_SPEC" default:"5 0 * * *"`

	// --- Audit ---
	// Расписание ночной проверки целостности цепочек
	AuditCronSpec string `envconfig:"AUDIT_CRON_SPEC" default:"30 3 * * *"`
	// Сколько счетов проверяем за один проход (0 = все)
	AuditBatchSize int `envconfig:"AUDIT_BATCH_SIZE" default:"0"`

	// --- Telegram alerts ---
	// Токен бота и чат для операторских алертов о нарушении целостности.
	// Пустой токен — алерты только в лог.
	AlertBotToken string `envconfig:"ALERT_BOT_TOKEN" default:""`
	AlertChatID   int64  `envconfig:"ALERT_CHAT_ID" default:"0"`

	// --- Withdrawals ---
	// Минимальная сумма вывода в USDT
	WithdrawalMinAmount string `envconfig:"WITHDRAWAL_MIN_AMOUNT" default:"10"`

	loc *time.Location
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает загруженный часовой пояс приложения.
func (c *Config) Location() *time.Location {
	return c.loc
}

func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.AllocationDefaultDays <= 0 {
		return fmt.Errorf("ALLOCATION_DEFAULT_DAYS должен быть > 0")
	}
	if c.UnclaimedDestination != "admin" && c.UnclaimedDestination != "treasury" {
		return fmt.Errorf("UNCLAIMED_DESTINATION должен быть admin или treasury")
	}
	if c.AlertBotToken != "" && c.AlertChatID == 0 {
		return fmt.Errorf("ALERT_CHAT_ID не задан при включённых алертах")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		// Если зона не нашлась — работаем в UTC, но не падаем
		loc = time.UTC
	}
	cfg.loc = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
