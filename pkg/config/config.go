package config

import (
	"fmt"
	"time"
)

type DB struct {
	Url          string        `envconfig:"URL"`
	Migrate      bool          `envconfig:"MIGRATE" default:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnLifetime time.Duration `envconfig:"CONN_LIFETIME" default:"1h"`
}

type Jwt struct {
	Secret string `envconfig:"SECRET" required:"true"`
	Issuer string `envconfig:"ISSUER" default:""`
	// AdminRole is the role claim value allowed to refund and bust caches.
	AdminRole string `envconfig:"ADMIN_ROLE" default:"admin"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:""`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"marketpay:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Payment struct {
	DefaultCurrency string        `envconfig:"DEFAULT_CURRENCY" default:"RWF"`
	DefaultTier     string        `envconfig:"DEFAULT_TIER" default:"basic"`
	TransactionTTL  time.Duration `envconfig:"TRANSACTION_TTL" default:"15m"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`
	ConfigCacheTTL  time.Duration `envconfig:"CONFIG_CACHE_TTL" default:"5m"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	SweepBatchSize  int           `envconfig:"SWEEP_BATCH_SIZE" default:"100"`
}

//revive:disable
type ExchangeRate struct {
	ApiUrl            string        `envconfig:"API_URL" default:"https://v6.exchangerate-api.com/v6"`
	ApiKey            string        `envconfig:"API_KEY"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	RequestsPerMinute int           `envconfig:"REQUESTS_PER_MINUTE" default:"60"`
	BurstSize         int           `envconfig:"BURST_SIZE" default:"10"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	CachePrefix       string        `envconfig:"CACHE_PREFIX" default:"exr:rate:"`
}

//revive:enable

type EventBus struct {
	Driver           string `envconfig:"DRIVER" default:"memory"`
	RedisURL         string `envconfig:"REDIS_URL" default:""`
	Stream           string `envconfig:"STREAM" default:"marketpay:events"`
	KafkaBrokers     string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopicPrefix string `envconfig:"KAFKA_TOPIC_PREFIX" default:"marketpay.events"`
	KafkaGroupID     string `envconfig:"KAFKA_GROUP_ID" default:"marketpay"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[marketpay]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type App struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Server       *Server       `envconfig:"SERVER"`
	Log          *Log          `envconfig:"LOG"`
	DB           *DB           `envconfig:"DATABASE"`
	Auth         *Auth         `envconfig:"AUTH"`
	Redis        *Redis        `envconfig:"REDIS"`
	RateLimit    *RateLimit    `envconfig:"RATE_LIMIT"`
	Payment      *Payment      `envconfig:"PAYMENT"`
	ExchangeRate *ExchangeRate `envconfig:"EXCHANGE_RATE"`
	EventBus     *EventBus     `envconfig:"EVENT_BUS"`
}
