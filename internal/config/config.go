package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"notifyrelay/internal/domain"
)

type Config struct {
	HTTPAddr string
	Release  bool
	LogLevel string
	LogFile  string

	Listener string

	StoreDriver    string
	MySQLDSN       string
	SQLitePath     string
	HistoryKey     string
	HistoryMax     int
	StoreRetryMax  time.Duration
	StoreRetryBase time.Duration

	RabbitMQURL         string
	RabbitExchange      string
	RabbitQueue         string
	RabbitRoutingKey    string
	RabbitConsumerTag   string
	RabbitPublishPrefix string

	SSEHeartbeat time.Duration

	OTELServiceName string
	OTLPEndpoint    string
	OTLPInsecure    bool
	OTELSampleRatio float64
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:            ":8080",
		LogLevel:            "info",
		LogFile:             "logs/app.log",
		SSEHeartbeat:        15 * time.Second,
		HistoryKey:          domain.HistoryKey,
		StoreRetryMax:       10 * time.Second,
		StoreRetryBase:      100 * time.Millisecond,
		RabbitExchange:      "notifications",
		RabbitQueue:         "notifications.relay",
		RabbitRoutingKey:    "notification.*",
		RabbitConsumerTag:   "relay-consumer",
		RabbitPublishPrefix: "notification",
		OTELServiceName:     "notifyrelay",
		OTLPInsecure:        true,
		OTELSampleRatio:     1,
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}

	cfg.Release = os.Getenv("GIN_MODE") == "release"
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LISTENER"))); v != "" {
		cfg.Listener = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))); v != "" {
		cfg.StoreDriver = v
	}
	if v := os.Getenv("HISTORY_KEY"); v != "" {
		cfg.HistoryKey = v
	}
	if v := os.Getenv("HISTORY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.HistoryMax = n
		}
	}
	if v := os.Getenv("STORE_RETRY_MAX_ELAPSED_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.StoreRetryMax = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("RABBITMQ_EXCHANGE"); v != "" {
		cfg.RabbitExchange = v
	}
	if v := os.Getenv("RABBITMQ_QUEUE"); v != "" {
		cfg.RabbitQueue = v
	}
	if v := os.Getenv("RABBITMQ_ROUTING_KEY"); v != "" {
		cfg.RabbitRoutingKey = v
	}
	if v := os.Getenv("RABBITMQ_CONSUMER_TAG"); v != "" {
		cfg.RabbitConsumerTag = v
	}
	if v := os.Getenv("RABBITMQ_PUBLISH_PREFIX"); v != "" {
		cfg.RabbitPublishPrefix = v
	}

	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.OTELServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OTLPInsecure = b
		}
	}

	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.OTELSampleRatio = f
		}
	}

	if v := os.Getenv("SSE_HEARTBEAT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSEHeartbeat = time.Duration(n) * time.Second
		}
	}

	return cfg
}

// ListenerKind resolves which native notification source to use. An empty
// result means no native source is configured.
func (c *Config) ListenerKind() string {
	if domain.IsValidListener(c.Listener) {
		return c.Listener
	}
	if c.RabbitMQURL != "" {
		return domain.ListenerAMQP
	}
	return ""
}
