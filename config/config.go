package config

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Settings holds the tunables the kiosk consumes at startup.
type Settings struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8090"`
	RemoteBaseURL  string        `envconfig:"REMOTE_BASE_URL" default:"http://localhost:8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	PaymentTimeout time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"60s"`
	RequestRetries int           `envconfig:"REQUEST_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	MaxSyncRetries int           `envconfig:"MAX_SYNC_RETRIES" default:"3"`
	SyncInterval   time.Duration `envconfig:"SYNC_INTERVAL" default:"30s"`
	TaxRate        float64       `envconfig:"TAX_RATE" default:"0.10"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	KafkaTopic     string        `envconfig:"KAFKA_TOPIC" default:"kiosk-orders"`
}

func MustLoadSettings() Settings {
	var s Settings
	if err := envconfig.Process("kiosk", &s); err != nil {
		log.Fatal("Failed to load settings:", err)
	}
	return s
}

func InitPostgres() (*sql.DB, error) {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")

	connStr := "host=" + dbHost + " port=" + dbPort + " user=" + dbUser +
		" password=" + dbPassword + " dbname=" + dbName + " sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func InitRedis() (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_HOST") + ":" + os.Getenv("REDIS_PORT"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// NewKafkaWriter returns nil when no broker is configured; event
// publishing is best-effort and the kiosk runs without it.
func NewKafkaWriter(topic string) *kafka.Writer {
	broker := os.Getenv("KAFKA_BROKER")
	if broker == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}
