package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gymcore/pkg/client"
	"gymcore/pkg/kafka"
	"gymcore/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BookingLockTTL  time.Duration
	BookingLockWait time.Duration

	KafkaBrokers       []string
	KafkaBookingsTopic string
	KafkaProducer      kafka.ProducerConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Log    *logger.Logger
	Client *client.Client
}

var (
	portRegex       = regexp.MustCompile(`^\d+$`)
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

// Load reads the configuration from the environment. An invalid
// configuration is fatal.
func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BookingLockTTL:  getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),
		BookingLockWait: getEnvDuration(EnvBookingLockWait, DefaultBookingLockWait),

		KafkaBrokers:       splitList(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		KafkaBookingsTopic: getEnvStr(EnvKafkaBookingsTopic, DefaultKafkaBookingsTopic),
		KafkaProducer: kafka.ProducerConfig{
			MaxAttempts:  getEnvNum(EnvKafkaProducerMaxAttempts, DefaultKafkaProducerMaxAttempts),
			BatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultKafkaProducerBatchTimeout),
			RequireAcks:  getEnvNum(EnvKafkaProducerRequireAcks, DefaultKafkaProducerRequireAcks),
			Compression:  getEnvStr(EnvKafkaProducerCompression, DefaultKafkaProducerCompression),
		},

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
	cfg.KafkaProducer.Brokers = cfg.KafkaBrokers

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetKafka builds the bookings producer. It is a no-op when no brokers are
// configured.
func (cfg *Config) SetKafka() {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return
	}
	cfg.Client.SetKafka(cfg.Log, cfg.KafkaProducer, cfg.KafkaBookingsTopic)
}

// SetRedis connects the shared Redis client used for booking locks and
// idempotency keys. It is a no-op when REDIS_ADDR is empty.
func (cfg *Config) SetRedis() {
	if !cfg.RedisEnabled() {
		cfg.Log.Info("Redis not configured, using Mongo booking locks and in-memory idempotency keys")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) RedisEnabled() bool {
	return cfg.RedisAddr != ""
}

func (cfg *Config) KafkaEnabled() bool {
	return len(cfg.KafkaBrokers) > 0
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || !portRegex.MatchString(cfg.Port) || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"BookingLockTTL", cfg.BookingLockTTL},
		{"BookingLockWait", cfg.BookingLockWait},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	// A lock that expires while its Book call is still running lets a second
	// booking for the same actor through.
	if cfg.BookingLockTTL > 0 && cfg.RequestTimeout > 0 && cfg.BookingLockTTL <= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockTTL must be longer than RequestTimeout (%s), got: %s", cfg.RequestTimeout, cfg.BookingLockTTL))
	}
	if cfg.BookingLockWait > 0 && cfg.RequestTimeout > 0 && cfg.BookingLockWait >= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockWait must be shorter than RequestTimeout (%s), got: %s", cfg.RequestTimeout, cfg.BookingLockWait))
	}

	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.KafkaEnabled() {
		errors = append(errors, cfg.validateKafka()...)
	}

	if cfg.RedisDB < 0 || cfg.RedisDB > 15 {
		errors = append(errors, fmt.Sprintf("RedisDB must be between 0 and 15, got: %d", cfg.RedisDB))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) validateKafka() []string {
	var errors []string

	for i, broker := range cfg.KafkaBrokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}
	if cfg.KafkaBookingsTopic == "" {
		errors = append(errors, "KafkaBookingsTopic cannot be empty when brokers are configured")
	}
	if cfg.KafkaProducer.MaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", cfg.KafkaProducer.MaxAttempts))
	}
	if cfg.KafkaProducer.BatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", cfg.KafkaProducer.BatchTimeout))
	}

	validCompressions := map[string]bool{
		"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true,
	}
	if !validCompressions[cfg.KafkaProducer.Compression] {
		errors = append(errors, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.KafkaProducer.Compression))
	}

	validAcks := map[int]bool{-1: true, 0: true, 1: true}
	if !validAcks[cfg.KafkaProducer.RequireAcks] {
		errors = append(errors, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.KafkaProducer.RequireAcks))
	}

	return errors
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"booking_lock_wait", cfg.BookingLockWait,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_bookings_topic", cfg.KafkaBookingsTopic,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
	)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
