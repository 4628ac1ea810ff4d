package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "gymcore"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// The lock must outlive a whole Book call, which RequestTimeout bounds.
	DefaultBookingLockTTL  = 45 * time.Second
	DefaultBookingLockWait = 5 * time.Second

	// Empty disables event publishing.
	DefaultKafkaBrokers              = ""
	DefaultKafkaBookingsTopic        = "gym.bookings"
	DefaultKafkaProducerMaxAttempts  = 3
	DefaultKafkaProducerBatchTimeout = 10 * time.Millisecond
	DefaultKafkaProducerRequireAcks  = -1
	DefaultKafkaProducerCompression  = "snappy"

	// Empty keeps booking locks and idempotency keys in Mongo and memory.
	DefaultRedisAddr = ""
	DefaultRedisDB   = 0
)
