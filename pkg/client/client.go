package client

import (
	"context"
	"time"

	"gymcore/pkg/kafka"
	"gymcore/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Client holds the process-wide connections shared by repositories and
// publishers.
type Client struct {
	Mongo    *MongoClient
	Redis    *redis.Client
	Bookings *kafka.Producer
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.Mongo = NewMongoClient(log, mongoURI, mongoConnTimeout)
}

func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int, connTimeout time.Duration) {
	c.Redis = NewRedisClient(log, addr, password, db, connTimeout)
}

func (c *Client) SetKafka(log *logger.Logger, cfg kafka.ProducerConfig, topic string) {
	producer, err := kafka.NewProducer(cfg, topic, "")
	if err != nil {
		log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	log.Info("Kafka producer ready", "topic", topic, "brokers", cfg.Brokers)
	c.Bookings = producer
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Bookings != nil {
		if err := c.Bookings.Close(); err != nil {
			log.Error("Failed to close Kafka producer", "error", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}

	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}
}
