//go:build integration

package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	mongomigration "gymcore/internal/migrations/mongo"
	"gymcore/pkg/client"
	"gymcore/pkg/config"
	"gymcore/pkg/logger"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	EnvMongoURI       = "MONGO_TEST_URI"
	ConnectionTimeout = 10 * time.Second

	mongoImage          = "mongo:7"
	mongoPort  nat.Port = "27017/tcp"
)

var (
	mongoContainerOnce sync.Once
	mongoContainerURI  string
	mongoContainerErr  error
)

// MongoHelper owns a throwaway database migrated with the production
// validators and indexes. MONGO_TEST_URI must point at a replica set since
// lifecycle transitions run in transactions; when it is unset a single-node
// replica set is started in a container and shared by the whole package.
type MongoHelper struct {
	Config   *config.Config
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T) *MongoHelper {
	t.Helper()

	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		mongoContainerOnce.Do(func() {
			mongoContainerURI, mongoContainerErr = startMongoContainer()
		})
		if mongoContainerErr != nil {
			t.Skipf("%s not set and no Mongo container available: %v", EnvMongoURI, mongoContainerErr)
		}
		uri = mongoContainerURI
	}

	log := logger.NewNop()
	c := client.NewClient()
	c.SetMongo(log, uri, ConnectionTimeout)

	dbName := fmt.Sprintf("gymcore_test_%d", time.Now().UnixNano())
	cfg := &config.Config{
		MongoURI:          uri,
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		BookingLockTTL:    10 * time.Second,
		BookingLockWait:   5 * time.Second,
		Log:               log,
		Client:            c,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mongomigration.RunMigration(ctx, c.Mongo.Client, dbName, log); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	h := &MongoHelper{Config: cfg, Database: c.Mongo.Database(dbName)}
	t.Cleanup(func() { h.close(t) })
	return h
}

func (m *MongoHelper) close(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Database.Drop(ctx); err != nil {
		t.Logf("warning: failed to drop %s: %v", m.Database.Name(), err)
	}
	if err := m.Config.Client.Mongo.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

func (m *MongoHelper) Insert(t *testing.T, collection string, docs ...any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collection).InsertMany(ctx, docs); err != nil {
		t.Fatalf("failed to seed %s: %v", collection, err)
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collection string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	n, err := m.Database.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collection, err)
	}
	return n
}

// startMongoContainer runs mongod as a one-member replica set. The container
// is reaped by ryuk when the test process exits.
func startMongoContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongoImage,
			ExposedPorts: []string{string(mongoPort)},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	initiate := "rs.initiate({_id: 'rs0', members: [{_id: 0, host: 'localhost:27017'}]})"
	if _, err := mongosh(ctx, container, initiate); err != nil {
		return "", fmt.Errorf("initiate replica set: %w", err)
	}

	for {
		out, err := mongosh(ctx, container, "db.hello().isWritablePrimary")
		if err == nil && strings.Contains(out, "true") {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("replica set never elected a primary: %w", ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, mongoPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port()), nil
}

func mongosh(ctx context.Context, container testcontainers.Container, script string) (string, error) {
	code, reader, err := container.Exec(ctx, []string{"mongosh", "--quiet", "--eval", script})
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return string(out), fmt.Errorf("mongosh exited with %d: %s", code, out)
	}
	return string(out), nil
}
