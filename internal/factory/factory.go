package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/playkit/gameroom/internal/dependencies/clock"
	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/identity"
	"github.com/playkit/gameroom/internal/registry"
	"github.com/playkit/gameroom/internal/storage"
	"github.com/playkit/gameroom/internal/storage/memory"
	redisstorage "github.com/playkit/gameroom/internal/storage/redis"
	"github.com/playkit/gameroom/internal/transport"
	"github.com/playkit/gameroom/internal/transport/inprocess"
	"github.com/playkit/gameroom/internal/transport/redispubsub"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Transport type constants
const (
	TransportTypeInprocess = "inprocess"
	TransportTypeRedis     = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Peer channel transport
	Channel transport.Channel

	// Services
	IdentityService    *identity.Service
	RegistryController *registry.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisStorageConfig holds Redis connection settings (required if StorageType is "redis")
	RedisStorageConfig *redisstorage.Config
	// TransportType selects the peer channel ("inprocess" or "redis")
	// If empty, defaults to "inprocess"
	TransportType string
	// RedisTransportConfig holds pub/sub connection settings (required if TransportType is "redis")
	RedisTransportConfig *redispubsub.Config
	// RegistryConfig holds registry behavior settings (optional)
	// If zero value, defaults to registry.DefaultConfig()
	RegistryConfig registry.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisStorageConfig == nil {
			return nil, errors.New("RedisStorageConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisStorageConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create the peer channel based on type
	var channel transport.Channel
	transportType := cfg.TransportType
	if transportType == "" {
		transportType = TransportTypeInprocess
	}

	switch transportType {
	case TransportTypeInprocess:
		channel = inprocess.NewBroker(logger)
	case TransportTypeRedis:
		if cfg.RedisTransportConfig == nil {
			return nil, errors.New("RedisTransportConfig required when TransportType is redis")
		}
		redisChannel, err := redispubsub.New(*cfg.RedisTransportConfig, logger)
		if err != nil {
			return nil, err
		}
		channel = redisChannel
	default:
		return nil, errors.New("invalid TransportType: must be 'inprocess' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	registryConfig := cfg.RegistryConfig
	if registryConfig.RoomTTL == 0 {
		registryConfig = registry.DefaultConfig()
	}

	identityService := identity.New(store, clk)
	registryController := registry.NewController(store, clk, registryConfig)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		Channel:            channel,
		IdentityService:    identityService,
		RegistryController: registryController,
	}, nil
}
