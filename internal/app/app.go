package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"teamportal/internal/cache"
	"teamportal/internal/config"
	"teamportal/internal/model"
	"teamportal/internal/repository"
	"teamportal/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// App is the assembled service graph shared by the server and seed commands
type App struct {
	DB          *repository.DB
	Redis       *redis.Client
	Sessions    *service.SessionService
	Teams       *service.TeamService
	Allocations *service.AllocationService
	Auth        *service.AuthService
	Catalog     *config.Catalog
}

// SetupLogging configures the global zerolog logger
func SetupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// New connects the configured store and cache and builds every service
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("file", cfg.CatalogFile).Msg("catalog file not found, starting with an empty catalog")
		catalog, err = &config.Catalog{}, nil
	}
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := repository.NewDB(store)
	if err := db.Bootstrap(ctx, catalog.Problems); err != nil {
		db.Close(ctx)
		return nil, err
	}

	a := &App{DB: db, Catalog: catalog}

	var (
		tokenCache = cache.NewNoopSessionCache()
		loginLog   = cache.NewMemoryLoginLog(cfg.LoginLogMax)
	)
	if cfg.RedisURI != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURI)
		if err != nil {
			db.Close(ctx)
			return nil, err
		}
		a.Redis = rdb
		tokenCache = cache.NewSessionCache(rdb, cfg.SessionCacheTTL)
		loginLog = cache.NewLoginLog(rdb, cfg.LoginLogMax)
		log.Info().Msg("connected to Redis")
	} else {
		log.Info().Msg("REDIS_URI not set, using in-process session cache and login log")
	}

	creds, err := service.NewCredentialChecker(cfg.PasscodeHashing)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	clock := clockwork.NewRealClock()
	a.Sessions = service.NewSessionService(db, tokenCache, clock)
	a.Teams = service.NewTeamService(db, a.Sessions, creds)
	a.Allocations = service.NewAllocationService(db, catalog.Rewards)
	a.Auth = service.NewAuthService(db, a.Sessions, creds, loginLog, clock, service.AuthConfig{
		Admin: service.AdminCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		Super: service.AdminCredentials{Username: cfg.SuperAdminUsername, Password: cfg.SuperAdminPassword},

		TicketSecret: []byte(cfg.TicketSecret),
		TicketTTL:    time.Minute,
	})

	if cfg.SuperAdminPassword == "" {
		log.Warn().Msg("SUPER_ADMIN_PASSWORD not set, elevated admin endpoints are unreachable")
	}
	return a, nil
}

// SetBroadcaster attaches a broadcaster to every service
func (a *App) SetBroadcaster(b service.Broadcaster) {
	a.Sessions.SetBroadcaster(b)
	a.Teams.SetBroadcaster(b)
	a.Allocations.SetBroadcaster(b)
	a.Auth.SetBroadcaster(b)
}

// Close releases store and cache connections
func (a *App) Close(ctx context.Context) {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close Redis")
		}
	}
	if err := a.DB.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to close store")
	}
}

// OpenStore opens the configured persistence backend
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn().Msg("using in-memory store, state is lost on restart")
		return repository.NewMemoryStore(), nil

	case config.BackendFile:
		log.Info().Str("dir", cfg.DataDir).Msg("using file store")
		return repository.NewFileStore(cfg.DataDir)

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		log.Info().Str("database", cfg.MongoDB).Msg("connected to MongoDB")
		return repository.NewMongoStore(client, cfg.MongoDB), nil

	case config.BackendPostgres:
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to PostgreSQL")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func connectRedis(ctx context.Context, uri string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		parsed, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URI: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: uri}
	}

	rdb := redis.NewClient(opts)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return rdb, nil
}

// SeedTeams creates every roster team, skipping codes that already exist
func (a *App) SeedTeams(ctx context.Context, roster *config.Roster) (created, skipped int, err error) {
	for _, t := range roster.Teams {
		_, err := a.Teams.Create(ctx, t.TeamName, t.TeamCode, t.Passcode)
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrTeamExists):
			skipped++
		default:
			return created, skipped, fmt.Errorf("team %s: %w", t.TeamCode, err)
		}
	}
	return created, skipped, nil
}

// ReplaceCatalog overwrites the problem catalog and clears all selections
func (a *App) ReplaceCatalog(ctx context.Context, problems []model.Problem) error {
	return a.DB.ReplaceCatalog(ctx, problems)
}
