package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/htmlhost/htmlhost/internal/config"
	"github.com/htmlhost/htmlhost/internal/database"
	"github.com/htmlhost/htmlhost/internal/document/repository"
	"github.com/htmlhost/htmlhost/internal/document/service"
	"github.com/htmlhost/htmlhost/internal/sessions"
	"github.com/htmlhost/htmlhost/internal/storage"
	"github.com/htmlhost/htmlhost/internal/users"
	"github.com/htmlhost/htmlhost/pkg/logger"
)

// Deps are the shared external clients. A nil field means the dependency is
// not configured.
type Deps struct {
	Mongo *mongo.Client
	Redis *redis.Client
}

// Connect opens the clients the configuration asks for. Redis is only
// dialed when a host is set; MongoDB only when some component selects it.
func Connect(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{}
	if cfg.Redis.Enabled() {
		c, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		d.Redis = c
	}
	if needsMongo(cfg) {
		c, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)
		d.Mongo = c
	}
	return d, nil
}

func needsMongo(cfg *config.Config) bool {
	return cfg.Storage.Backend == "mongo" || cfg.Auth.Source == "mongo" || cfg.Auth.Revocations == "mongo"
}

// Ping reports the first unreachable dependency.
func (d *Deps) Ping(ctx context.Context) map[string]error {
	out := map[string]error{}
	if d.Redis != nil {
		out["redis"] = d.Redis.Ping(ctx).Err()
	}
	if d.Mongo != nil {
		out["mongodb"] = d.Mongo.Ping(ctx, nil)
	}
	return out
}

func (d *Deps) Close(ctx context.Context) {
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.Mongo != nil {
		_ = d.Mongo.Disconnect(ctx)
	}
}

// DocumentService builds the document store for the configured backend,
// collision policy and lock backend.
func DocumentService(ctx context.Context, cfg *config.Config, d *Deps) (service.Service, error) {
	policy, err := repository.ParsePolicy(cfg.Storage.CollisionPolicy)
	if err != nil {
		return nil, err
	}
	opts := []repository.Option{repository.WithPolicy(policy)}
	if cfg.Storage.LockBackend == "redis" {
		if d.Redis == nil {
			return nil, fmt.Errorf("redis locks selected but redis is not configured")
		}
		opts = append(opts, repository.WithLocker(repository.NewRedisLocker(d.Redis, "", cfg.Storage.LockTTL)))
	}

	var backend repository.Backend
	switch cfg.Storage.Backend {
	case "memory":
		backend = repository.NewMemoryRepo()
	case "file":
		backend = repository.NewFlatRepo(storage.NewOSBlobs(cfg.Storage.DocumentsDir))
	case "minio":
		blobs, err := storage.NewMinIOStorage(ctx, &storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
			Prefix:    cfg.MinIO.Prefix,
		})
		if err != nil {
			return nil, err
		}
		backend = repository.NewFlatRepo(blobs)
	case "mongo":
		if d.Mongo == nil {
			return nil, fmt.Errorf("mongo backend selected but mongodb is not connected")
		}
		col := d.Mongo.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		repo, err := repository.NewMongoRepo(ctx, col)
		if err != nil {
			return nil, err
		}
		backend = repo
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	logger.Infof("document store: backend=%s policy=%s locks=%s", cfg.Storage.Backend, policy, cfg.Storage.LockBackend)
	return service.New(repository.NewStore(backend, opts...)), nil
}

// SessionService builds the session service with the configured revocation list.
func SessionService(ctx context.Context, cfg *config.Config, d *Deps) (*sessions.Service, error) {
	var rev sessions.Revocations
	switch cfg.Auth.Revocations {
	case "redis":
		if d.Redis == nil {
			return nil, fmt.Errorf("redis revocations selected but redis is not configured")
		}
		rev = sessions.NewRedisRevocations(d.Redis, "")
	case "mongo":
		if d.Mongo == nil {
			return nil, fmt.Errorf("mongo revocations selected but mongodb is not connected")
		}
		r, err := sessions.NewMongoRevocations(ctx, d.Mongo.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.RevokedCollection))
		if err != nil {
			return nil, err
		}
		rev = r
	default:
		if cfg.Server.IsProduction() {
			logger.Warnf("session revocations are kept in memory; logouts are forgotten on restart")
		}
		rev = sessions.NewMemoryRevocations()
	}
	return sessions.NewService(cfg.Auth.Secret, cfg.Auth.SessionTTL, rev), nil
}

// UserService builds the credential check for the configured account source.
// With the mongo source the configured account is created in the users
// collection when it does not exist yet.
func UserService(ctx context.Context, cfg *config.Config, d *Deps) (*users.Service, error) {
	if cfg.Auth.Source == "mongo" {
		if d.Mongo == nil {
			return nil, fmt.Errorf("mongo account source selected but mongodb is not connected")
		}
		repo := users.NewMongoUserRepository(d.Mongo.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.UsersCollection))
		u, err := users.EnsureAccount(ctx, repo, cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("ensure account %q: %w", cfg.Auth.Username, err)
		}
		logger.Infof("account %q available from mongo", u.Username)
		return users.NewService(repo), nil
	}
	if cfg.Auth.PasswordHash == "" && cfg.Auth.Password == "admin" && cfg.Server.IsProduction() {
		logger.Warnf("using the default admin password in production; set AUTH_PASSWORD or AUTH_PASSWORD_HASH")
	}
	repo, err := users.NewStaticRepository(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.PasswordHash)
	if err != nil {
		return nil, err
	}
	return users.NewService(repo), nil
}
