package scenehost

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"touchscenes/logger"
	"touchscenes/scenesync"
)

// RedisOptions names the keys the Redis host works with.
type RedisOptions struct {
	ScenesKey string        // list of scene names, in display order
	ActiveKey string        // string holding the active scene name
	Channel   string        // pub/sub channel notified on every switch
	Timeout   time.Duration // per-call timeout
}

type redisScene struct {
	index int
	name  string
}

// Redis reads the scene list from a Redis list and publishes scene switches,
// so any process can act as the scene-management side.
type Redis struct {
	client redis.UniversalClient
	opts   RedisOptions
	log    logger.Logger
}

var _ scenesync.Host = (*Redis)(nil)

// ConnectOptions configures the Redis connection.
type ConnectOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect opens a client and checks it with a single PING.
func Connect(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}

	log.Info("connected to redis", logger.String("addr", opts.Addr), logger.Int("db", opts.DB))
	return client, nil
}

// NewRedis creates a host on top of client.
func NewRedis(client redis.UniversalClient, opts RedisOptions, log logger.Logger) *Redis {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &Redis{client: client, opts: opts, log: log}
}

func (r *Redis) ListScenes() ([]scenesync.SceneHandle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()

	names, err := r.client.LRange(ctx, r.opts.ScenesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.opts.ScenesKey, err)
	}
	out := make([]scenesync.SceneHandle, len(names))
	for i, name := range names {
		out[i] = redisScene{index: i, name: name}
	}
	return out, nil
}

func (r *Redis) ReleaseScenes([]scenesync.SceneHandle) {}

func (r *Redis) SceneName(h scenesync.SceneHandle) string {
	if sc, ok := h.(redisScene); ok {
		return sc.name
	}
	return ""
}

// SetActiveScene stores the scene name and publishes it in one transaction.
func (r *Redis) SetActiveScene(h scenesync.SceneHandle) error {
	sc, ok := h.(redisScene)
	if !ok {
		return fmt.Errorf("foreign scene handle %T", h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.opts.ActiveKey, sc.name, 0)
		pipe.Publish(ctx, r.opts.Channel, sc.name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("activate %q: %w", sc.name, err)
	}
	r.log.Debug("published scene switch",
		logger.String("scene", sc.name),
		logger.String("channel", r.opts.Channel))
	return nil
}

// Active returns the stored active scene name, empty if none.
func (r *Redis) Active(ctx context.Context) (string, error) {
	name, err := r.client.Get(ctx, r.opts.ActiveKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	return name, err
}
