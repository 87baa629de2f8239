package schemastore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/llmschema/config"
	"github.com/BaSui01/llmschema/internal/tlsutil"
	"github.com/BaSui01/llmschema/schema"
)

// RedisStore 将 Schema 文档保存为 Redis 字符串，键为 prefix+name
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore 连接 Redis 并验证可用性
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if cfg.TLS {
		opts.TLSConfig = tlsutil.DefaultTLSConfig()
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := NewRedisStoreFromClient(client, cfg.KeyPrefix, logger)
	s.logger.Info("schema store connected", zap.String("addr", cfg.Addr), zap.String("prefix", s.prefix))
	return s, nil
}

// NewRedisStoreFromClient 复用已有客户端
func NewRedisStoreFromClient(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.With(zap.String("component", "schemastore")),
	}
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

// Put 规范化 src 并以 JSON 文档形式写入，覆盖旧值
func (s *RedisStore) Put(ctx context.Context, name string, src any) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(src)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("put schema %s: %w", name, err)
	}
	s.logger.Debug("schema stored", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

// Get 读取文档并规范化；键不存在时返回 ErrNotFound
func (s *RedisStore) Get(ctx context.Context, name string) (*schema.Definition, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get schema %s: %w", name, err)
	}
	return decode(data)
}

// Delete 删除命名 Schema；键不存在时返回 ErrNotFound
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return fmt.Errorf("delete schema %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List 使用 SCAN 遍历前缀下的键，前缀中的通配符按字面匹配
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasPrefix(key, s.prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(key, s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// escapeGlob 转义 Redis glob 元字符
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close 关闭底层连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
