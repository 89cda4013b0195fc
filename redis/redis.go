package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/util"
)

const (
	CacheChannelName string = "poisonlab_cache_sync"
	keyPrefix        string = "poisonlab"
	cacheKeySpace    string = "cache"
	metricsKeyName   string = "metrics"
	dnssecKeyName    string = "dnssec"
	redisLogger      string = "redis"
)

// Client mirrors the resolver cache, the attack metrics and the DNSSEC status into redis
type Client struct {
	config *config.Redis
	client *redis.Client
	root   *Key
	l      *logrus.Entry
}

// New creates a new redis client. Returns nil and no error if redis is not configured.
func New(ctx context.Context, cfg *config.Redis) (*Client, error) {
	// disable redis if no address is provided
	if cfg == nil || !cfg.IsEnabled() {
		return nil, nil //nolint:nilnil
	}

	var rdb *redis.Client
	if len(cfg.SentinelAddresses) > 0 {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.Address,
			SentinelUsername: cfg.Username,
			SentinelPassword: cfg.SentinelPassword,
			SentinelAddrs:    cfg.SentinelAddresses,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               cfg.Database,
			MaxRetries:       cfg.ConnectionAttempts,
			MaxRetryBackoff:  cfg.ConnectionCooldown.ToDuration(),
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:            cfg.Address,
			Username:        cfg.Username,
			Password:        cfg.Password,
			DB:              cfg.Database,
			MaxRetries:      cfg.ConnectionAttempts,
			MaxRetryBackoff: cfg.ConnectionCooldown.ToDuration(),
		})
	}

	var err error

	for attempt := 1; attempt <= cfg.ConnectionAttempts; attempt++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			return &Client{
				config: cfg,
				client: rdb,
				root:   newKey(keyPrefix),
				l:      log.PrefixedLog(redisLogger),
			}, nil
		}

		time.Sleep(cfg.ConnectionCooldown.ToDuration())
	}

	return nil, fmt.Errorf("can't connect to redis: %w", err)
}

// Subscribe mirrors the events of the lab into redis until ctx is done
func (c *Client) Subscribe(ctx context.Context) error {
	handlers := map[string]any{
		evt.ResolverCacheCommitted: func(commit model.Commit) {
			util.LogOnErrorWithEntry(c.l, "can't publish commit", c.PublishCommit(ctx, &commit))
		},
		evt.ResolverCacheFlushed: func(domain string) {
			util.LogOnErrorWithEntry(c.l, "can't flush cache", c.Flush(ctx, domain))
		},
		evt.MetricsChanged: func(snapshot model.MetricsSnapshot) {
			util.LogOnErrorWithEntry(c.l, "can't store metrics", c.StoreMetrics(ctx, snapshot))
		},
		evt.DNSSECStateChanged: func(status model.DNSSECStatus) {
			util.LogOnErrorWithEntry(c.l, "can't store dnssec status", c.StoreDNSSECStatus(ctx, status))
		},
	}

	for topic, fn := range handlers {
		if err := evt.Bus().SubscribeAsync(topic, fn, true); err != nil {
			return fmt.Errorf("can't subscribe to %s: %w", topic, err)
		}
	}

	go func() {
		<-ctx.Done()

		for topic, fn := range handlers {
			_ = evt.Bus().Unsubscribe(topic, fn)
		}
	}()

	return nil
}

// PublishCommit stores the accepted answer with its TTL and announces it on the sync channel
func (c *Client) PublishCommit(ctx context.Context, commit *model.Commit) error {
	key := c.cacheKey(commit.Key.Domain)

	msg := newCacheMessage(key.Key(), commit)

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key.String(), commit, time.Duration(commit.TTL)*time.Second)
	pipe.Publish(ctx, CacheChannelName, msg)

	_, err := pipe.Exec(ctx)

	return err
}

// Commit reads the mirrored answer of domain
func (c *Client) Commit(ctx context.Context, domain string) (*model.Commit, error) {
	var res model.Commit

	if err := c.get(ctx, c.cacheKey(domain), &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// Flush removes the mirrored answer of domain, all answers if domain is empty
func (c *Client) Flush(ctx context.Context, domain string) error {
	if domain != "" {
		return c.client.Del(ctx, c.cacheKey(domain).String()).Err()
	}

	keys, err := c.client.Keys(ctx, c.root.NewSubkey(cacheKeySpace, "*").String()).Result()
	if err != nil || len(keys) == 0 {
		return err
	}

	return c.client.Del(ctx, keys...).Err()
}

// StoreMetrics keeps the latest metrics snapshot
func (c *Client) StoreMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error {
	return c.client.Set(ctx, c.root.NewSubkey(metricsKeyName).String(), &snapshot, 0).Err()
}

// Metrics reads the latest metrics snapshot
func (c *Client) Metrics(ctx context.Context) (model.MetricsSnapshot, error) {
	var res model.MetricsSnapshot

	err := c.get(ctx, c.root.NewSubkey(metricsKeyName), &res)

	return res, err
}

// StoreDNSSECStatus keeps the latest DNSSEC status
func (c *Client) StoreDNSSECStatus(ctx context.Context, status model.DNSSECStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.root.NewSubkey(dnssecKeyName).String(), data, 0).Err()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) cacheKey(domain string) *Key {
	return c.root.NewSubkey(cacheKeySpace, dns.CanonicalName(domain))
}

func (c *Client) get(ctx context.Context, key *Key, target any) error {
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("key %s not found: %w", key, err)
		}

		return err
	}

	return json.Unmarshal(data, target)
}
