package cache

import (
	stderrors "errors"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/logger"
)

const keyBase = 10

// MemcacheClient keeps rendered reports so repeated /report calls skip
// the aggregation round trip. Entries expire on their own; mutations
// additionally drop the keys for the current periods.
type MemcacheClient struct {
	client     *memcache.Client
	ttlSeconds int32
}

type config interface {
	Hosts() []string
	ReportCacheTTLSeconds() int64
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{
		client:     mc,
		ttlSeconds: int32(config.ReportCacheTTLSeconds()),
	}, mc.Ping()
}

func formatKey(userID int64, filterKey string) string {
	return "report:" + strconv.FormatInt(userID, keyBase) + ":" + filterKey
}

func (mc *MemcacheClient) CacheReport(userID int64, filterKey string, report string) error {
	logger.Info("cache report", zap.Int64("userID", userID), zap.String("filter", filterKey))
	return mc.client.Set(&memcache.Item{
		Key:        formatKey(userID, filterKey),
		Value:      []byte(report),
		Expiration: mc.ttlSeconds,
	})
}

func (mc *MemcacheClient) GetReport(userID int64, filterKey string) (string, error) {
	item, err := mc.client.Get(formatKey(userID, filterKey))
	if err != nil {
		return "", err
	}
	logger.Info("report cache hit", zap.Int64("userID", userID), zap.String("filter", filterKey))
	return string(item.Value), nil
}

func (mc *MemcacheClient) InvalidateReports(userID int64, filterKeys []string) error {
	logger.Info("invalidate report cache", zap.Int64("userID", userID))

	for _, key := range filterKeys {
		err := mc.client.Delete(formatKey(userID, key))
		if err != nil && !stderrors.Is(err, memcache.ErrCacheMiss) {
			return errors.Wrap(err, "invalidate cache")
		}
	}
	return nil
}
