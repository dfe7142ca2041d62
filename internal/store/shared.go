package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/metrics"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// entryVersion is bumped whenever the encoded layout changes. Entries with
// another version are treated as absent.
const entryVersion = 1

type recordDTO struct {
	Date        string  `msgpack:"d"`
	Code        int     `msgpack:"c"`
	Temperature float64 `msgpack:"t"`
	MinTemp     float64 `msgpack:"lo"`
	MaxTemp     float64 `msgpack:"hi"`
	Humidity    float64 `msgpack:"h"`
	WindSpeed   float64 `msgpack:"ws"`
}

type entryDTO struct {
	Version   int         `msgpack:"v"`
	WrittenAt int64       `msgpack:"w"`
	Records   []recordDTO `msgpack:"r"`
}

// CacheOptions configures a SharedCache.
type CacheOptions struct {
	// Key is the store key of the entry, one per acquisition mode.
	Key string
	// TTL is the age after which an entry is treated as absent.
	TTL time.Duration
	// Mirror, when set, receives every write. A fresh mirror entry is served
	// without touching the shared store.
	Mirror KV
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// SharedCache implements weather.Cache on top of a KV. Every write replaces
// the entry wholesale, so a reader sees either the old or the new map.
// Missing, undecodable and stale entries all read as absent.
type SharedCache struct {
	kv     KV
	mirror KV
	key    string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
}

var _ weather.Cache = (*SharedCache)(nil)

// NewSharedCache creates a SharedCache over kv. kv may be nil when the shared
// store could not be opened; the cache then reads and writes nothing.
func NewSharedCache(kv KV, opts CacheOptions) *SharedCache {
	c := &SharedCache{
		kv:     kv,
		mirror: opts.Mirror,
		key:    opts.Key,
		ttl:    opts.TTL,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c
}

// ForMode creates the cache for one acquisition mode.
func ForMode(kv KV, mode weather.Mode, mirror KV, logger *zap.SugaredLogger) *SharedCache {
	return NewSharedCache(kv, CacheOptions{
		Key:    mode.CacheKey(),
		TTL:    mode.TTL(),
		Mirror: mirror,
		Logger: logger,
	})
}

// Attached reports whether a shared store is attached.
func (c *SharedCache) Attached() bool {
	return c.kv != nil
}

// Usable reports whether entry may still be served at now.
func (c *SharedCache) Usable(entry weather.Entry, now time.Time) bool {
	return entry.Fresh(now, c.ttl)
}

// Key returns the store key of the entry.
func (c *SharedCache) Key() string {
	return c.key
}

// Read returns the cached record for one date key.
func (c *SharedCache) Read(ctx context.Context, dateKey string) (weather.Record, bool) {
	entry, ok := c.ReadAll(ctx)
	if !ok {
		return weather.Record{}, false
	}
	r, ok := entry.Records[dateKey]
	return r, ok
}

// ReadAll returns the whole entry if it exists, decodes and is fresh. The
// mirror answers first; the shared store is read only when it has nothing
// usable.
func (c *SharedCache) ReadAll(ctx context.Context) (weather.Entry, bool) {
	if entry, ok := c.readMirror(ctx); ok {
		metrics.CacheReads.WithLabelValues(c.key, "hit").Inc()
		return entry, true
	}

	item, err := c.get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warnw("shared cache read failed", "key", c.key, "error", err)
		}
		metrics.CacheReads.WithLabelValues(c.key, "miss").Inc()
		return weather.Entry{}, false
	}

	entry, err := decodeEntry(item.Value)
	if err != nil {
		c.logger.Warnw("discarding undecodable cache entry", "key", c.key, "writer", item.WriterID, "error", err)
		metrics.CacheReads.WithLabelValues(c.key, "corrupt").Inc()
		return weather.Entry{}, false
	}
	if !c.Usable(entry, c.now()) {
		metrics.CacheReads.WithLabelValues(c.key, "stale").Inc()
		return weather.Entry{}, false
	}

	metrics.CacheReads.WithLabelValues(c.key, "hit").Inc()
	return entry, true
}

// Write replaces the entry.
func (c *SharedCache) Write(ctx context.Context, entry weather.Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		metrics.CacheWrites.WithLabelValues(c.key, "error").Inc()
		return err
	}

	if c.mirror != nil {
		_ = c.mirror.Put(ctx, c.key, data)
	}
	if c.kv == nil {
		metrics.CacheWrites.WithLabelValues(c.key, "skipped").Inc()
		return nil
	}
	if err := c.kv.Put(ctx, c.key, data); err != nil {
		metrics.CacheWrites.WithLabelValues(c.key, "error").Inc()
		return err
	}
	metrics.CacheWrites.WithLabelValues(c.key, "ok").Inc()
	return nil
}

// Clear removes the entry.
func (c *SharedCache) Clear(ctx context.Context) error {
	if c.mirror != nil {
		_ = c.mirror.Delete(ctx, c.key)
	}
	if c.kv == nil {
		return nil
	}
	return c.kv.Delete(ctx, c.key)
}

func (c *SharedCache) readMirror(ctx context.Context) (weather.Entry, bool) {
	if c.mirror == nil {
		return weather.Entry{}, false
	}
	item, err := c.mirror.Get(ctx, c.key)
	if err != nil {
		return weather.Entry{}, false
	}
	entry, err := decodeEntry(item.Value)
	if err != nil || !c.Usable(entry, c.now()) {
		return weather.Entry{}, false
	}
	return entry, true
}

func (c *SharedCache) get(ctx context.Context) (Item, error) {
	if c.kv == nil {
		return Item{}, ErrNotFound
	}
	return c.kv.Get(ctx, c.key)
}

func encodeEntry(e weather.Entry) ([]byte, error) {
	dto := entryDTO{
		Version:   entryVersion,
		WrittenAt: e.WrittenAt.UnixMilli(),
		Records:   make([]recordDTO, 0, len(e.Records)),
	}
	for _, r := range e.Records {
		dto.Records = append(dto.Records, recordDTO{
			Date:        r.Date.Key(),
			Code:        r.ConditionCode,
			Temperature: r.Temperature,
			MinTemp:     r.MinTemp,
			MaxTemp:     r.MaxTemp,
			Humidity:    r.Humidity,
			WindSpeed:   r.WindSpeed,
		})
	}
	data, err := msgpack.Marshal(&dto)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (weather.Entry, error) {
	var dto entryDTO
	if err := msgpack.Unmarshal(data, &dto); err != nil {
		return weather.Entry{}, err
	}
	if dto.Version != entryVersion {
		return weather.Entry{}, fmt.Errorf("unsupported entry version %d", dto.Version)
	}

	e := weather.Entry{
		Records:   make(map[string]weather.Record, len(dto.Records)),
		WrittenAt: time.UnixMilli(dto.WrittenAt),
	}
	for _, r := range dto.Records {
		d, err := calendar.ParseDate(r.Date)
		if err != nil {
			return weather.Entry{}, fmt.Errorf("record date %q: %w", r.Date, err)
		}
		e.Records[d.Key()] = weather.Record{
			Date:          d,
			ConditionCode: r.Code,
			Temperature:   r.Temperature,
			MinTemp:       r.MinTemp,
			MaxTemp:       r.MaxTemp,
			Humidity:      r.Humidity,
			WindSpeed:     r.WindSpeed,
		}
	}
	return e, nil
}
