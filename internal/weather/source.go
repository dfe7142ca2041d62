package weather

import (
	"context"

	"go.uber.org/zap"

	"github.com/i474232898/calendar-weather/internal/calendar"
	"github.com/i474232898/calendar-weather/internal/metrics"
)

// Role says whether a process acquires weather or only reads what others stored.
type Role int

const (
	// RoleAcquirer is the host app: it may fetch live data and write the cache.
	RoleAcquirer Role = iota
	// RoleReader is a widget: cache only, synthetic filler for the gaps.
	RoleReader
)

// Lookup is the weather available for a set of dates.
type Lookup struct {
	Records   map[string]Record
	Synthetic map[string]bool
	Live      bool
	Err       error
}

// Get returns the record for d and whether it is synthetic.
func (l Lookup) Get(d calendar.Date) (Record, bool, bool) {
	r, ok := l.Records[d.Key()]
	return r, l.Synthetic[d.Key()], ok
}

// Source answers renderer weather lookups according to the process role.
type Source struct {
	role     Role
	cache    Cache
	pipeline *Pipeline
	logger   *zap.SugaredLogger
}

// NewSource creates a Source. pipeline may be nil for readers.
func NewSource(role Role, cache Cache, pipeline *Pipeline, logger *zap.SugaredLogger) *Source {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Source{role: role, cache: cache, pipeline: pipeline, logger: logger}
}

// Role returns the source role.
func (s *Source) Role() Role {
	return s.role
}

// Pipeline returns the acquisition pipeline, nil for readers.
func (s *Source) Pipeline() *Pipeline {
	return s.pipeline
}

// Lookup returns weather for dates. With live set, an acquirer may fetch from
// the provider; otherwise only the cache is consulted. Readers fill every gap
// with synthetic records.
func (s *Source) Lookup(ctx context.Context, dates []calendar.Date, live bool) Lookup {
	out := Lookup{Records: make(map[string]Record, len(dates)), Synthetic: map[string]bool{}}
	if len(dates) == 0 {
		return out
	}

	if live && s.role == RoleAcquirer && s.pipeline != nil {
		records, err := s.pipeline.Acquire(ctx, dates[0], dates[len(dates)-1])
		for k, r := range records {
			out.Records[k] = r
		}
		out.Live = err == nil
		out.Err = err
	}

	if len(out.Records) == 0 && s.cache != nil {
		if entry, ok := s.cache.ReadAll(ctx); ok {
			for k, r := range entry.Records {
				out.Records[k] = r
			}
		}
	}

	if s.role == RoleReader {
		for _, d := range dates {
			if _, ok := out.Records[d.Key()]; ok {
				continue
			}
			out.Records[d.Key()] = Synthesize(d)
			out.Synthetic[d.Key()] = true
			metrics.SyntheticDays.Inc()
		}
	}
	return out
}
