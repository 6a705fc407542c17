package resolver

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
)

// maxParallelDays bounds concurrent resolutions for multi-day listings. The
// API client's limiter still applies on top.
const maxParallelDays = 4

type dayResult struct {
	res Result
	err error
}

// ResolveRange resolves days consecutive days starting at from. Results are
// in date order.
func (r *Resolver) ResolveRange(ctx context.Context, loc locations.Location, from time.Time, days int) ([]Result, error) {
	if days < 1 {
		return nil, nil
	}
	start := Day(loc, from)
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	mapper := iter.Mapper[time.Time, dayResult]{MaxGoroutines: maxParallelDays}
	resolved := mapper.Map(dates, func(d *time.Time) dayResult {
		res, err := r.Resolve(ctx, loc, *d)
		return dayResult{res: res, err: err}
	})

	out := make([]Result, 0, days)
	for _, dr := range resolved {
		if dr.err != nil {
			return nil, dr.err
		}
		out = append(out, dr.res)
	}
	return out, nil
}
