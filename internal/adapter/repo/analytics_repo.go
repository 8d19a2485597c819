package repo

import (
	"context"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
)

// AnalyticsRepositoryPG implements domain.AnalyticsRepository over a daily
// counters table keyed by day and country.
type AnalyticsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAnalyticsRepository constructs a new analytics repository instance.
func NewAnalyticsRepository(sql infra.SQLExecutor) *AnalyticsRepositoryPG {
	return &AnalyticsRepositoryPG{sql: sql}
}

// IncrementCounters bumps the named counters for one day/country bucket.
func (r *AnalyticsRepositoryPG) IncrementCounters(ctx context.Context, day, country string, counters map[string]int) error {
	query := `
INSERT INTO analytics_daily (day, country, counter, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (day, country, counter) DO UPDATE
SET value = analytics_daily.value + EXCLUDED.value;
`
	if country == "" {
		country = "ZZ"
	}
	for counter, value := range counters {
		if value == 0 {
			continue
		}
		if _, err := r.sql.Exec(ctx, query, day, country, counter, value); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns totals per counter across all days and countries.
func (r *AnalyticsRepositoryPG) Summary(ctx context.Context) (map[string]int, error) {
	rows, err := r.sql.Query(ctx, `SELECT counter, SUM(value)::int FROM analytics_daily GROUP BY counter;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[string]int{}
	for rows.Next() {
		var counter string
		var value int
		if err := rows.Scan(&counter, &value); err != nil {
			return nil, err
		}
		totals[counter] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

var _ domain.AnalyticsRepository = (*AnalyticsRepositoryPG)(nil)
