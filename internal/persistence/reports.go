package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/asyncweather/internal/weather"
)

// SaveReports appends reports to the weather history in one transaction.
func (s *SQLiteStore) SaveReports(ctx context.Context, reports []weather.Report) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weather_reports (city, status, temperature_c, humidity_pct, description, error, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		var temp sql.NullFloat64
		var humidity sql.NullInt64
		var desc, errStr sql.NullString
		if r.Status == weather.StatusOK {
			temp = sql.NullFloat64{Float64: r.Conditions.TemperatureC, Valid: true}
			humidity = sql.NullInt64{Int64: int64(r.Conditions.HumidityPct), Valid: true}
			desc = sql.NullString{String: r.Conditions.Description, Valid: true}
		}
		if r.Err != nil {
			errStr = sql.NullString{String: r.Err.Error(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, r.City, r.Status.String(), temp, humidity, desc, errStr, r.FetchedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert report for %s: %w", r.City, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListReports returns stored reports, newest first. An empty city matches every city;
// a non-positive limit returns everything.
func (s *SQLiteStore) ListReports(ctx context.Context, city string, limit int) ([]weather.Report, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT city, status, temperature_c, humidity_pct, description, error, fetched_at
		FROM weather_reports
		WHERE ? = '' OR city = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`, city, city, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []weather.Report
	for rows.Next() {
		var (
			r        weather.Report
			status   string
			temp     sql.NullFloat64
			humidity sql.NullInt64
			desc     sql.NullString
			errStr   sql.NullString
		)
		if err := rows.Scan(&r.City, &status, &temp, &humidity, &desc, &errStr, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		r.Status = weather.ParseReportStatus(status)
		r.Conditions.TemperatureC = temp.Float64
		r.Conditions.HumidityPct = int(humidity.Int64)
		r.Conditions.Description = desc.String
		if errStr.Valid {
			r.Err = fmt.Errorf("%s", errStr.String)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}
