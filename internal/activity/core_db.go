package activity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// msPerDay converts the alert interval from days to epoch milliseconds.
const msPerDay = int64(86400000)

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CoreDB contains activities that read from and update the core database.
type CoreDB struct {
	db DB
}

// NewCoreDB creates a new CoreDB activity struct.
func NewCoreDB(db DB) *CoreDB {
	return &CoreDB{db: db}
}

// DueLicense holds minimal license info for the expiry scan cron.
type DueLicense struct {
	ID                     int64 `json:"id"`
	ProcessID              int64 `json:"process_id"`
	EndTimeMs              int64 `json:"end_time_ms"`
	ExpireAlertIntervalDay int   `json:"expire_alert_interval_day"`
}

// ListDueLicenses returns licenses whose alert window has opened at nowMs:
// end_time_ms minus the alert interval is at or before now.
func (a *CoreDB) ListDueLicenses(ctx context.Context, nowMs int64) ([]DueLicense, error) {
	rows, err := a.db.Query(ctx,
		`SELECT id, process_id, end_time_ms, expire_alert_interval_day
		 FROM software_licenses
		 WHERE end_time_ms - expire_alert_interval_day * $2 <= $1
		 ORDER BY end_time_ms ASC`,
		nowMs, msPerDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list due licenses: %w", err)
	}
	defer rows.Close()

	var licenses []DueLicense
	for rows.Next() {
		var l DueLicense
		if err := rows.Scan(&l.ID, &l.ProcessID, &l.EndTimeMs, &l.ExpireAlertIntervalDay); err != nil {
			return nil, fmt.Errorf("scan due license: %w", err)
		}
		licenses = append(licenses, l)
	}
	return licenses, rows.Err()
}

// RecordExpiryNoticeParams holds the parameters for RecordExpiryNotice.
type RecordExpiryNoticeParams struct {
	LicenseID int64 `json:"license_id"`
	EndTimeMs int64 `json:"end_time_ms"`
}

// RecordExpiryNotice inserts an expiry notice for a license. The
// (license_id, end_time_ms) pair is unique, so a license is noticed at most
// once per end time and repeated scans stay idempotent. Returns true when a
// new notice was recorded.
func (a *CoreDB) RecordExpiryNotice(ctx context.Context, params RecordExpiryNoticeParams) (bool, error) {
	tag, err := a.db.Exec(ctx,
		`INSERT INTO license_expiry_notices (license_id, end_time_ms, notified_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (license_id, end_time_ms) DO NOTHING`,
		params.LicenseID, params.EndTimeMs,
	)
	if err != nil {
		return false, fmt.Errorf("record expiry notice: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
