package store

import (
	"database/sql"
	"time"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// recurrence is split into nullable columns; all three are NULL for one-shots.
func toRecurColumns(rec *domain.Recurrence) (kind sql.NullString, interval, dow sql.NullInt64) {
	if rec == nil {
		return
	}
	kind = sql.NullString{String: string(rec.Kind), Valid: true}
	interval = sql.NullInt64{Int64: int64(rec.Interval), Valid: true}
	if rec.DayOfWeek != nil {
		dow = sql.NullInt64{Int64: int64(*rec.DayOfWeek), Valid: true}
	}
	return
}

func fromRecurColumns(kind sql.NullString, interval, dow sql.NullInt64) *domain.Recurrence {
	if !kind.Valid {
		return nil
	}
	rec := &domain.Recurrence{Kind: domain.RecurKind(kind.String), Interval: int(interval.Int64)}
	if dow.Valid {
		d := int(dow.Int64)
		rec.DayOfWeek = &d
	}
	return rec
}
