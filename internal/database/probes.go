package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ProbeRecord is a cached metadata probe result for one source file.
type ProbeRecord struct {
	Duration float64
	Width    int
	Height   int
	Size     int64
	Bitrate  int64
	ProbedAt time.Time
}

// GetProbe returns the cached probe for path if one exists for the given file
// size and modification time. A changed file misses.
func (d *Database) GetProbe(ctx context.Context, path string, size int64, modTime time.Time) (ProbeRecord, bool, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec ProbeRecord
	var probedAt int64
	err := d.db.QueryRowContext(ctx, `
		SELECT duration, width, height, format_size, bitrate, probed_at
		FROM probe_cache
		WHERE path = ? AND size = ? AND mod_time = ?
	`, path, size, modTime.UnixNano()).Scan(&rec.Duration, &rec.Width, &rec.Height, &rec.Size, &rec.Bitrate, &probedAt)

	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_probe", start, nil)
		return ProbeRecord{}, false, nil
	}
	recordQuery("get_probe", start, err)
	if err != nil {
		return ProbeRecord{}, false, err
	}

	rec.ProbedAt = time.Unix(probedAt, 0)
	return rec, true, nil
}

// PutProbe stores a probe result, replacing any earlier entry for path.
func (d *Database) PutProbe(ctx context.Context, path string, size int64, modTime time.Time, rec ProbeRecord) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO probe_cache (path, size, mod_time, duration, width, height, format_size, bitrate, probed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			duration = excluded.duration,
			width = excluded.width,
			height = excluded.height,
			format_size = excluded.format_size,
			bitrate = excluded.bitrate,
			probed_at = excluded.probed_at
	`, path, size, modTime.UnixNano(), rec.Duration, rec.Width, rec.Height, rec.Size, rec.Bitrate, time.Now().Unix())

	recordQuery("put_probe", start, err)
	return err
}

// PruneProbes deletes entries probed before cutoff and returns how many were removed.
func (d *Database) PruneProbes(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `DELETE FROM probe_cache WHERE probed_at < ?`, cutoff.Unix())
	recordQuery("prune_probes", start, err)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
