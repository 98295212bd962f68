package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// GetScanSettings loads the singleton scan configuration/state row (spec
// §3 ScanSettings).
func (s *Store) GetScanSettings(ctx context.Context, tx *sql.Tx) (ScanSettings, error) {
	var ss ScanSettings
	var audioExt, videoExt string
	var lastScan, lastUpdate sql.NullTime
	err := tx.QueryRowContext(ctx, `
		SELECT id, period, start_of_day_seconds, manual_scan_requested,
		       last_scan, last_update, audio_extensions, video_extensions
		FROM scan_settings WHERE id = 1`,
	).Scan(&ss.ID, &ss.Period, &ss.StartOfDaySeconds, &ss.ManualScanRequested,
		&lastScan, &lastUpdate, &audioExt, &videoExt)
	if err != nil {
		return ss, fmt.Errorf("get scan settings: %w", err)
	}
	if lastScan.Valid {
		ss.LastScan = &lastScan.Time
	}
	if lastUpdate.Valid {
		ss.LastUpdate = &lastUpdate.Time
	}
	ss.AudioExtensions = splitExtensions(audioExt)
	ss.VideoExtensions = splitExtensions(videoExt)
	return ss, nil
}

// RequestManualScan sets the "manual scan requested" flag (spec §4.7
// scheduling rule: "manual scan requested → schedule now").
func (s *Store) RequestManualScan(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `UPDATE scan_settings SET manual_scan_requested = 1 WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("request manual scan: %w", err)
	}
	return nil
}

// CompleteScan atomically records last-scan (and last-update, if
// anything changed) and clears manual-scan-requested (spec §3 invariant
// 5, §4.7 Completion).
func (s *Store) CompleteScan(ctx context.Context, tx *sql.Tx, at time.Time, changed bool) error {
	if changed {
		_, err := tx.ExecContext(ctx, `
			UPDATE scan_settings SET last_scan = ?, last_update = ?, manual_scan_requested = 0 WHERE id = 1`,
			at, at)
		if err != nil {
			return fmt.Errorf("complete scan: %w", err)
		}
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE scan_settings SET last_scan = ?, manual_scan_requested = 0 WHERE id = 1`, at)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	return nil
}

func splitExtensions(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
