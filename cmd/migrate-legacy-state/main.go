// Command migrate-legacy-state copies the state files written by the original
// script (last_post.txt and replied_ids.txt) into the configured backend.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/backend"
	"github.com/gbdavies1992-hash/gomining-bot/internal/cadence"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	"github.com/gbdavies1992-hash/gomining-bot/internal/ledger"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
)

func main() {
	var (
		markerFile = flag.String("marker", "last_post.txt", "legacy marker file")
		ledgerFile = flag.String("ledger", "replied_ids.txt", "legacy replied IDs file")
		dryRun     = flag.Bool("dry-run", false, "Dry run mode (report without writing)")
		verbose    = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	b, err := backend.Open(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to open state backend: %v", err)
	}
	defer b.Close()

	legacy := legacyFiles{marker: *markerFile, ledger: *ledgerFile}
	summary, err := migrate(ctx, legacy, b.Marker, b.Ledger, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	slog.Info("Migration complete",
		"backend", b.Name,
		"dry_run", *dryRun,
		"marker_migrated", summary.markerMigrated,
		"ids_read", summary.idsRead,
		"ids_migrated", summary.idsMigrated,
		"ids_skipped", summary.idsSkipped,
		"duration_ms", summary.duration.Milliseconds())
}

type legacyFiles struct {
	marker string
	ledger string
}

type summary struct {
	markerMigrated bool
	idsRead        int
	idsMigrated    int
	idsSkipped     int
	duration       time.Duration
}

func migrate(ctx context.Context, legacy legacyFiles, marker, replies domain.StateStore, dryRun bool) (summary, error) {
	start := time.Now()
	var s summary

	slog.Info("Starting migration", "dry_run", dryRun, "marker", legacy.marker, "ledger", legacy.ledger)

	migrated, err := migrateMarker(ctx, legacy.marker, marker, dryRun)
	if err != nil {
		return s, err
	}
	s.markerMigrated = migrated

	if err := migrateLedger(ctx, legacy.ledger, replies, dryRun, &s); err != nil {
		return s, err
	}

	s.duration = time.Since(start)
	return s, nil
}

// migrateMarker copies the marker when it is a valid window key. The original
// script wrote a bare date once per day, which has no hour and is skipped.
func migrateMarker(ctx context.Context, path string, dst domain.StateStore, dryRun bool) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("No legacy marker file", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	key := strings.TrimSpace(string(data))
	if _, err := cadence.ParseWindowKey(key); err != nil {
		slog.Warn("Skipping legacy marker, not a window key", "value", key)
		return false, nil
	}

	if dryRun {
		slog.Info("Would write marker", "value", key)
		return true, nil
	}
	if err := cadence.NewMarkerStore(dst).Save(ctx, key); err != nil {
		return false, err
	}
	slog.Info("Migrated marker", "value", key)
	return true, nil
}

// migrateLedger appends legacy IDs that the destination does not know yet,
// so running the tool twice is harmless.
func migrateLedger(ctx context.Context, path string, dst domain.StateStore, dryRun bool, s *summary) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("No legacy ledger file", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	l := ledger.New(dst)
	known, err := l.LoadKnown(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		s.idsRead++

		if l.IsKnown(id, known) {
			s.idsSkipped++
			continue
		}
		if !dryRun {
			if err := l.Record(ctx, id); err != nil {
				return err
			}
		}
		known.Add(id)
		s.idsMigrated++
		slog.Debug("Migrated mention ID", "id", id)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return nil
}
