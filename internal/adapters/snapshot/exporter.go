package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/gosimple/slug"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/pairing"
	"github.com/okian/swiss/internal/domain/types"
	"github.com/okian/swiss/pkg/logger"
	"github.com/okian/swiss/pkg/metrics"
)

const (
	contentTypeJSON = "application/json"
	latestName      = "latest.json"
)

// Source provides the standings to export.
type Source interface {
	Standings(ctx context.Context) ([]model.Standing, error)
}

// Result lists the objects written by one export.
type Result struct {
	Key       string    `json:"key"`
	LatestKey string    `json:"latest_key"`
	Location  string    `json:"location"`
	TakenAt   time.Time `json:"taken_at"`
	Players   int       `json:"players"`
}

// Exporter writes snapshots of one tournament.
type Exporter struct {
	source     Source
	uploader   Uploader
	tournament string
	prefix     string
	now        func() time.Time
	logger     logger.Logger
}

// NewExporter creates an exporter for the named tournament.
func NewExporter(source Source, uploader Uploader, tournament string, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		source:     source,
		uploader:   uploader,
		tournament: tournament,
		prefix:     "snapshots",
		now:        time.Now,
		logger:     logger.Get().Named("snapshot"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the key prefix every object of this tournament is stored under.
func (e *Exporter) Dir() string {
	name := slug.Make(e.tournament)
	if name == "" {
		name = "tournament"
	}
	return path.Join(e.prefix, name)
}

// Export reads standings, pairs them and stores both twice: under a
// timestamped key and as latest.json. An odd player count is recorded in
// the document instead of failing the export.
func (e *Exporter) Export(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			metrics.RecordSnapshotError()
			metrics.RecordErrorByComponent("snapshot", "export_error")
			return
		}
		metrics.RecordSnapshotExported(float64(time.Since(start).Microseconds()) / 1000)
	}()

	snap, err := e.build(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(e.Dir(), fmt.Sprintf("standings-%d.json", snap.TakenAt.Unix()))
	up, err := e.uploader.Upload(ctx, key, contentTypeJSON, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	latest := path.Join(e.Dir(), latestName)
	if _, err := e.uploader.Upload(ctx, latest, contentTypeJSON, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("upload latest snapshot: %w", err)
	}

	e.logger.Info(ctx, "snapshot exported",
		logger.String("key", key),
		logger.Int("players", snap.Players),
	)
	return &Result{
		Key:       key,
		LatestKey: latest,
		Location:  up.Location,
		TakenAt:   snap.TakenAt,
		Players:   snap.Players,
	}, nil
}

func (e *Exporter) build(ctx context.Context) (types.Snapshot, error) {
	rows, err := e.source.Standings(ctx)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("read standings: %w", err)
	}

	snap := types.Snapshot{
		Tournament: e.tournament,
		TakenAt:    e.now().UTC(),
		Players:    len(rows),
		Standings:  rows,
		Pairings:   []model.Pairing{},
	}

	// Pairings come from the same rows so the document never pairs a
	// standings table it does not contain.
	pairs, err := pairing.Swiss(rows)
	switch {
	case errors.Is(err, pairing.ErrOddPlayerCount):
		snap.PairingError = err.Error()
	case err != nil:
		return types.Snapshot{}, fmt.Errorf("pair standings: %w", err)
	default:
		snap.Pairings = pairs
	}
	return snap, nil
}
