package snapshot

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/metrics"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS bom_snapshots (
		id          VARCHAR PRIMARY KEY,
		deal_id     VARCHAR NOT NULL,
		deal_name   VARCHAR NOT NULL,
		version     INTEGER NOT NULL,
		bom_data    VARCHAR NOT NULL,
		item_count  INTEGER NOT NULL,
		source_file VARCHAR,
		blob_url    VARCHAR,
		saved_by    VARCHAR,
		created_at  TIMESTAMP NOT NULL,
		UNIQUE (deal_id, version)
	)
`

const selectColumns = `id, deal_id, deal_name, version, bom_data, source_file, blob_url, saved_by, created_at`

// DuckStore keeps snapshots in a DuckDB file.
type DuckStore struct {
	db  *sql.DB
	log *logger.Logger
	// DuckDB transactions conflict optimistically; serialize writers so
	// version allocation never races.
	mu  sync.Mutex
	now func() time.Time
}

// NewDuckStore opens (or creates) the snapshot database at dbPath. An empty
// path opens an in-memory database.
func NewDuckStore(dbPath string, log *logger.Logger) (*DuckStore, error) {
	log = logger.Or(log).With("component", "snapshot-store")

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				log.Warn("pragma failed", "pragma", pragma, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	log.Info("snapshot store ready", "path", dbPath)
	return &DuckStore{db: db, log: log, now: time.Now}, nil
}

// Save stores in as the deal's next version.
func (s *DuckStore) Save(ctx context.Context, in models.NewSnapshot) (*models.BomSnapshot, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	data := in.BomData
	data.Items = models.StripIDs(data.Items)
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding bom data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM bom_snapshots WHERE deal_id = ?`, in.DealID,
	).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("allocating version: %w", err)
	}

	snap := &models.BomSnapshot{
		ID:         uuid.New().String(),
		DealID:     in.DealID,
		DealName:   in.DealName,
		Version:    version,
		BomData:    data,
		SourceFile: in.SourceFile,
		BlobURL:    in.BlobURL,
		SavedBy:    in.SavedBy,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bom_snapshots
			(id, deal_id, deal_name, version, bom_data, item_count, source_file, blob_url, saved_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.DealID, snap.DealName, snap.Version, string(encoded), len(data.Items),
		nullString(snap.SourceFile), nullString(snap.BlobURL), nullString(snap.SavedBy), snap.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	metrics.SnapshotsSaved.Inc()
	s.log.Info("snapshot saved", "dealId", snap.DealID, "version", snap.Version, "items", len(data.Items))

	bom.AssignIDs(snap.BomData.Items)
	return snap, nil
}

// Get returns one version of a deal's snapshot.
func (s *DuckStore) Get(ctx context.Context, dealID string, version int) (*models.BomSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM bom_snapshots WHERE deal_id = ? AND version = ?`, dealID, version)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, notFound(err, "%s v%d", dealID, version)
	}
	return snap, nil
}

// Latest returns the highest version saved for a deal.
func (s *DuckStore) Latest(ctx context.Context, dealID string) (*models.BomSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM bom_snapshots WHERE deal_id = ? ORDER BY version DESC LIMIT 1`, dealID)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, notFound(err, "%s", dealID)
	}
	return snap, nil
}

// List returns the deal's snapshot summaries, newest first.
func (s *DuckStore) List(ctx context.Context, dealID string) ([]models.SnapshotSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deal_id, deal_name, version, item_count, source_file, saved_by, created_at
		FROM bom_snapshots WHERE deal_id = ? ORDER BY version DESC`, dealID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	list := make([]models.SnapshotSummary, 0)
	for rows.Next() {
		var sum models.SnapshotSummary
		if err := rows.Scan(&sum.ID, &sum.DealID, &sum.DealName, &sum.Version, &sum.ItemCount,
			&sum.SourceFile, &sum.SavedBy, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

// Close closes the database.
func (s *DuckStore) Close() error {
	return s.db.Close()
}

func scanSnapshot(row *sql.Row) (*models.BomSnapshot, error) {
	var (
		snap models.BomSnapshot
		data string
	)
	if err := row.Scan(&snap.ID, &snap.DealID, &snap.DealName, &snap.Version, &data,
		&snap.SourceFile, &snap.BlobURL, &snap.SavedBy, &snap.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &snap.BomData); err != nil {
		return nil, fmt.Errorf("decoding bom data: %w", err)
	}
	if snap.BomData.Items == nil {
		snap.BomData.Items = []models.BomItem{}
	}
	bom.AssignIDs(snap.BomData.Items)
	return &snap, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("loading snapshot: %w", err)
}
