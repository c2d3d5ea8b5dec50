package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinerima/yaws/internal/config"
)

// Event names recorded in the journal.
const (
	EventConnecting = "connecting"
	EventOpen       = "open"
	EventClosed     = "closed"
	EventError      = "error"
)

// Entry is one lifecycle event.
type Entry struct {
	Instance string
	Address  string
	Event    string
	Detail   string
	At       time.Time
}

// row is an Entry ready for insertion.
type row struct {
	ID       uuid.UUID
	Instance string
	Address  string
	Event    string
	Detail   string
	At       time.Time
}

// Metrics counts journal activity.
type Metrics struct {
	Recorded int64
	Dropped  int64
	Inserts  int64
	Flushes  int64
	Errors   int64
}

// Journal batches lifecycle events and writes them to the database.
type Journal struct {
	cfg    config.JournalConfig
	logger *slog.Logger

	db    *pgxpool.Pool
	input chan Entry

	batch   []row
	batchMu sync.Mutex

	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// New creates a Journal writing to db.
func New(cfg config.JournalConfig, db *pgxpool.Pool, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  make(chan Entry, cfg.BufferSize),
		batch:  make([]row, 0, cfg.BatchSize),
	}
}

// Record queues an event, best effort. A zero At is stamped with now.
func (j *Journal) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	select {
	case j.input <- e:
	default:
		j.logger.Warn("journal buffer full, dropping event", "event", e.Event)
		j.batchMu.Lock()
		j.metrics.Dropped++
		j.batchMu.Unlock()
	}
}

// Start begins consuming events and writing to the database.
func (j *Journal) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.flushTicker = time.NewTicker(j.cfg.FlushInterval)

	j.wg.Add(1)
	go j.consumeLoop()

	j.wg.Add(1)
	go j.flushLoop()

	j.logger.Info("journal started",
		"batch_size", j.cfg.BatchSize,
		"flush_interval", j.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the journal.
func (j *Journal) Stop(ctx context.Context) error {
	j.logger.Info("stopping journal")

	if j.cancel != nil {
		j.cancel()
	}
	if j.flushTicker != nil {
		j.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("journal stopped")
	case <-ctx.Done():
		j.logger.Warn("journal stop timed out")
	}

	// Final flush
	j.flush()

	return nil
}

// Stats returns current metrics.
func (j *Journal) Stats() Metrics {
	j.batchMu.Lock()
	defer j.batchMu.Unlock()
	return j.metrics
}

// consumeLoop reads entries and accumulates batches.
func (j *Journal) consumeLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case e := <-j.input:
			j.handleEntry(e)
		}
	}
}

// flushLoop periodically flushes the batch.
func (j *Journal) flushLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-j.flushTicker.C:
			j.flush()
		}
	}
}

// handleEntry transforms and adds an entry to the batch.
func (j *Journal) handleEntry(e Entry) {
	r := j.transform(e)

	j.batchMu.Lock()
	j.batch = append(j.batch, r)
	j.metrics.Recorded++
	shouldFlush := len(j.batch) >= j.cfg.BatchSize
	j.batchMu.Unlock()

	if shouldFlush {
		j.flush()
	}
}

// transform converts an Entry to a row.
func (j *Journal) transform(e Entry) row {
	return row{
		ID:       uuid.New(),
		Instance: e.Instance,
		Address:  e.Address,
		Event:    e.Event,
		Detail:   e.Detail,
		At:       e.At,
	}
}

// flush writes the current batch to the database.
func (j *Journal) flush() {
	j.batchMu.Lock()
	if len(j.batch) == 0 {
		j.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := j.batch
	j.batch = make([]row, 0, j.cfg.BatchSize)
	j.batchMu.Unlock()

	start := time.Now()

	if err := j.batchInsert(batch); err != nil {
		j.logger.Error("batch insert failed", "error", err, "count", len(batch))
		j.batchMu.Lock()
		j.metrics.Errors++
		j.batchMu.Unlock()
		return
	}

	j.batchMu.Lock()
	j.metrics.Inserts += int64(len(batch))
	j.metrics.Flushes++
	j.batchMu.Unlock()

	j.logger.Debug("flushed journal events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch.
func (j *Journal) batchInsert(rows []row) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO connection_events (id, instance, address, event, detail, at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.Instance, r.Address, r.Event, r.Detail, r.At)
	}

	results := j.db.SendBatch(j.ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
