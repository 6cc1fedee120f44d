package logger

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteWriter writes log entries to SQLite asynchronously. It backs the
// persisted request and security-event trail; console logging is unaffected
// when the buffer fills (entries are dropped, never blocked on).
type SQLiteWriter struct {
	db       *sql.DB
	buffer   chan LogEntry
	done     chan struct{}
	wg       sync.WaitGroup
	config   Config
	stopOnce sync.Once
}

const createLogsTable = `
CREATE TABLE IF NOT EXISTS logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	caller TEXT,
	fields TEXT,
	request_id TEXT,
	user_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp);
CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);
`

// NewSQLiteWriter creates a new SQLite log writer.
func NewSQLiteWriter(cfg Config) (*SQLiteWriter, error) {
	dir := filepath.Dir(cfg.SQLiteDBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}

	// Configure SQLite for concurrent access
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(createLogsTable); err != nil {
		db.Close()
		return nil, err
	}

	w := &SQLiteWriter{
		db:     db,
		buffer: make(chan LogEntry, cfg.AsyncBufferSize),
		done:   make(chan struct{}),
		config: cfg,
	}

	w.wg.Add(1)
	go w.flushLoop()

	return w, nil
}

// Write queues a log entry for async persistence. Never blocks.
func (w *SQLiteWriter) Write(entry LogEntry) error {
	select {
	case w.buffer <- entry:
	default:
		// Buffer full; drop rather than stall request handling.
	}
	return nil
}

// Close flushes pending entries and closes the database.
func (w *SQLiteWriter) Close() error {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		w.db.Close()
	})
	return nil
}

// StartCleanupJob starts a daily job that deletes entries older than the
// configured retention.
func (w *SQLiteWriter) StartCleanupJob(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case <-ticker.C:
				w.deleteExpired()
			}
		}
	}()
}

func (w *SQLiteWriter) deleteExpired() {
	cutoff := time.Now().AddDate(0, 0, -w.config.RetentionDays).UnixMilli()
	w.db.Exec(`DELETE FROM logs WHERE timestamp < ?`, cutoff)
}

func (w *SQLiteWriter) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]LogEntry, 0, w.config.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.writeBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-w.buffer:
			batch = append(batch, entry)
			if len(batch) >= w.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			// Drain what is already buffered, then exit.
			for {
				select {
				case entry := <-w.buffer:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *SQLiteWriter) writeBatch(batch []LogEntry) {
	tx, err := w.db.Begin()
	if err != nil {
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO logs (timestamp, level, message, caller, fields, request_id, user_id) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, entry := range batch {
		fields := ""
		if len(entry.Fields) > 0 {
			if data, err := json.Marshal(entry.Fields); err == nil {
				fields = string(data)
			}
		}
		stmt.Exec(entry.Timestamp, entry.Level, entry.Message, entry.Caller, fields, entry.RequestID, entry.UserID)
	}

	tx.Commit()
}
