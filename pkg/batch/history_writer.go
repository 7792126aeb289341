package batch

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Hans774882968/rare-chars-conversion/pkg/db"
)

// HistoryWriter buffers converted lines of one source and stores them in
// batches, one transaction per batch. Batches are committed in submission
// order, and each one also moves the source's progress checkpoint for each
// mode in it to that mode's last line.
type HistoryWriter struct {
	mu          sync.Mutex
	buf         []db.Conversion
	cap         int
	closed      bool
	flushTicker *time.Ticker
	stop        chan struct{}
	wg          sync.WaitGroup

	commitCh chan []db.Conversion
	conn     *sql.DB
	sourceID int64
	OnError  func(error)

	// lastErr stores the first asynchronous error seen by the writer. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

// NewHistoryWriter creates a writer for sourceID.
// bufferSize: flush when buffer reaches this size.
// flushInterval: flush after this duration (0 to disable).
func NewHistoryWriter(conn *sql.DB, sourceID int64, bufferSize int, flushInterval time.Duration) *HistoryWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	hw := &HistoryWriter{
		buf:      make([]db.Conversion, 0, bufferSize),
		cap:      bufferSize,
		stop:     make(chan struct{}),
		commitCh: make(chan []db.Conversion, 2),
		conn:     conn,
		sourceID: sourceID,
	}

	hw.wg.Add(1)
	go hw.committer()

	if flushInterval > 0 {
		hw.flushTicker = time.NewTicker(flushInterval)
		hw.wg.Add(1)
		go hw.loop()
	}
	return hw
}

// Submit enqueues a converted line. The source id is filled in.
func (hw *HistoryWriter) Submit(c db.Conversion) error {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	if hw.closed {
		return ErrHistoryWriterClosed
	}
	c.SourceID = hw.sourceID
	hw.buf = append(hw.buf, c)
	if len(hw.buf) >= hw.cap {
		hw.flushLocked()
	}
	return nil
}

// flushLocked assumes hw.mu is held. It blocks while the committer is
// behind, which pushes back on Submit.
func (hw *HistoryWriter) flushLocked() {
	if len(hw.buf) == 0 {
		return
	}
	batch := hw.buf
	hw.buf = make([]db.Conversion, 0, hw.cap)
	hw.commitCh <- batch
}

func (hw *HistoryWriter) committer() {
	defer hw.wg.Done()
	for batch := range hw.commitCh {
		// After a failure later batches are dropped so the checkpoint never
		// skips past lines that were not stored.
		hw.errMu.Lock()
		failed := hw.lastErr != nil
		hw.errMu.Unlock()
		if failed {
			continue
		}
		if err := hw.executeBatch(batch); err != nil {
			hw.errMu.Lock()
			if hw.lastErr == nil {
				hw.lastErr = err
			}
			hw.errMu.Unlock()
			if hw.OnError != nil {
				hw.OnError(err)
			}
		}
	}
}

func (hw *HistoryWriter) executeBatch(batch []db.Conversion) error {
	tx, err := hw.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	last := make(map[string]int)
	for _, c := range batch {
		if _, err := db.RecordConversion(tx, c); err != nil {
			return fmt.Errorf("failed to record line %d: %w", c.LineIndex, err)
		}
		if l, ok := last[c.Mode]; !ok || c.LineIndex > l {
			last[c.Mode] = c.LineIndex
		}
	}
	for mode, l := range last {
		if err := db.UpdateSourceProgress(tx, hw.sourceID, mode, l); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

func (hw *HistoryWriter) loop() {
	defer hw.wg.Done()
	for {
		select {
		case <-hw.stop:
			return
		case <-hw.flushTicker.C:
			hw.mu.Lock()
			if !hw.closed {
				hw.flushLocked()
			}
			hw.mu.Unlock()
		}
	}
}

// Close flushes what is buffered, waits for pending commits and returns the
// first error any of them hit.
func (hw *HistoryWriter) Close() error {
	hw.mu.Lock()
	if hw.closed {
		hw.mu.Unlock()
		return ErrHistoryWriterClosed
	}
	hw.closed = true
	if hw.flushTicker != nil {
		hw.flushTicker.Stop()
	}
	hw.flushLocked()
	hw.mu.Unlock()

	close(hw.stop)
	close(hw.commitCh)
	hw.wg.Wait()

	hw.errMu.Lock()
	defer hw.errMu.Unlock()
	return hw.lastErr
}

// ErrHistoryWriterClosed is returned by Submit and Close once the writer is closed.
var ErrHistoryWriterClosed = &HistoryWriterError{"history writer closed"}

type HistoryWriterError struct{ msg string }

func (e *HistoryWriterError) Error() string { return e.msg }
