// Package batch converts many lines concurrently and records them in the
// conversion history.
package batch

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Hans774882968/rare-chars-conversion/pkg/converter"
	"github.com/Hans774882968/rare-chars-conversion/pkg/db"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Converter runs a converter.Converter over many lines.
type Converter struct {
	Conv *converter.Converter
	// DB receives the conversion history. nil disables history and resume.
	DB        *sql.DB
	BatchSize int
	// Logger is used for informational messages (e.g. resume status). nil means no logging.
	Logger *log.Logger
	// OnProgress is called periodically with the number of converted lines and total lines.
	OnProgress func(current, total int)

	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewConverter creates a batch Converter. conn may be nil.
func NewConverter(conv *converter.Converter, conn *sql.DB) *Converter {
	return &Converter{
		Conv:      conv,
		DB:        conn,
		BatchSize: 50,
		Workers:   4,
	}
}

type lineResult struct {
	Index  int
	Input  string
	Output string
}

// ConvertLines converts every line with mode and returns the outputs in input
// order. With a DB and a positive sourceID each line is stored as it
// completes, and a later call for the same source resumes after the last
// stored line, reusing the stored outputs for that mode.
func (bc *Converter) ConvertLines(ctx context.Context, sourceID int64, lines []string, mode converter.Mode) ([]string, error) {
	out := make([]string, len(lines))
	record := bc.DB != nil && sourceID > 0

	startIdx := 0
	if record {
		startIdx = bc.resume(sourceID, lines, mode, out)
	}
	total := len(lines)
	if startIdx >= total {
		return out, nil
	}

	workers := bc.Workers
	if workers <= 0 {
		workers = 1
	}
	var wp WorkerPoolInterface
	if bc.PoolFactory != nil {
		wp = bc.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	resultCh := make(chan lineResult, workers*2)
	doneCh := make(chan error, 1)

	var hw *HistoryWriter
	if record {
		hw = NewHistoryWriter(bc.DB, sourceID, bc.BatchSize, 100*time.Millisecond)
	}
	var closeOnce sync.Once
	closeHistory := func() error {
		var err error
		closeOnce.Do(func() {
			if hw != nil {
				err = hw.Close()
			}
		})
		return err
	}
	defer closeHistory()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp.Start(ctx)

	// Consumer: lines finish out of order; store them in order so the
	// checkpoint always describes a prefix of the input.
	go func() {
		defer close(doneCh)
		buffer := make(map[int]lineResult)
		nextIdx := startIdx
		for res := range resultCh {
			buffer[res.Index] = res
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					break
				}
				delete(buffer, nextIdx)
				out[nextIdx] = item.Output

				if hw != nil {
					err := hw.Submit(db.Conversion{
						LineIndex: item.Index,
						Mode:      string(mode),
						Input:     item.Input,
						Output:    item.Output,
					})
					if err != nil {
						// Signal producers to stop to prevent them from blocking on resultCh.
						cancel()
						doneCh <- err
						return
					}
				}

				nextIdx++
				if bc.OnProgress != nil && bc.BatchSize > 0 && nextIdx%bc.BatchSize == 0 {
					bc.OnProgress(nextIdx, total)
				}
			}
		}
		if nextIdx < total {
			if err := ctx.Err(); err != nil {
				doneCh <- err
			} else {
				doneCh <- fmt.Errorf("converted %d of %d lines", nextIdx-startIdx, total-startIdx)
			}
			return
		}
		if bc.OnProgress != nil {
			bc.OnProgress(total, total)
		}
		doneCh <- nil
	}()

	// Producer: one job per line.
	var submitErr error
Loop:
	for i := startIdx; i < total; i++ {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		idx, text := i, lines[i]
		job := func(ctx context.Context) error {
			res := lineResult{Index: idx, Input: text, Output: bc.Conv.Transform(text, mode)}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if err == ctx.Err() || err == ErrPoolClosed {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	// All workers are gone after Close, so nothing sends on resultCh any more.
	wp.Close()
	close(resultCh)

	err := <-doneCh
	if submitErr != nil {
		err = submitErr
	}
	if cerr := closeHistory(); cerr != nil && err == nil {
		err = cerr
	}
	return out, err
}

// resume fills out with stored outputs and returns the first line to convert.
func (bc *Converter) resume(sourceID int64, lines []string, mode converter.Mode, out []string) int {
	last, err := db.GetSourceProgress(bc.DB, sourceID, string(mode))
	if err != nil {
		if bc.Logger != nil {
			bc.Logger.Printf("Warning: Failed to retrieve progress: %v", err)
		}
		return 0
	}
	if last < 0 {
		return 0
	}
	stored, err := db.GetConversionsBySource(bc.DB, sourceID)
	if err != nil {
		if bc.Logger != nil {
			bc.Logger.Printf("Warning: Failed to load stored conversions: %v", err)
		}
		return 0
	}

	have := make(map[int]string)
	for _, c := range stored {
		if c.Mode == string(mode) && c.LineIndex < len(lines) && c.Input == lines[c.LineIndex] {
			have[c.LineIndex] = c.Output
		}
	}
	// Reuse the longest fully stored prefix.
	next := 0
	for next <= last && next < len(lines) {
		o, ok := have[next]
		if !ok {
			break
		}
		out[next] = o
		next++
	}
	if next > 0 && bc.Logger != nil {
		bc.Logger.Printf("Resuming from line %d (skipping %d stored lines)", next, next)
	}
	return next
}
