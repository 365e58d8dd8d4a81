package importer

import (
	"context"
	"fmt"
	"os"

	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"

	"tricity/internal/devices"
)

// DefaultBatchSize bounds memory and statement size per write while keeping
// per-call overhead amortized.
const DefaultBatchSize = 100

// BatchWriter persists one bounded batch of validated records.
type BatchWriter interface {
	InsertBatch(ctx context.Context, records []devices.DeviceRecord) (devices.BatchResult, error)
}

// Summary totals one finished import.
type Summary struct {
	Total      int
	Imported   int
	Duplicates int
	Rejected   int
}

// Worker drives one import job: parse the whole file once, then walk the
// rows in original order in fixed-size sequential batches, validating each
// row and handing the valid subset to the writer. Bad rows are logged and
// counted, never fatal; partial success is still success. Only a parse
// failure or a store failure fails the job, and in both cases the uploaded
// file is kept on disk so a retry or an operator can recover it.
type Worker struct {
	river.WorkerDefaults[ImportArgs]

	writer    BatchWriter
	batchSize int
	log       *logrus.Logger
}

func NewWorker(writer BatchWriter, batchSize int, log *logrus.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logrus.New()
	}
	return &Worker{writer: writer, batchSize: batchSize, log: log}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[ImportArgs]) error {
	args := job.Args

	rows, err := ParseWorkbook(args.FilePath)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args.FilePath, err)
	}

	summary := Summary{Total: len(rows)}
	for start := 0; start < len(rows); start += w.batchSize {
		end := min(start+w.batchSize, len(rows))

		valid := make([]devices.DeviceRecord, 0, end-start)
		for i, row := range rows[start:end] {
			record, buildErr := BuildRecord(row, args.OrganizationID)
			if buildErr != nil {
				summary.Rejected++
				// Sheet row number: data starts under the header at row 2.
				w.log.WithFields(logrus.Fields{
					"job": job.ID,
					"row": start + i + 2,
				}).Warnf("row rejected: %v", buildErr)
				continue
			}
			valid = append(valid, record)
		}

		// A batch can lose every row to validation; it still advances
		// progress without touching the store.
		if len(valid) > 0 {
			result, writeErr := w.writer.InsertBatch(ctx, valid)
			if writeErr != nil {
				return fmt.Errorf("write batch starting at row %d: %w", start+2, writeErr)
			}
			summary.Imported += result.Inserted
			summary.Duplicates += result.Duplicates
		}

		w.log.WithField("job", job.ID).Infof("processed %d / %d", end, summary.Total)
	}

	if err := os.Remove(args.FilePath); err != nil && !os.IsNotExist(err) {
		w.log.WithField("job", job.ID).Warnf("remove upload %s: %v", args.FilePath, err)
	}

	w.log.WithFields(logrus.Fields{
		"job":        job.ID,
		"total":      summary.Total,
		"imported":   summary.Imported,
		"duplicates": summary.Duplicates,
		"rejected":   summary.Rejected,
	}).Info("import complete")
	return nil
}
