package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/sirupsen/logrus"
)

// ImportArgs is the queue payload for one import attempt. The file at
// FilePath belongs to the job for its whole lifetime: the worker removes it
// on success and deliberately leaves it behind on failure.
type ImportArgs struct {
	FilePath       string `json:"filePath"`
	OrganizationID string `json:"organizationId"`
}

func (ImportArgs) Kind() string { return "device_import" }

// ErrJobNotFound is returned when a job id has no queue row.
var ErrJobNotFound = errors.New("import job not found")

// JobStatus is a read-only view of the queue's own bookkeeping for a job.
type JobStatus struct {
	ID          int64      `json:"jobId"`
	State       string     `json:"state"`
	Attempt     int        `json:"attempt"`
	MaxAttempts int        `json:"maxAttempts"`
	Errors      []string   `json:"errors,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

// QueueConfig sizes the worker-side queue client.
type QueueConfig struct {
	Workers     int
	JobTimeout  time.Duration
	MaxAttempts int
}

// Queue wraps the durable job client. Jobs live in Postgres next to the
// records they produce; claiming is exclusive, so two workers never run the
// same job at once, and delivery is at-least-once across retries.
type Queue struct {
	client *river.Client[pgx.Tx]
}

// NewInsertQueue builds an enqueue-only client for the HTTP process.
func NewInsertQueue(pool *pgxpool.Pool) (*Queue, error) {
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("create queue client: %w", err)
	}
	return &Queue{client: client}, nil
}

// NewWorkerQueue builds the consuming client for the worker process. The
// error handler is the operator-visible failure hook: job failures are never
// surfaced to the uploader, only logged here and recorded on the job row.
func NewWorkerQueue(pool *pgxpool.Pool, worker *Worker, cfg QueueConfig, log *logrus.Logger) (*Queue, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.Workers},
		},
		Workers:      workers,
		JobTimeout:   cfg.JobTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		ErrorHandler: &logErrorHandler{log: log},
	})
	if err != nil {
		return nil, fmt.Errorf("create queue client: %w", err)
	}
	return &Queue{client: client}, nil
}

// Migrate installs the queue schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create queue migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("migrate queue schema: %w", err)
	}
	return nil
}

// Enqueue adds a job and returns its id. Fire-and-forget: callers do not
// wait for the import itself.
func (q *Queue) Enqueue(ctx context.Context, args ImportArgs) (int64, error) {
	result, err := q.client.Insert(ctx, args, nil)
	if err != nil {
		return 0, fmt.Errorf("enqueue import: %w", err)
	}
	return result.Job.ID, nil
}

// Job looks up the queue row for a job id on behalf of one organization.
// Jobs are tenant-scoped like everything else: a job enqueued for another
// organization is indistinguishable from one that does not exist.
func (q *Queue) Job(ctx context.Context, id int64, organizationID string) (*JobStatus, error) {
	row, err := q.client.JobGet(ctx, id)
	if err != nil {
		if errors.Is(err, river.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("look up job %d: %w", id, err)
	}

	status, args := statusFromRow(row)
	if args.OrganizationID != organizationID {
		return nil, ErrJobNotFound
	}
	return status, nil
}

// statusFromRow projects a queue row into the client-visible status. Error
// strings recorded by failed attempts can embed the server-side upload
// path; it is replaced before the strings leave the queue layer.
func statusFromRow(row *rivertype.JobRow) (*JobStatus, ImportArgs) {
	var args ImportArgs
	_ = json.Unmarshal(row.EncodedArgs, &args)

	status := &JobStatus{
		ID:          row.ID,
		State:       string(row.State),
		Attempt:     row.Attempt,
		MaxAttempts: row.MaxAttempts,
		CreatedAt:   row.CreatedAt,
		FinalizedAt: row.FinalizedAt,
	}
	for _, attempt := range row.Errors {
		status.Errors = append(status.Errors, redactUploadPath(attempt.Error, args.FilePath))
	}
	return status, args
}

func redactUploadPath(message, path string) string {
	if path == "" {
		return message
	}
	return strings.ReplaceAll(message, path, "upload")
}

// Start begins consuming jobs. Only worker-side queues may start.
func (q *Queue) Start(ctx context.Context) error {
	return q.client.Start(ctx)
}

// Stop drains running jobs before shutting the client down.
func (q *Queue) Stop(ctx context.Context) error {
	return q.client.Stop(ctx)
}

type logErrorHandler struct {
	log *logrus.Logger
}

func (h *logErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.log.WithFields(logrus.Fields{
		"job":     job.ID,
		"kind":    job.Kind,
		"attempt": job.Attempt,
	}).Errorf("import job failed: %v", err)
	return nil
}

func (h *logErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	h.log.WithFields(logrus.Fields{
		"job":  job.ID,
		"kind": job.Kind,
	}).Errorf("import job panicked: %v\n%s", panicVal, trace)
	return nil
}
