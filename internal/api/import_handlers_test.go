package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tricity/internal/auth"
	"tricity/internal/importer"
)

type fakeQueue struct {
	enqueued []importer.ImportArgs
	jobs     map[int64]*importer.JobStatus
	jobOrgs  map[int64]string
}

func (f *fakeQueue) Enqueue(ctx context.Context, args importer.ImportArgs) (int64, error) {
	f.enqueued = append(f.enqueued, args)
	return int64(len(f.enqueued)), nil
}

func (f *fakeQueue) Job(ctx context.Context, id int64, organizationID string) (*importer.JobStatus, error) {
	job, ok := f.jobs[id]
	if !ok || f.jobOrgs[id] != organizationID {
		return nil, importer.ErrJobNotFound
	}
	return job, nil
}

func newTestServer(t *testing.T) (*Server, *fakeQueue, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := auth.NewManager(time.Hour)
	session, err := sessions.Issue("tester", "org1")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	queue := &fakeQueue{jobs: map[int64]*importer.JobStatus{}, jobOrgs: map[int64]string{}}
	server := &Server{
		Sessions:  sessions,
		Jobs:      queue,
		UploadDir: t.TempDir(),
		Log:       log,
	}
	return server, queue, session.Token
}

func multipartUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("workbook bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestImportUploadEnqueuesJob(t *testing.T) {
	server, queue, token := newTestServer(t)
	router := NewRouter(server)

	body, contentType := multipartUpload(t, "devices.xlsx")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"jobId":"1"`) {
		t.Fatalf("expected job id in response, got %s", resp.Body.String())
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected exactly one job per upload, got %d", len(queue.enqueued))
	}
	args := queue.enqueued[0]
	if args.OrganizationID != "org1" {
		t.Fatalf("expected organization from the session, got %q", args.OrganizationID)
	}
	if _, err := os.Stat(args.FilePath); err != nil {
		t.Fatalf("expected upload persisted at %s: %v", args.FilePath, err)
	}
}

func TestImportUploadRequiresFile(t *testing.T) {
	server, queue, token := newTestServer(t)
	router := NewRouter(server)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/import", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "file_required") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("nothing should be enqueued without a file")
	}
}

func TestImportUploadRejectsUnknownExtension(t *testing.T) {
	server, _, token := newTestServer(t)
	router := NewRouter(server)

	body, contentType := multipartUpload(t, "devices.txt")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported extension, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "unsupported_file") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestImportUploadRequiresSession(t *testing.T) {
	server, _, _ := newTestServer(t)
	router := NewRouter(server)

	body, contentType := multipartUpload(t, "devices.xlsx")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/import", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.Code)
	}
}

func TestImportStatus(t *testing.T) {
	server, queue, token := newTestServer(t)
	queue.jobs[42] = &importer.JobStatus{ID: 42, State: "completed", Attempt: 1, MaxAttempts: 5}
	queue.jobOrgs[42] = "org1"
	router := NewRouter(server)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/import/42", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"state":"completed"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/import/41", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", resp.Code)
	}
}

func TestImportStatusHidesOtherTenantsJobs(t *testing.T) {
	server, queue, _ := newTestServer(t)
	queue.jobs[42] = &importer.JobStatus{
		ID:          42,
		State:       "retryable",
		Attempt:     1,
		MaxAttempts: 5,
		Errors:      []string{"parse upload: bad zip"},
	}
	queue.jobOrgs[42] = "org1"
	router := NewRouter(server)

	other, err := server.Sessions.Issue("outsider", "org2")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/import/42", nil)
	req.Header.Set("Authorization", "Bearer "+other.Token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected another organization's job to read as 404, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "retryable") {
		t.Fatalf("job state leaked across organizations: %s", resp.Body.String())
	}
}
