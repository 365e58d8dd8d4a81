package importer

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
)

func TestStatusFromRow(t *testing.T) {
	row := &rivertype.JobRow{
		ID:          42,
		State:       rivertype.JobStateRetryable,
		Attempt:     2,
		MaxAttempts: 5,
		CreatedAt:   time.Now(),
		EncodedArgs: []byte(`{"filePath":"/tmp/import-abc.xlsx","organizationId":"org1"}`),
		Errors: []rivertype.AttemptError{
			{Error: "parse /tmp/import-abc.xlsx: bad zip"},
			{Error: "write batch starting at row 102: store unreachable"},
		},
	}

	status, args := statusFromRow(row)

	if args.OrganizationID != "org1" {
		t.Fatalf("expected organization decoded from args, got %q", args.OrganizationID)
	}
	if status.ID != 42 || status.State != "retryable" || status.Attempt != 2 {
		t.Fatalf("unexpected status projection: %+v", status)
	}
	if got := status.Errors[0]; got != "parse upload: bad zip" {
		t.Fatalf("expected upload path redacted, got %q", got)
	}
	if got := status.Errors[1]; got != "write batch starting at row 102: store unreachable" {
		t.Fatalf("path-free error must pass through unchanged, got %q", got)
	}
}

func TestRedactUploadPath(t *testing.T) {
	if got := redactUploadPath("open /srv/uploads/import-1.xlsx: permission denied", "/srv/uploads/import-1.xlsx"); got != "open upload: permission denied" {
		t.Fatalf("unexpected redaction: %q", got)
	}
	if got := redactUploadPath("store unreachable", ""); got != "store unreachable" {
		t.Fatalf("empty path must leave the message alone, got %q", got)
	}
}
