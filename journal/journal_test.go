package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/icingautil/icinga-reconcile/metrics"
	"github.com/icingautil/icinga-reconcile/reconcile"
)

func TestBadgerJournal(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "journal-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "badger")

	j, err := New(dbPath, metrics.New(false))
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()

	entries := []Entry{
		{Time: 100, Endpoint: "status", Changed: false},
		{Time: 200, Endpoint: "objects", Family: "zones", ObjectName: "checker", State: "present", Changed: true, Status: 200},
		{Time: 300, Endpoint: "objects", Family: "services", ObjectName: "web!ssh", State: "absent", Failed: true, Status: 500, Msg: "api request failed, status=500 body=internal error"},
	}
	for _, entry := range entries {
		if err := j.Append(ctx, entry); err != nil {
			t.Fatalf("failed to append entry: %v", err)
		}
	}

	recent, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("failed to read recent entries: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	// Most recent first
	if recent[0].ObjectName != "web!ssh" || recent[1].ObjectName != "checker" {
		t.Errorf("unexpected order: %+v", recent)
	}

	all, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("failed to read all entries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestFromRun(t *testing.T) {
	req := reconcile.Request{
		Endpoint:   reconcile.EndpointObjects,
		Family:     reconcile.FamilyZones,
		ObjectName: "checker",
		State:      reconcile.StatePresent,
	}
	outcome := reconcile.Outcome{Changed: true, Status: 200}

	entry := FromRun(req, outcome)
	if entry.Time == 0 {
		t.Error("expected entry time to be set")
	}
	if entry.Endpoint != "objects" || entry.Family != "zones" || entry.ObjectName != "checker" || entry.State != "present" {
		t.Errorf("unexpected request echo: %+v", entry)
	}
	if !entry.Changed || entry.Failed || entry.Status != 200 {
		t.Errorf("unexpected outcome echo: %+v", entry)
	}
}
