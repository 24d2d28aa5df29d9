package river_test

import (
	"context"
	"strings"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	riveradapter "github.com/neomorfeo/fuelops/internal/adapter/river"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/domain"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.New(t.TempDir() + "/river_test.db")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Tenants().Create(context.Background(), domain.NewTenant("t-1", "Acme", "acme")); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}

	return db
}

func startClient(t *testing.T, db *sqlite.DB) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()
	ctx := context.Background()

	client, err := riveradapter.Setup(ctx, db.SQL(), db.ActivityLogs(), 1)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	t.Cleanup(subscribeCancel)

	if err := client.Start(ctx); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, subscribeChan
}

func auditEntry() domain.AuditEntry {
	actor := domain.Actor{UserID: "u-1", TenantID: "t-1", Role: domain.RoleDispatcher, IP: "10.1.1.1"}
	entry := domain.NewAuditEntry("t-1", actor, domain.SubjectOrder, "o-42", "scheduled")
	entry.OldValues = map[string]any{"status": "SUBMITTED"}
	entry.NewValues = map[string]any{"status": "SCHEDULED", "truck_plate": "FUEL-1"}
	entry.Description = "Order #o-42 transitioned from SUBMITTED to SCHEDULED"
	return entry
}

func TestRecorder_Record_EnqueuesJob(t *testing.T) {
	db := setupTestDB(t)
	client, completed := startClient(t, db)

	rec := riveradapter.NewRecorder(client)
	if err := rec.Record(context.Background(), auditEntry()); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Wait for the worker to process the job.
	select {
	case event := <-completed:
		if event.Job.Kind != "audit.record" {
			t.Errorf("job kind = %q, want %q", event.Job.Kind, "audit.record")
		}
		if event.Job.Queue != riveradapter.QueueAudit {
			t.Errorf("job queue = %q, want %q", event.Job.Queue, riveradapter.QueueAudit)
		}
		if event.Job.MaxAttempts != 10 {
			t.Errorf("max attempts = %d, want 10", event.Job.MaxAttempts)
		}
		argsStr := string(event.Job.EncodedArgs)
		for _, want := range []string{`"tenant_id":"t-1"`, `"subject_id":"o-42"`, `"action":"scheduled"`} {
			if !strings.Contains(argsStr, want) {
				t.Errorf("encoded args missing %s, got: %s", want, argsStr)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestAuditWorker_PersistsActivityLog(t *testing.T) {
	db := setupTestDB(t)
	client, completed := startClient(t, db)

	if err := riveradapter.NewRecorder(client).Record(context.Background(), auditEntry()); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}

	logs, err := db.ActivityLogs().List(context.Background(), "t-1", domain.ActivityFilter{SubjectID: "o-42"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	got := logs[0]
	if got.Action != "scheduled" || got.UserID != "u-1" || got.IPAddress != "10.1.1.1" {
		t.Errorf("unexpected log: %+v", got)
	}
	if got.NewValues["truck_plate"] != "FUEL-1" {
		t.Errorf("NewValues = %v", got.NewValues)
	}
}
