package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/setdecoder/internal/config"
	"github.com/JonMunkholm/setdecoder/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeDB records Exec calls and answers QueryRow with a fixed error.
type fakeDB struct {
	execSQL  string
	execArgs []any
	execTag  pgconn.CommandTag
	execErr  error
	rowErr   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{f.rowErr}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestStore_RecordAssignsIDAndTime(t *testing.T) {
	db := &fakeDB{}
	store := NewStore(db)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	run, err := store.Record(context.Background(), Run{Origin: OriginCLI, OutputLines: 7})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if run.ID == uuid.Nil {
		t.Error("Record() left ID empty")
	}
	if !run.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", run.CreatedAt, fixed)
	}
	if run.OrderFiles == nil || run.GeneratedSKUs == nil {
		t.Error("Record() should replace nil slices with empty ones")
	}

	if len(db.execArgs) != 13 {
		t.Fatalf("Exec args = %d, want 13", len(db.execArgs))
	}
	if id, ok := db.execArgs[0].(pgtype.UUID); !ok || uuid.UUID(id.Bytes) != run.ID {
		t.Errorf("Exec id arg = %v, want %v", db.execArgs[0], run.ID)
	}
	if master, ok := db.execArgs[3].(pgtype.Text); !ok || master.Valid {
		t.Errorf("empty master file should be NULL, got %v", db.execArgs[3])
	}
	if got := db.execArgs[6]; got != int32(7) {
		t.Errorf("output_lines arg = %v, want 7", got)
	}
}

func TestStore_RecordError(t *testing.T) {
	store := NewStore(&fakeDB{execErr: errors.New("connection refused")})
	if _, err := store.Record(context.Background(), Run{Origin: OriginWeb}); err == nil {
		t.Fatal("Record() error = nil, want error")
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := NewStore(&fakeDB{rowErr: pgx.ErrNoRows})

	_, err := store.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestStore_Purge(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 3")}
	store := NewStore(db)

	n, err := store.Purge(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Purge() = %d, want 3", n)
	}
}

type fakePurger struct {
	cutoff time.Time
	n      int64
	err    error
}

func (p *fakePurger) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.n, p.err
}

type fakeObserver struct {
	jobs []string
	errs []error
}

func (o *fakeObserver) ObserveJob(job string, err error) {
	o.jobs = append(o.jobs, job)
	o.errs = append(o.errs, err)
}

func TestRetentionJob_RunOnce(t *testing.T) {
	purger := &fakePurger{n: 4}
	observer := &fakeObserver{}
	job := NewRetentionJob(purger, RetentionConfig{RetentionDays: 30}, logging.Discard(), observer)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if got := job.RunOnce(context.Background()); got != 4 {
		t.Errorf("RunOnce() = %d, want 4", got)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !purger.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", purger.cutoff, want)
	}
	if len(observer.jobs) != 1 || observer.jobs[0] != RetentionJobName || observer.errs[0] != nil {
		t.Errorf("observer = %+v", observer)
	}
}

func TestRetentionJob_FailureIsObserved(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	observer := &fakeObserver{}
	job := NewRetentionJob(purger, RetentionConfig{}, logging.Discard(), observer)

	if got := job.RunOnce(context.Background()); got != 0 {
		t.Errorf("RunOnce() = %d, want 0", got)
	}
	if len(observer.errs) != 1 || observer.errs[0] == nil {
		t.Errorf("observer errs = %v, want one failure", observer.errs)
	}
	if job.cfg.RetentionDays != 90 || job.cfg.CheckInterval != 24*time.Hour {
		t.Errorf("defaults not applied: %+v", job.cfg)
	}
}

func TestRetentionJob_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := NewRetentionJob(&fakePurger{}, RetentionConfig{CheckInterval: time.Hour}, logging.Discard(), nil)

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestDatabaseName(t *testing.T) {
	if got := DatabaseName("postgres://u:p@localhost:5432/decoder?sslmode=disable"); got != "decoder" {
		t.Errorf("DatabaseName() = %q, want decoder", got)
	}
}

// TestStore_Postgres runs against a real database when HISTORY_TEST_DATABASE_URL is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("HISTORY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HISTORY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Open(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2, MinConns: 0})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	store := NewStore(pool)
	run, err := store.Record(ctx, Run{
		Origin:            OriginCLI,
		MasterFile:        "master.xlsx",
		OrderFiles:        []string{"a.csv", "b.csv"},
		InputLines:        3,
		OutputLines:       6,
		GeneratedSKUs:     []string{"WIDGET"},
		EmptyBundlePolicy: "passthrough",
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM decode_runs WHERE id = $1`, toPgUUID(run.ID)) })

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MasterFile != "master.xlsx" || len(got.OrderFiles) != 2 || got.OutputLines != 6 {
		t.Errorf("Get() = %+v", got)
	}

	runs, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) == 0 {
		t.Error("List() returned no runs")
	}
}
