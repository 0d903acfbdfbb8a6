package capture

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenDB_AppliesPragmas(t *testing.T) {
	db, err := openDB(filepath.Join(t.TempDir(), "pragmas.db"))
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatal(err)
	}
	if busyTimeout != 10_000 {
		t.Errorf("busy_timeout = %d, want 10000", busyTimeout)
	}

	// Schema is in place: the failures table accepts inserts.
	if _, err := db.Exec(`INSERT INTO failures (id, description, created_at) VALUES ('x', 'd', 0)`); err != nil {
		t.Errorf("insert into failures: %v", err)
	}
}

func TestOpenDB_CreatesParentDirs(t *testing.T) {
	db, err := openDB(filepath.Join(t.TempDir(), "nested", "deeper", "cap.db"))
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	db.Close()
}

func TestIsBusy(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQLITE_BUSY: locked"), true},
		{errors.New("database is locked (5)"), true},
		{errors.New("database table is locked"), true},
		{errors.New("no such table: failures"), false},
	}
	for _, tc := range cases {
		if got := isBusy(tc.err); got != tc.want {
			t.Errorf("isBusy(%v) = %t, want %t", tc.err, got, tc.want)
		}
	}
}

func TestRunTx_PassesThroughNonBusyErrors(t *testing.T) {
	db, err := openDB(":memory:")
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	err = runTx(context.Background(), db, func(*sql.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("runTx error = %v, want boom", err)
	}
}
