package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	// Schema should be in place.
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("querying users: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty users table, got %d rows", n)
	}
	if err := d.QueryRow("SELECT COUNT(*) FROM chat_turns").Scan(&n); err != nil {
		t.Fatalf("querying chat_turns: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "raggate.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if err := d.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestTurnRoleConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	_, err = d.Exec(`INSERT INTO chat_turns (id, chat_id, role, content) VALUES ('t1', 'c1', 'system', 'x')`)
	if err == nil {
		t.Error("expected CHECK constraint violation for role 'system'")
	}
}
