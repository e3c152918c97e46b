package db

import "testing"

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	// Schema should be in place and idempotent.
	if err := d.migrate(); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}

	if _, err := d.Exec(`INSERT INTO scan_records (id, user_id, kind) VALUES ('r1', 'u1', 'image')`); err != nil {
		t.Fatalf("inserting record: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO scan_records (id, user_id, kind) VALUES ('r2', 'u1', 'video')`); err == nil {
		t.Error("kind check constraint should reject unknown kinds")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/dir/scan.db"
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.Close()
}
