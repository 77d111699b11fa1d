package main

import (
	"os"
	"path/filepath"
	"testing"

	persistlog "boomtrees.dev/internal/persistence/log"
	"boomtrees.dev/internal/sim/world/audit"
)

func TestParsePos(t *testing.T) {
	p, err := parsePos("1, -2,3")
	if err != nil {
		t.Fatalf("parsePos: %v", err)
	}
	if p != [3]int{1, -2, 3} {
		t.Fatalf("got %v", p)
	}
	for _, bad := range []string{"", "1,2", "1,2,x", "1,2,3,4"} {
		if _, err := parsePos(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestAuditFiles_DataDirOrAuditDir(t *testing.T) {
	data := t.TempDir()
	l := persistlog.NewAuditLogger(data)
	if err := l.WriteAudit(audit.Entry{Tick: 1, Action: audit.ActionDetonate}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, dir := range []string{data, filepath.Join(data, "audit")} {
		files, err := auditFiles(dir)
		if err != nil {
			t.Fatalf("%s: %v", dir, err)
		}
		if len(files) != 1 {
			t.Fatalf("%s: files=%v", dir, files)
		}
	}

	empty := t.TempDir()
	if err := os.Mkdir(filepath.Join(empty, "audit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := auditFiles(empty); err == nil {
		t.Fatalf("expected error for a dir without audit files")
	}
}
