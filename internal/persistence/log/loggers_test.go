package log

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/terrain/features"
)

func TestAuditLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	want := []audit.Entry{
		{Tick: 1, Actor: "p1", Action: audit.ActionDetonate, Pos: [3]int{1, 2, 3}, From: "OAK_BOOMLOG", To: "STRIPPED_OAK_BOOMLOG", Reason: "trigger"},
		{Tick: 1, Actor: "p1", Action: audit.ActionDetonate, Pos: [3]int{1, 3, 3}, From: "OAK_BOOMLOG", To: "STRIPPED_OAK_BOOMLOG", Reason: "chain"},
		{Tick: 9, Action: audit.ActionRegrow, Pos: [3]int{1, 2, 3}, From: "STRIPPED_OAK_BOOMLOG", To: "OAK_BOOMLOG"},
	}
	for _, e := range want {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListFiles(filepath.Join(dir, "audit"), "audit")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files=%v want 1", files)
	}
	got, err := ReadAuditFile(files[0])
	if err != nil {
		t.Fatalf("ReadAuditFile: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("entries=%d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("[%d] got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestJSONLZstdWriter_HourlyRotation(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "audit")
	now := time.Date(2026, 10, 19, 10, 59, 0, 0, time.UTC)
	w.Now = func() time.Time { return now }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListFiles(dir, "audit")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v want 2", files)
	}
	if filepath.Base(files[0]) != "audit-2026-10-19-10.jsonl.zst" || filepath.Base(files[1]) != "audit-2026-10-19-11.jsonl.zst" {
		t.Fatalf("names: %v", files)
	}
	for i, f := range files {
		var lines int
		err := ScanJSONL(f, func(line []byte) error {
			var v map[string]int
			if err := json.Unmarshal(line, &v); err != nil {
				return err
			}
			if v["n"] != i+1 {
				t.Fatalf("%s: n=%d want %d", f, v["n"], i+1)
			}
			lines++
			return nil
		})
		if err != nil {
			t.Fatalf("ScanJSONL: %v", err)
		}
		if lines != 1 {
			t.Fatalf("%s: lines=%d want 1", f, lines)
		}
	}
}

func TestJSONLZstdWriter_AppendAfterReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "audit")
		w.Now = func() time.Time { return now }
		if err := w.Write(audit.Entry{Tick: uint64(i)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	got, err := ReadAuditFile(filepath.Join(dir, "audit-2026-01-02-03.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadAuditFile: %v", err)
	}
	if len(got) != 2 || got[1].Tick != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestWorldgenLogger(t *testing.T) {
	dir := t.TempDir()
	l := NewWorldgenLogger(dir)
	if err := l.WriteReport(features.Report{Biome: "forest", Appended: []string{"forest_boomtrees"}}); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	files, err := ListFiles(filepath.Join(dir, "worldgen"), "worldgen")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var rep features.Report
	err = ScanJSONL(files[0], func(line []byte) error { return json.Unmarshal(line, &rep) })
	if err != nil {
		t.Fatalf("ScanJSONL: %v", err)
	}
	if rep.Biome != "forest" || len(rep.Appended) != 1 {
		t.Fatalf("report %+v", rep)
	}
}
