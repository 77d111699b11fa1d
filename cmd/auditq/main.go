package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"boomtrees.dev/internal/persistence/indexdb"
	persistlog "boomtrees.dev/internal/persistence/log"
	"boomtrees.dev/internal/sim/world/audit"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/index.db", "path to the sqlite audit index")
		pos     = flag.String("pos", "", "list audits at block position x,y,z")
		actor   = flag.String("actor", "", "list audits caused by actor")
		limit   = flag.Int("limit", 100, "max rows for -pos/-actor")
		counts  = flag.Bool("counts", false, "print audit counts per action")
		reports = flag.Bool("reports", false, "print worldgen surgery reports")
		tailDir = flag.String("tail", "", "read audit-*.jsonl.zst files from a data dir (or its audit/ subdir) instead of the index")
	)
	flag.Parse()

	enc := json.NewEncoder(os.Stdout)

	if *tailDir != "" {
		files, err := auditFiles(*tailDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list audit files:", err)
			os.Exit(1)
		}
		for _, f := range files {
			entries, err := persistlog.ReadAuditFile(f)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			for _, e := range entries {
				if *actor != "" && e.Actor != *actor {
					continue
				}
				_ = enc.Encode(e)
			}
		}
		return
	}

	r, err := indexdb.OpenReader(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer r.Close()
	ctx := context.Background()

	switch {
	case *counts:
		m, err := r.CountByAction(ctx)
		exitOn(err)
		_ = enc.Encode(m)
	case *reports:
		reps, err := r.Reports(ctx)
		exitOn(err)
		for _, rep := range reps {
			_ = enc.Encode(rep)
		}
	case *pos != "":
		p, err := parsePos(*pos)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -pos:", err)
			os.Exit(2)
		}
		entries, err := r.AuditsAt(ctx, p, *limit)
		exitOn(err)
		printEntries(enc, entries)
	case *actor != "":
		entries, err := r.AuditsByActor(ctx, *actor, *limit)
		exitOn(err)
		printEntries(enc, entries)
	default:
		fmt.Fprintln(os.Stderr, "one of -counts, -reports, -pos, -actor or -tail is required")
		os.Exit(2)
	}
}

// auditFiles accepts either the boomsim data dir or the audit dir inside it.
func auditFiles(dir string) ([]string, error) {
	if st, err := os.Stat(filepath.Join(dir, "audit")); err == nil && st.IsDir() {
		dir = filepath.Join(dir, "audit")
	}
	files, err := persistlog.ListFiles(dir, "audit")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no audit-*.jsonl.zst files in %s", dir)
	}
	return files, nil
}

func parsePos(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("want x,y,z, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func printEntries(enc *json.Encoder, entries []audit.Entry) {
	for _, e := range entries {
		_ = enc.Encode(e)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
