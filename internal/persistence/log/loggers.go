package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/terrain/features"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	// Now is the rotation clock; nil means time.Now.
	Now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	hour := now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// AuditLogger writes block transitions as compressed JSONL under
// <dir>/audit.
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(dir string) *AuditLogger {
	return &AuditLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(e audit.Entry) error { return l.w.Write(e) }
func (l *AuditLogger) Close() error                   { return l.w.Close() }

// WorldgenLogger records one line per biome the feature surgery changed.
type WorldgenLogger struct{ w *JSONLZstdWriter }

func NewWorldgenLogger(dir string) *WorldgenLogger {
	return &WorldgenLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "worldgen"), "worldgen")}
}

func (l *WorldgenLogger) WriteReport(r features.Report) error { return l.w.Write(r) }
func (l *WorldgenLogger) Close() error                         { return l.w.Close() }
