package llmpipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexxia-ai/llmpipeline/event"
)

const (
	defaultRetentionDuration = 7 * 24 * time.Hour
	defaultMaxRecordFiles    = 10
)

var recordSync sync.Mutex // keep all JSONL writes from the same run in order

// RecorderConfig controls where diagnostics records are written and how
// long they are kept.
type RecorderConfig struct {
	Directory         string
	RetentionDuration time.Duration
	MaxRecordFiles    int
}

// Recorder is a factory that creates RunRecorder instances, one per
// Chain/LLMCall invocation, each writing to its own rotated JSONL file.
type Recorder struct {
	config  RecorderConfig
	counter int64
}

// RunRecorder writes one JSON line per event.Event it observes, for a
// single run. It implements event.EventHandler, so it can be plugged
// straight into ExecCtxBuilder.WithEventHandler.
type RunRecorder struct {
	recorder  *Recorder
	startTime time.Time
	filepath  string
	file      recordWriter
}

// recordWriter is the subset of *os.File RunRecorder needs; a discard
// fallback implements it too so a file-open failure never blocks a run.
type recordWriter interface {
	io.Writer
	Sync() error
	Close() error
}

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return io.Discard.Write(p) }
func (d *discardWriter) Sync() error                 { return nil }
func (d *discardWriter) Close() error                { return nil }

// NewRecorder creates a new Recorder factory with default cleanup
// settings (7-day retention, 10 files max), creating config.Directory (or
// a temp "llmpipeline-records" directory) if it doesn't exist.
func NewRecorder(config ...RecorderConfig) *Recorder {
	defaultDir := filepath.Join(os.TempDir(), "llmpipeline-records")

	cfg := RecorderConfig{
		Directory:         defaultDir,
		RetentionDuration: defaultRetentionDuration,
		MaxRecordFiles:    defaultMaxRecordFiles,
	}
	if len(config) > 0 {
		if config[0].Directory != "" {
			cfg.Directory = config[0].Directory
		}
		if config[0].RetentionDuration > 0 {
			cfg.RetentionDuration = config[0].RetentionDuration
		}
		if config[0].MaxRecordFiles > 0 {
			cfg.MaxRecordFiles = config[0].MaxRecordFiles
		}
	}

	os.MkdirAll(cfg.Directory, 0755)

	return &Recorder{config: cfg}
}

// NewRun creates a RunRecorder for a single invocation, rotating old
// record files out first.
func (r *Recorder) NewRun() *RunRecorder {
	timestamp := time.Now().Format("20060102150405")
	counter := atomic.AddInt64(&r.counter, 1)
	path := filepath.Join(r.config.Directory, fmt.Sprintf("record-%s.%03d.jsonl", timestamp, counter))

	r.cleanup()

	run := &RunRecorder{recorder: r, startTime: time.Now(), filepath: path}

	var file recordWriter
	osFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open record file, using io.Discard", "file", path, "error", err)
		file = &discardWriter{}
	} else {
		file = osFile
	}
	run.file = file
	return run
}

// cleanup removes old record files per the retention policy and file-count
// cap, oldest first.
func (r *Recorder) cleanup() {
	entries, err := os.ReadDir(r.config.Directory)
	if err != nil {
		slog.Error("failed to read record directory", "error", err)
		return
	}

	type recordFile struct {
		path    string
		modTime time.Time
	}
	var files []recordFile
	cutoff := time.Now().Add(-r.config.RetentionDuration)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "record-") || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, recordFile{path: filepath.Join(r.config.Directory, entry.Name()), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	if r.config.RetentionDuration > 0 {
		for _, f := range files {
			if f.modTime.Before(cutoff) {
				if err := os.Remove(f.path); err != nil {
					slog.Error("failed to remove old record file", "file", f.path, "error", err)
				} else {
					slog.Debug("removed old record file", "file", filepath.Base(f.path))
				}
			}
		}
	}

	if r.config.MaxRecordFiles > 0 && len(files) > r.config.MaxRecordFiles {
		excess := len(files) - r.config.MaxRecordFiles
		for i := 0; i < excess && i < len(files); i++ {
			if err := os.Remove(files[i].path); err != nil {
				slog.Error("failed to remove excess record file", "file", files[i].path, "error", err)
			} else {
				slog.Debug("removed excess record file", "file", filepath.Base(files[i].path))
			}
		}
	}
}

// Filepath returns the path to the run's record file.
func (rr *RunRecorder) Filepath() string { return rr.filepath }

// recordLine is one JSONL record: a timestamp, the event's Kind for easy
// filtering without decoding Event, and the event itself.
type recordLine struct {
	Time  time.Time   `json:"time"`
	Kind  string      `json:"kind"`
	Event event.Event `json:"event"`
}

// OnEvent implements event.EventHandler, appending one JSON line per
// event. Marshal failures are logged, not propagated — a broken record
// line must never interrupt the run it's observing.
func (rr *RunRecorder) OnEvent(ev event.Event) {
	recordSync.Lock()
	defer recordSync.Unlock()

	buf, err := json.Marshal(recordLine{Time: time.Now(), Kind: ev.Kind(), Event: ev})
	if err != nil {
		slog.Error("failed to marshal event record", "error", err)
		return
	}
	buf = append(buf, '\n')
	if _, err := rr.file.Write(buf); err != nil {
		slog.Error("failed to write event record", "error", err)
		return
	}
	rr.file.Sync()
}

// Close flushes and closes the run's record file.
func (rr *RunRecorder) Close() error {
	recordSync.Lock()
	defer recordSync.Unlock()

	rr.file.Sync()
	return rr.file.Close()
}
