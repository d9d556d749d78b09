package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// dumpQueueSize bounds the dumper's backlog. Once full, new dumps are
// dropped rather than blocking a connection's write path.
const dumpQueueSize = 1024

// dumpJob is one frame queued for forensic replay.
type dumpJob struct {
	direction string // "in" or "out"
	connUUID  string
	seq       uint64
	packetID  byte
	data      []byte
}

// Dumper is an optional sidecar sink that writes raw inbound/outbound
// frames to files for forensic replay. It never blocks the connection
// write path: Dump is non-blocking and drops the frame on overflow.
type Dumper struct {
	baseDir string
	jobs    chan dumpJob
	done    chan struct{}
	once    sync.Once
}

// NewDumper creates a Dumper rooted at baseDir, clearing the in/ and out/
// subdirectories (startup contract from the persisted-state layout), and
// starts its background writer goroutine.
func NewDumper(baseDir string) (*Dumper, error) {
	for _, sub := range []string{"in", "out"} {
		dir := filepath.Join(baseDir, sub)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("clearing dump dir %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating dump dir %s: %w", dir, err)
		}
	}

	d := &Dumper{
		baseDir: baseDir,
		jobs:    make(chan dumpJob, dumpQueueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d, nil
}

// Dump enqueues a frame for writing. Non-blocking: if the queue is full
// the frame is dropped and a warning is logged.
func (d *Dumper) Dump(direction, connUUID string, seq uint64, packetID byte, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	select {
	case d.jobs <- dumpJob{direction: direction, connUUID: connUUID, seq: seq, packetID: packetID, data: cp}:
	default:
		slog.Warn("packet dump queue full, dropping frame", "direction", direction, "conn", connUUID)
	}
}

// Close stops the background writer once the queue drains.
func (d *Dumper) Close() {
	d.once.Do(func() {
		close(d.jobs)
		<-d.done
	})
}

func (d *Dumper) run() {
	defer close(d.done)
	for job := range d.jobs {
		name := fmt.Sprintf("%s_%020d-%d.bin", job.connUUID, job.seq, job.packetID)
		path := filepath.Join(d.baseDir, job.direction, name)
		if err := os.WriteFile(path, job.data, 0o644); err != nil {
			slog.Warn("packet dump write failed", "path", path, "error", err)
		}
	}
}
