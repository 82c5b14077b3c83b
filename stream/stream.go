// Package stream runs on-demand HLS relays: one ffmpeg process per
// printer transcoding its camera feed into a playlist plus segments in
// a scratch directory (a ram disk by default, to spare SD cards).
package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"printboard/logger"
)

const (
	staleAfter  = 2 * time.Minute
	reapEvery   = time.Minute
	startupWait = 30 * time.Second
)

// Process is a running relay that can be told to stop.
type Process interface {
	Terminate() error
}

// StartFunc launches a relay pulling from source and writing playlist
// (and its segments) inside dir.
type StartFunc func(dir, source, playlist string) (Process, error)

type relay struct {
	proc       Process
	lastAccess time.Time
}

type Manager struct {
	dir    string
	start  StartFunc
	logger *logger.Logger

	mu     sync.Mutex
	relays map[string]*relay

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(dir string, logman *logger.Logger) *Manager {
	return newManager(dir, startFFmpeg, logman)
}

func newManager(dir string, start StartFunc, logman *logger.Logger) *Manager {
	return &Manager{
		dir:    dir,
		start:  start,
		logger: logman,
		relays: make(map[string]*relay),
		stop:   make(chan struct{}),
	}
}

// Dir is where playlists and segments are written.
func (m *Manager) Dir() string { return m.dir }

// Playlist ensures a relay is running for the printer and returns the
// playlist path once the relay has produced it. A request for an
// already-running relay just refreshes its access time.
func (m *Manager) Playlist(ctx context.Context, id, source string) (string, error) {
	playlist := id + ".m3u8"
	full := filepath.Join(m.dir, playlist)

	m.mu.Lock()
	r, ok := m.relays[id]
	if !ok {
		r = &relay{lastAccess: time.Now()}
		m.relays[id] = r
	}
	m.mu.Unlock()

	if !ok {
		if err := m.launch(r, source, playlist, full); err != nil {
			m.mu.Lock()
			delete(m.relays, id)
			m.mu.Unlock()
			return "", err
		}
		m.logger.LogInfo("Started stream relay", "printer", id, "source", source)
	}

	if err := waitForFile(ctx, full); err != nil {
		return "", err
	}

	m.mu.Lock()
	r.lastAccess = time.Now()
	m.mu.Unlock()
	return full, nil
}

func (m *Manager) launch(r *relay, source, playlist, full string) error {
	if source == "" {
		return errors.New("printer has no video source to relay")
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return err
	}
	// Drop evidence of a previous relay so we wait for a fresh playlist.
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}

	proc, err := m.start(m.dir, source, playlist)
	if err != nil {
		return err
	}

	m.mu.Lock()
	r.proc = proc
	m.mu.Unlock()
	return nil
}

func waitForFile(ctx context.Context, path string) error {
	deadline := time.Now().Add(startupWait)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("relay did not produce %s in time", filepath.Base(path))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Run reaps idle relays until Shutdown.
func (m *Manager) Run() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(reapEvery)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.reap(staleAfter)
			}
		}
	}()
}

func (m *Manager) reap(stale time.Duration) {
	cutoff := time.Now().Add(-stale)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, r := range m.relays {
		if r.lastAccess.After(cutoff) || r.proc == nil {
			continue
		}
		if err := r.proc.Terminate(); err != nil {
			m.logger.LogWarning(err, "Error terminating stale relay", "printer", id)
		} else {
			m.logger.LogInfo("Stopped stale stream relay", "printer", id)
		}
		delete(m.relays, id)
	}
}

// Active reports how many relays are currently running.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.relays)
}

// Shutdown terminates every relay and stops the reaper.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
	m.reap(0)
}

type ffmpegProcess struct {
	cmd *exec.Cmd
}

func (p *ffmpegProcess) Terminate() error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	go func() { _ = p.cmd.Wait() }()
	return nil
}

func startFFmpeg(dir, source, playlist string) (Process, error) {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-nostats", "-loglevel", "warning", "-i", source,
		"-c:v", "h264", "-profile:v", "high", "-level", "4.1",
		"-an", "-flags", "+cgop", "-g", "30",
		"-hls_time", "2", "-hls_list_size", "3", "-hls_flags", "delete_segments",
		"-f", "hls", playlist)
	cmd.Dir = dir

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &ffmpegProcess{cmd: cmd}, nil
}
