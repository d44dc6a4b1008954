package chart

import (
	"os"
	"path/filepath"
	"sync"

	"mmr-forecast/series"
)

// Snapshot keeps the most recently rendered config for the web page to fetch.
type Snapshot struct {
	adapter Adapter
	mu      sync.Mutex
	cfg     Config
	ok      bool
}

func NewSnapshot(a Adapter) *Snapshot {
	return &Snapshot{adapter: a}
}

func (s *Snapshot) Render(st series.State) error {
	cfg := s.adapter.Config(st)
	s.mu.Lock()
	s.cfg = cfg
	s.ok = true
	s.mu.Unlock()
	return nil
}

// Latest returns the last rendered config; ok is false before the first render.
func (s *Snapshot) Latest() (Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.ok
}

// PNGFile rewrites a PNG on disk on every render. The file is replaced atomically.
type PNGFile struct {
	Adapter Adapter
	Path    string
}

func (p PNGFile) Render(st series.State) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.Path), ".chart-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := p.Adapter.WritePNG(tmp, st); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.Path)
}
