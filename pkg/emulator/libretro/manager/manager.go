// Package manager downloads a missing libretro core.
package manager

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/logger"
	eos "github.com/emuka/emuka/pkg/os"
)

var ErrNoCore = errors.New("no core file and no repo to sync it from")

type Manager struct {
	conf   config.Emulator
	client *grab.Client
	log    *logger.Logger
}

func New(conf config.Emulator, log *logger.Logger) *Manager {
	return &Manager{conf: conf, client: grab.NewClient(), log: log.Module("core-dl")}
}

// URL returns the address of the core file.
// A repo address ending with / gets the zipped core name appended,
// the way the libretro buildbot stores them.
func (m *Manager) URL() string {
	url := m.conf.Repo.Url
	if strings.HasSuffix(url, "/") {
		url += m.conf.CoreName() + ".zip"
	}
	return url
}

// Sync makes sure the core file is on the disk.
func (m *Manager) Sync(ctx context.Context) error {
	if eos.Exists(m.conf.Core) {
		return nil
	}
	if !m.conf.Repo.Sync || m.conf.Repo.Url == "" {
		return fmt.Errorf("%w: %v", ErrNoCore, m.conf.Core)
	}

	// IPC lock if multiple processes share the cores dir
	lock, err := eos.NewFileLock(m.conf.Repo.ExtLock)
	if err != nil {
		return err
	}
	if err = lock.Lock(); err != nil {
		return fmt.Errorf("core lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if eos.Exists(m.conf.Core) {
		return nil
	}
	return m.download(ctx)
}

func (m *Manager) download(ctx context.Context) error {
	dir := m.conf.CoresDir()
	if err := eos.CheckCreateDir(dir); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(dir, ".dl")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	req, err := grab.NewRequest(tmp, m.URL())
	if err != nil {
		return fmt.Errorf("core url: %w", err)
	}
	req = req.WithContext(ctx)

	m.log.Info().Msgf("<<< download %v", req.URL())
	resp := m.client.Do(req)

	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
Loop:
	for {
		select {
		case <-t.C:
			m.log.Debug().Msgf("transferred %v / %v bytes (%.2f%%)", resp.BytesComplete(), resp.Size(), 100*resp.Progress())
		case <-resp.Done:
			break Loop
		}
	}
	if err = resp.Err(); err != nil {
		return fmt.Errorf("core download: %w", err)
	}

	target := filepath.Join(dir, m.conf.CoreName())
	if strings.EqualFold(filepath.Ext(resp.Filename), ".zip") {
		err = extract(resp.Filename, m.conf.CoreName(), target)
	} else {
		err = os.Rename(resp.Filename, target)
	}
	if err != nil {
		return err
	}
	m.log.Info().Msgf("core saved to %v", target)
	return nil
}

// extract copies the name file of the zip archive src into dst.
func extract(src, name, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
		return eos.WriteFileAtomic(dst, data, 0755)
	}
	return fmt.Errorf("no %v in %v", name, filepath.Base(src))
}
