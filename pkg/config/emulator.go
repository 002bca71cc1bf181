package config

import "path/filepath"

type Emulator struct {
	// Core is a path to the libretro core (.so, .dylib, .dll).
	Core string `validate:"required"`
	// Repo is where the core is downloaded from
	// when it is missing on the disk.
	Repo struct {
		Sync    bool
		Url     string
		ExtLock string
	}
	SystemDir string `default:"system"`
	SaveDir   string `default:"saves"`
	// Options are answered to the core variable requests.
	Options map[string]string
	// AudioFrequency is passed to the cores with the frequency extension,
	// 0 leaves the core default.
	AudioFrequency int `default:"48000"`
	// FrameRate is used when the core doesn't report its own.
	FrameRate float64 `default:"59.7154"`
	// LockThread pins the emulation loop to one OS thread.
	LockThread bool `default:"true"`
}

func (e Emulator) CoreName() string { return filepath.Base(e.Core) }

func (e Emulator) CoresDir() string {
	pth, err := filepath.Abs(filepath.Dir(e.Core))
	if err != nil {
		return filepath.Dir(e.Core)
	}
	return pth
}

// Option returns a core option value or an empty string.
func (e Emulator) Option(key string) (string, bool) {
	v, ok := e.Options[key]
	return v, ok
}
