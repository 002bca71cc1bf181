// Package games keeps a list of the ROM files in the library dir.
package games

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

type GameMetadata struct {
	Name string `json:"name"` // the display name of the game
	Path string `json:"path"` // the game path relative to the library base path
	Type string `json:"type"` // the game file extension (e.g. gb, zip)
}

type Library struct {
	path      string
	supported map[string]struct{}
	ignored   []string
	watchMode bool

	lastScanDuration time.Duration

	// game name -> game meta
	// games with duplicate names are merged
	games map[string]GameMetadata
	gmu   sync.RWMutex

	watcher *fsnotify.Watcher
	done    chan struct{}

	// to restrict parallel execution or throttling
	// for file watch mode
	mu                sync.Mutex
	isScanning        bool
	isScanningDelayed bool

	log *logger.Logger
}

func NewLib(conf config.Library, log *logger.Logger) (*Library, error) {
	dir, err := filepath.Abs(conf.BasePath)
	if err != nil {
		return nil, fmt.Errorf("library dir %v: %w", conf.BasePath, err)
	}
	return &Library{
		path:      dir,
		supported: toMap(conf.Supported),
		ignored:   conf.Ignored,
		watchMode: conf.WatchMode,
		games:     map[string]GameMetadata{},
		log:       log.Module("lib"),
	}, nil
}

// Path returns the library base dir.
func (lib *Library) Path() string { return lib.path }

// GetAll returns the games sorted by name.
func (lib *Library) GetAll() []GameMetadata {
	lib.gmu.RLock()
	res := make([]GameMetadata, 0, len(lib.games))
	for _, value := range lib.games {
		res = append(res, value)
	}
	lib.gmu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// FindGameByName returns the game with its full path.
func (lib *Library) FindGameByName(name string) (GameMetadata, bool) {
	lib.gmu.RLock()
	defer lib.gmu.RUnlock()
	game, ok := lib.games[name]
	return game, ok
}

func (lib *Library) FullPath(g GameMetadata) string { return filepath.Join(lib.path, g.Path) }

func (lib *Library) Scan() {
	// scan throttling
	lib.mu.Lock()
	if lib.isScanning {
		lib.isScanningDelayed = true
		lib.mu.Unlock()
		lib.log.Debug().Msg("Lib scan... delayed")
		return
	}
	lib.isScanning = true
	lib.mu.Unlock()

	lib.log.Debug().Msg("Lib scan... started")

	start := time.Now()
	var games []GameMetadata
	err := filepath.WalkDir(lib.path, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info == nil || info.IsDir() || !lib.isExtAllowed(path) {
			return nil
		}
		meta := metadata(path, lib.path)
		if !lib.isIgnored(meta.Name) {
			games = append(games, meta)
		}
		return nil
	})

	if err != nil {
		lib.log.Error().Err(err).Str("dir", lib.path).Msg("Lib scan... failed")
	} else {
		lib.set(games)
		lib.lastScanDuration = time.Since(start)
		lib.dumpLibrary()
		lib.log.Info().Msgf("Lib scan... completed (%v games)", len(games))
	}

	// run scan again if delayed
	lib.mu.Lock()
	lib.isScanning = false
	delayed := lib.isScanningDelayed
	lib.isScanningDelayed = false
	lib.mu.Unlock()
	if delayed {
		lib.Scan()
	}
}

// Run scans the library and starts watching
// the base dir changes when enabled.
func (lib *Library) Run() {
	lib.Scan()
	if !lib.watchMode {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		lib.log.Error().Err(err).Msg("Lib watcher has failed")
		return
	}
	if err = watcher.Add(lib.path); err != nil {
		lib.log.Error().Err(err).Msg("Lib watch error")
		_ = watcher.Close()
		return
	}
	lib.watcher, lib.done = watcher, make(chan struct{})
	go lib.watch()
}

// watch rescans the entire library on
// the file changes in the watched directory.
func (lib *Library) watch() {
	defer close(lib.done)
	for {
		select {
		case event, ok := <-lib.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				lib.Scan()
			}
		case err, ok := <-lib.watcher.Errors:
			if !ok {
				return
			}
			lib.log.Warn().Err(err).Msg("Lib watch")
		}
	}
}

func (lib *Library) Shutdown(context.Context) error {
	if lib.watcher == nil {
		return nil
	}
	err := lib.watcher.Close()
	<-lib.done
	lib.log.Info().Msg("Lib watch has ended")
	return err
}

func (lib *Library) String() string { return "library" }

func (lib *Library) set(games []GameMetadata) {
	res := make(map[string]GameMetadata)
	for _, value := range games {
		res[value.Name] = value
	}
	lib.gmu.Lock()
	lib.games = res
	lib.gmu.Unlock()
}

func (lib *Library) isExtAllowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := lib.supported[ext[1:]]
	return ok
}

// isIgnored checks the name against the ignored words,
// words starting with a dot match any part of the name.
func (lib *Library) isIgnored(name string) bool {
	for _, k := range lib.ignored {
		if name == k {
			return true
		}
		if len(k) > 0 && k[0] == '.' && strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// metadata returns game info from a path
func metadata(path string, basePath string) GameMetadata {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	relPath, _ := filepath.Rel(basePath, path)

	return GameMetadata{
		Name: strings.TrimSuffix(name, ext),
		Type: strings.ToLower(ext[1:]),
		Path: relPath,
	}
}

// dumpLibrary printouts the current library snapshot of games
func (lib *Library) dumpLibrary() {
	if lib.log.GetLevel() > logger.DebugLevel {
		return
	}
	var gameList strings.Builder
	games := lib.GetAll()
	for _, game := range games {
		gameList.WriteString(fmt.Sprintf("    %5s   %s (%s)\n", game.Type, game.Name, game.Path))
	}

	lib.log.Debug().Msgf("Lib dump\n"+
		"--------------------------------------------\n"+
		"%v"+
		"--------------------------------------------\n"+
		"--- ROMs: %03d %27s ---\n"+
		"--------------------------------------------",
		gameList.String(), len(games), lib.lastScanDuration)
}

func toMap(list []string) map[string]struct{} {
	res := make(map[string]struct{}, len(list))
	for _, s := range list {
		res[strings.ToLower(strings.TrimPrefix(s, "."))] = struct{}{}
	}
	return res
}
