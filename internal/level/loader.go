package level

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gridbot/internal/level/formats"
	"github.com/vovakirdan/gridbot/internal/registry"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

func init() {
	levels, err := LoadFS(builtinFS, "builtin")
	if err != nil {
		panic(fmt.Sprintf("level: built-in levels: %v", err))
	}
	for _, lvl := range levels {
		registry.Register(lvl.ID(), lvl.Name(), registry.Static(lvl))
	}
}

// Loader loads levels from directories on disk.
type Loader struct {
	Roots  []string
	Logger *log.Logger
}

// NewLoader creates a loader over the given directories.
func NewLoader(logger *log.Logger, roots ...string) *Loader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loader{Roots: roots, Logger: logger}
}

// LoadAll recursively scans every root. Invalid files are logged and
// skipped; missing roots are ignored. Levels are sorted by ID.
func (l *Loader) LoadAll() ([]*Definition, error) {
	var levels []*Definition

	for _, root := range l.Roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() || !isSupportedExtension(filepath.Ext(path)) {
				return nil
			}

			lvl, err := l.LoadFile(path)
			if err != nil {
				l.Logger.Warn("skipping level", "path", path, "err", err)
				return nil
			}
			levels = append(levels, lvl)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("level: walking directory %s: %w", root, err)
		}
	}

	sortByID(levels)
	return levels, nil
}

// LoadFile loads a single level file.
func (l *Loader) LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("level: reading file %s: %w", path, err)
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("level: parsing file %s: %w", path, err)
	}
	lvl.FilePath = path
	return lvl, nil
}

// Register adds every level on disk to the registry, replacing built-ins
// that share an ID.
func (l *Loader) Register() (int, error) {
	levels, err := l.LoadAll()
	if err != nil {
		return 0, err
	}
	for _, lvl := range levels {
		if registry.Exists(lvl.ID()) {
			l.Logger.Info("overriding level", "id", lvl.ID(), "path", lvl.FilePath)
		}
		registry.Override(lvl.ID(), lvl.Name(), registry.Static(lvl))
	}
	return len(levels), nil
}

// LoadFS loads every level under dir in fsys. Unlike LoadAll, any invalid
// file is an error.
func LoadFS(fsys fs.FS, dir string) ([]*Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("level: reading %s: %w", dir, err)
	}

	var levels []*Definition
	for _, e := range entries {
		if e.IsDir() || !isSupportedExtension(filepath.Ext(e.Name())) {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("level: reading %s: %w", e.Name(), err)
		}
		lvl, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("level: %s: %w", e.Name(), err)
		}
		levels = append(levels, lvl)
	}

	sortByID(levels)
	return levels, nil
}

func sortByID(levels []*Definition) {
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].ID() < levels[j].ID()
	})
}

func isSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supported := range formats.FormatExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
