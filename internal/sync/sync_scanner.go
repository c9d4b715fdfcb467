package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/eversync/eversync/internal/convert"
	"github.com/eversync/eversync/internal/utils"
)

const (
	DefaultIgnoreFile = ".eversyncignore"
)

var (
	DefaultIgnoredDirs = []string{".git", ".hg", ".svn"}

	ErrRootNotFound = errors.New("sync root not found")
	ErrRootNotDir   = errors.New("sync root is not a directory")
)

// LocalFile is a candidate file found under the sync root
type LocalFile struct {
	RelPath    string // slash separated, relative to the root
	AbsPath    string
	ModifiedAt time.Time
	Size       int64
}

type ScanOptions struct {
	// Extensions allowed, matched exactly against the text after the last dot
	Extensions []string
	// IgnoredDirs are prefixes of root-relative directory paths to skip.
	// Entries with glob meta characters are matched as doublestar patterns.
	IgnoredDirs []string
	// IgnoreFile is a gitignore-style file at the root, optional
	IgnoreFile string
	Logger     *slog.Logger
}

type scanner struct {
	root     string
	exts     map[string]struct{}
	prefixes []string
	globs    []string
	ignore   *gitignore.GitIgnore
	logger   *slog.Logger
}

// Scan walks rootDir and returns every file whose extension is allowed,
// sorted by relative path. Unreadable entries below the root are skipped with
// a warning; only a missing or unreadable root fails the scan.
func Scan(rootDir string, opts ScanOptions) ([]*LocalFile, error) {
	info, err := os.Stat(rootDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, rootDir)
	} else if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, rootDir)
	}

	// walk the target of a symlinked root
	if resolved, err := filepath.EvalSymlinks(rootDir); err == nil {
		rootDir = resolved
	}

	s := newScanner(rootDir, opts)
	files := make([]*LocalFile, 0)

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == rootDir {
				return walkErr
			}
			s.logger.Warn("scan skipped unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		relPath, err := utils.ToSlashRel(rootDir, path)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if s.skipDir(relPath) {
				s.logger.Debug("scan skipped dir", "path", relPath)
				return fs.SkipDir
			}
			return nil
		}

		if file := s.file(path, relPath, d); file != nil {
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", rootDir, err)
	}

	slices.SortFunc(files, func(a, b *LocalFile) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})

	return files, nil
}

func newScanner(rootDir string, opts ScanOptions) *scanner {
	s := &scanner{
		root:   rootDir,
		exts:   make(map[string]struct{}, len(opts.Extensions)),
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	for _, ext := range opts.Extensions {
		s.exts[ext] = struct{}{}
	}

	for _, dir := range opts.IgnoredDirs {
		dir = strings.Trim(filepath.ToSlash(dir), "/")
		if dir == "" {
			continue
		}
		if strings.ContainsAny(dir, "*?[{") {
			if !doublestar.ValidatePattern(dir) {
				s.logger.Warn("scan ignoring invalid pattern", "pattern", dir)
				continue
			}
			s.globs = append(s.globs, dir)
		} else {
			s.prefixes = append(s.prefixes, dir)
		}
	}

	if opts.IgnoreFile != "" {
		ignorePath := filepath.Join(rootDir, opts.IgnoreFile)
		if utils.FileExists(ignorePath) {
			ignore, err := gitignore.CompileIgnoreFile(ignorePath)
			if err != nil {
				s.logger.Warn("failed to load ignore file", "path", ignorePath, "error", err)
			} else {
				s.ignore = ignore
				s.logger.Debug("loaded ignore file", "path", ignorePath)
			}
		}
	}

	return s
}

func (s *scanner) skipDir(relPath string) bool {
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(relPath, prefix) {
			return true
		}
	}
	for _, pattern := range s.globs {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return s.ignore != nil && (s.ignore.MatchesPath(relPath) || s.ignore.MatchesPath(relPath+"/"))
}

func (s *scanner) file(path, relPath string, d fs.DirEntry) *LocalFile {
	if _, ok := s.exts[convert.Ext(relPath)]; !ok {
		return nil
	}
	if s.ignore != nil && s.ignore.MatchesPath(relPath) {
		return nil
	}

	var info fs.FileInfo
	var err error
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = d.Info()
	}
	if err != nil {
		s.logger.Warn("scan skipped file", "path", relPath, "error", err)
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	return &LocalFile{
		RelPath:    relPath,
		AbsPath:    path,
		ModifiedAt: info.ModTime(),
		Size:       info.Size(),
	}
}
