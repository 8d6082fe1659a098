package crawl

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/stream"

	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/internal/fs"
	"github.com/hupe1980/codeindex/trigram"
)

// DefaultMaxFileSize is the largest file indexed unless overridden.
const DefaultMaxFileSize = 1 << 20

// Stats summarizes one walk.
type Stats struct {
	Files   int   `json:"files"`
	Bytes   int64 `json:"bytes"`
	Skipped int   `json:"skipped"`
	Failed  int   `json:"failed"`
}

// Options configures Walk.
type Options struct {
	// MaxFileSize skips larger files. Zero or less disables the limit.
	MaxFileSize int64
	// Workers bounds concurrent reads. Defaults to GOMAXPROCS.
	Workers int
	// Ignore holds gitignore-style patterns applied on top of .gitignore.
	Ignore []string
	// FS is the file system to walk.
	FS fs.FileSystem
	// Logger receives per-file failures.
	Logger *slog.Logger
}

// Option configures Walk.
type Option func(*Options)

// WithMaxFileSize sets the size limit in bytes.
func WithMaxFileSize(n int64) Option {
	return func(o *Options) { o.MaxFileSize = n }
}

// WithWorkers sets the number of concurrent readers.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithIgnorePatterns adds gitignore-style patterns.
func WithIgnorePatterns(patterns ...string) Option {
	return func(o *Options) { o.Ignore = append(o.Ignore, patterns...) }
}

// WithFileSystem walks fsys instead of the local file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *Options) {
		if fsys != nil {
			o.FS = fsys
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

type file struct {
	path string // as stored in the index
	name string // on fsys
	size int64
}

// Walk indexes every eligible file below root into b. Document paths are
// root joined with the slash-separated relative path, so a FileLoader
// without Root finds them from the same working directory.
//
// Unreadable files are logged and counted in Stats.Failed. Walk returns the
// first directory read error or ctx.Err(); documents committed before the
// failure stay in b.
func Walk(ctx context.Context, root string, b *index.Builder, optFns ...Option) (Stats, error) {
	o := Options{
		MaxFileSize: DefaultMaxFileSize,
		Workers:     runtime.GOMAXPROCS(0),
		FS:          fs.Default,
		Logger:      slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&o)
	}

	var stats Stats
	files, err := collect(ctx, root, &o, &stats)
	if err != nil {
		return stats, err
	}

	s := stream.New().WithMaxGoroutines(o.Workers)
	for _, f := range files {
		s.Go(func() stream.Callback {
			if ctx.Err() != nil {
				return func() {}
			}
			ids, err := extract(o.FS, f.name)
			return func() {
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					stats.Failed++
					o.Logger.WarnContext(ctx, "read failed", "path", f.path, "error", err)
					return
				}
				b.Begin(f.path)
				for _, id := range ids {
					b.AddID(id)
				}
				b.Commit()
				stats.Files++
				stats.Bytes += f.size
			}
		})
	}
	s.Wait()
	return stats, ctx.Err()
}

// extract returns the distinct trigram ids of a file in ascending order.
func extract(fsys fs.FileSystem, name string) ([]uint32, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	ids := trigram.IDs(data)
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// collect lists eligible files in lexical walk order.
func collect(ctx context.Context, root string, o *Options, stats *Stats) ([]file, error) {
	matcher, err := loadIgnore(o.FS, root, o.Ignore)
	if err != nil {
		return nil, err
	}

	var (
		files []file
		walk  func(rel string) error
	)
	walk = func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := filepath.Join(root, filepath.FromSlash(rel))
		entries, err := o.FS.ReadDir(dir)
		if err != nil {
			return err
		}
		slices.SortFunc(entries, func(a, b os.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })

		for _, e := range entries {
			child := path.Join(rel, e.Name())
			if e.IsDir() {
				if e.Name() == ".git" || matcher.MatchesPath(child+"/") {
					continue
				}
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			if !e.Type().IsRegular() || matcher.MatchesPath(child) {
				stats.Skipped++
				continue
			}
			info, err := e.Info()
			if err != nil {
				stats.Failed++
				continue
			}
			if o.MaxFileSize > 0 && info.Size() > o.MaxFileSize {
				o.Logger.DebugContext(ctx, "file too large", "path", child, "size", info.Size())
				stats.Skipped++
				continue
			}
			name := filepath.Join(root, filepath.FromSlash(child))
			files = append(files, file{
				path: filepath.ToSlash(name),
				name: name,
				size: info.Size(),
			})
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	return files, nil
}

func loadIgnore(fsys fs.FileSystem, root string, extra []string) (*ignore.GitIgnore, error) {
	var lines []string
	data, err := fs.ReadFile(fsys, filepath.Join(root, ".gitignore"))
	switch {
	case err == nil:
		lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	lines = append(lines, extra...)
	return ignore.CompileIgnoreLines(lines...), nil
}
