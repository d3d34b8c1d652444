// Package importer turns bank exports into normalized statements.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/studiops/bankrecon/internal/model"
)

// Parser converts the raw bytes of a bank export into a Statement.
type Parser interface {
	Parse(content []byte) (*model.Statement, error)
	Format() string
}

// Registry holds parsers by file type.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file waiting in an inbox directory.
type FileInfo struct {
	Name string
	Path string
	Type model.FileType
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(strings.TrimPrefix(format, "."))]
}

// Formats lists the registered formats in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
// now is the reference clock for spreadsheets that carry no due date;
// nil means time.Now.
func DefaultRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	r := NewRegistry()
	r.Register(&OFXParser{})
	r.Register(&CSVParser{})
	r.Register(&XLSXParser{Now: now})
	r.Register(&XLSParser{Now: now})
	return r
}

// processedDir is the subdirectory that receives ingested files.
const processedDir = "processed"

// Scan returns statement files with a supported extension in dir.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ft, ok := model.ParseFileType(filepath.Ext(e.Name()))
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Type: ft,
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir into dir/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
