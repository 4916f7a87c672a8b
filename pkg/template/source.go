package template

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ErrNotFound is matched by errors.Is for every missing template.
var ErrNotFound = errors.New("template not found")

// NotFoundError reports a template identifier no source could resolve.
type NotFoundError struct {
	Name string
	Err  error // underlying provider error, if any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(msgNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotFound, e.Err}
	}
	return []error{ErrNotFound}
}

// Source maps a template identifier to its text.
type Source interface {
	Load(ctx context.Context, name string) (string, error)
}

// Lister is implemented by sources that can enumerate their templates.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, name string) (string, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// MapSource serves templates from memory.
type MapSource map[string]string

// Load returns the text stored under name.
func (m MapSource) Load(_ context.Context, name string) (string, error) {
	text, ok := m[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return text, nil
}

// List returns the stored names in sorted order.
func (m MapSource) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FSSource serves templates from a file system such as os.DirFS or an
// embed.FS. Ext, when set, is appended to names that have no extension.
type FSSource struct {
	FS  fs.FS
	Ext string
}

// NewFSSource creates a file system source.
func NewFSSource(fsys fs.FS, ext string) *FSSource {
	return &FSSource{FS: fsys, Ext: ext}
}

// Path returns the file path name resolves to.
func (s *FSSource) Path(name string) string {
	p := path.Clean(strings.TrimPrefix(name, "/"))
	if s.Ext != "" && path.Ext(p) == "" {
		p += s.Ext
	}
	return p
}

// Load reads the template file for name.
func (s *FSSource) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := s.Path(name)
	if !fs.ValidPath(p) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	data, err := fs.ReadFile(s.FS, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Name: name, Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template %q: %w", name, err)
	}
	return string(data), nil
}

// List walks the file system and returns the identifiers of all templates,
// with Ext stripped.
func (s *FSSource) List(ctx context.Context) ([]string, error) {
	var names []string
	err := fs.WalkDir(s.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if s.Ext != "" {
			if path.Ext(p) != s.Ext {
				return nil
			}
			p = strings.TrimSuffix(p, s.Ext)
		}
		names = append(names, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return names, nil
}

// Overlay returns a source trying each non-nil source in order and falling
// through on ErrNotFound.
func Overlay(sources ...Source) Source {
	var live multiSource
	for _, s := range sources {
		if s != nil {
			live = append(live, s)
		}
	}
	return live
}

type multiSource []Source

func (m multiSource) Load(ctx context.Context, name string) (string, error) {
	for _, s := range m {
		text, err := s.Load(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return text, err
	}
	return "", &NotFoundError{Name: name}
}
