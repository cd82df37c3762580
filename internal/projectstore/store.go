// Package projectstore is the catalog of projects: one directory per project
// under a root, each cloned from the template for its prediction type.
package projectstore

import (
	"context"
	"embed"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"xgb/internal/errs"
	"xgb/internal/ledger"
	"xgb/internal/logging"
	"xgb/internal/names"
	"xgb/internal/project"
)

//go:embed all:templates
var embedded embed.FS

// DefaultTemplates returns the built-in project templates.
func DefaultTemplates() fs.FS {
	sub, _ := fs.Sub(embedded, "templates")
	return sub
}

// Store implements the project catalog rooted at Dir.
type Store struct {
	Dir string
	// Templates holds one directory per prediction type.
	Templates fs.FS

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTemplateDir reads templates from dir instead of the built-in set.
func WithTemplateDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.Templates = os.DirFS(dir)
		}
	}
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.IO("project store", dir, err)
	}
	s := &Store{Dir: dir, Templates: DefaultTemplates(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if len(TemplateTypes(s.Templates)) == 0 {
		return nil, errs.Config("project store", dir, "no project templates found (want classification/ or regression/ holding %s)", ledger.FileName)
	}
	return s, nil
}

// Path returns the directory of project name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Add creates project name from the ptype template. The tree is assembled in
// a hidden temp directory and renamed into place once its ledger carries the
// name and creation date.
func (s *Store) Add(ctx context.Context, name string, ptype ledger.PredictionType) error {
	const op = "project add"
	if err := names.Validate(name); err != nil {
		return errs.Config(op, name, "%v", err)
	}
	if !ptype.Valid() {
		return errs.Config(op, name, "unknown prediction type %q", ptype)
	}
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		return errs.AlreadyExists(op, name)
	}

	if _, err := fs.Stat(s.Templates, string(ptype)); err != nil {
		return errs.Config(op, name, "no %s template: %v", ptype, err)
	}

	tmp, err := os.MkdirTemp(s.Dir, "."+name+"-*")
	if err != nil {
		return errs.IO(op, name, err)
	}
	defer os.RemoveAll(tmp)

	if err := copyTree(s.Templates, string(ptype), tmp); err != nil {
		return errs.IO(op, name, err)
	}
	l, err := ledger.Open(filepath.Join(tmp, ledger.FileName))
	if err != nil {
		return errs.Config(op, name, "template %s has no usable %s: %v", ptype, ledger.FileName, err)
	}
	if got := l.Read().PredictionType; got != ptype {
		return errs.Config(op, name, "template %s declares prediction type %q", ptype, got)
	}
	created := s.now().UTC().Format(time.DateOnly)
	if err := l.Apply(ctx, ledger.SetCreatedAt(created), ledger.SetName(name)); err != nil {
		return err
	}
	// The lock file is an artefact of the Apply above.
	os.Remove(filepath.Join(tmp, ledger.FileName+".lock"))

	if err := os.Rename(tmp, s.Path(name)); err != nil {
		if os.IsExist(err) {
			return errs.AlreadyExists(op, name)
		}
		return errs.IO(op, name, err)
	}
	logging.New("projectstore").Info("project added", "name", name, "type", ptype, "created_at", created)
	return nil
}

// copyTree copies directory root of fsys into dst.
func copyTree(fsys fs.FS, root, dst string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

// Remove deletes project name and everything under it.
func (s *Store) Remove(ctx context.Context, name string) error {
	const op = "project remove"
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound(op, name)
	}
	if err := os.RemoveAll(s.Path(name)); err != nil {
		return errs.IO(op, name, err)
	}
	logging.New("projectstore").Info("project removed", "name", name)
	return nil
}

// List returns the project names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.IO("project list", s.Dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether project name is in the store.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if names.Validate(name) != nil {
		return false, nil
	}
	info, err := os.Stat(s.Path(name))
	if err == nil {
		return info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errs.IO("project exists", name, err)
}

// Open returns the project name, training from data.
func (s *Store) Open(ctx context.Context, name string, data project.Datasets) (*project.Project, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound("project open", name)
	}
	return project.Open(s.Path(name), data)
}

// TemplateTypes lists the prediction types fsys has a template for.
func TemplateTypes(fsys fs.FS) []ledger.PredictionType {
	var out []ledger.PredictionType
	for _, t := range []ledger.PredictionType{ledger.Classification, ledger.Regression} {
		if _, err := fs.Stat(fsys, path.Join(string(t), ledger.FileName)); err == nil {
			out = append(out, t)
		}
	}
	return out
}
