// Package datastore is the shared dataset catalog: a flat directory of
// {name}.csv files. Every query reads the directory, so the catalog cannot go
// stale when files change out-of-band.
package datastore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xgb/internal/errs"
	"xgb/internal/frame"
	"xgb/internal/logging"
	"xgb/internal/names"
)

const ext = ".csv"

// Store implements the dataset catalog rooted at Dir.
type Store struct {
	Dir string
}

// Summary describes a stored dataset.
type Summary struct {
	Name    string
	Rows    int
	Columns []string
	Size    int64
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.IO("dataset store", dir, err)
	}
	return &Store{Dir: dir}, nil
}

// Path returns the file path a dataset named name is stored at.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+ext)
}

// Add copies source into the store as {name}.csv.
func (s *Store) Add(ctx context.Context, source, name string) error {
	const op = "dataset add"
	if err := names.Validate(name); err != nil {
		return errs.Config(op, name, "%v", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		return errs.AlreadyExists(op, name)
	}

	src, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return &errs.Error{Kind: errs.KindNotFound, Op: op, Name: source, Err: err}
		}
		return errs.IO(op, source, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.Dir, "."+name+"-*.tmp")
	if err != nil {
		return errs.IO(op, name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return errs.IO(op, name, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IO(op, name, err)
	}
	// Link fails if another process added the name since the Exists check.
	if err := os.Link(tmpPath, s.Path(name)); err != nil {
		if os.IsExist(err) {
			return errs.AlreadyExists(op, name)
		}
		if err := os.Rename(tmpPath, s.Path(name)); err != nil {
			return errs.IO(op, name, err)
		}
	}
	logging.New("datastore").Info("dataset added", "name", name, "source", source)
	return nil
}

// Remove deletes a dataset.
func (s *Store) Remove(ctx context.Context, name string) error {
	const op = "dataset remove"
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound(op, name)
	}
	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return errs.NotFound(op, name)
		}
		return errs.IO(op, name, err)
	}
	logging.New("datastore").Info("dataset removed", "name", name)
	return nil
}

// Retrieve loads a dataset.
func (s *Store) Retrieve(ctx context.Context, name string) (*frame.Frame, error) {
	const op = "dataset retrieve"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if names.Validate(name) != nil {
		return nil, errs.NotFound(op, name)
	}
	f, err := frame.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound(op, name)
		}
		return nil, errs.Data(op, name, err, "unparsable csv")
	}
	logging.New("datastore").Debug("dataset retrieved", "name", name, "rows", f.Len())
	return f, nil
}

// Describe loads a dataset and summarises its shape.
func (s *Store) Describe(ctx context.Context, name string) (*Summary, error) {
	f, err := s.Retrieve(ctx, name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return nil, errs.IO("dataset describe", name, err)
	}
	return &Summary{Name: name, Rows: f.Len(), Columns: f.Columns, Size: info.Size()}, nil
}

// List returns the dataset names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.IO("dataset list", s.Dir, err)
	}
	var out []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ext) || strings.HasPrefix(n, ".") {
			continue
		}
		out = append(out, strings.TrimSuffix(n, ext))
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether name is in the store.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	if names.Validate(name) != nil {
		return false, nil
	}
	info, err := os.Stat(s.Path(name))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errs.IO("dataset exists", name, err)
}
