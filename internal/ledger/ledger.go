// Package ledger is a project's metadata document (info.json): its name,
// creation date, prediction type, champion model and append-only run list.
//
// Updates are an enumerated set of operations. Each Apply re-reads the file
// under an exclusive lock, applies the operations and replaces the file with
// a temp+rename write, so concurrent writers cannot lose each other's runs.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"xgb/internal/errs"
	"xgb/internal/logging"
)

// FileName is the ledger's name inside a project directory.
const FileName = "info.json"

// Update is one ledger operation. The set is closed: SetName, SetCreatedAt,
// SetChampion and AppendRun.
type Update interface {
	apply(*ProjectInfo) error
}

// SetName replaces the project name.
type SetName string

// SetCreatedAt replaces the creation date.
type SetCreatedAt string

// SetChampion replaces the champion model name. The empty string clears it.
type SetChampion string

// AppendRun appends a run record. An empty ID is filled with a fresh UUID and
// an empty RunTime with the current UTC time.
type AppendRun Run

func (u SetName) apply(p *ProjectInfo) error {
	if u == "" {
		return fmt.Errorf("empty name")
	}
	p.Name = string(u)
	return nil
}

func (u SetCreatedAt) apply(p *ProjectInfo) error {
	p.CreatedAt = string(u)
	return nil
}

func (u SetChampion) apply(p *ProjectInfo) error {
	if u == "" {
		p.Champion = nil
		return nil
	}
	s := string(u)
	p.Champion = &s
	return nil
}

func (u AppendRun) apply(p *ProjectInfo) error {
	r := Run(u)
	if r.Name == "" {
		return fmt.Errorf("run has no model name")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RunTime == "" {
		r.RunTime = time.Now().UTC().Format(time.RFC3339)
	}
	p.Models = append(p.Models, r)
	return nil
}

// Ledger is an open handle on one project's info.json.
type Ledger struct {
	path string
	doc  Document
}

// Open loads the ledger at path.
func Open(path string) (*Ledger, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return &Ledger{path: path, doc: doc}, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// Read returns a copy of the current snapshot.
func (l *Ledger) Read() ProjectInfo {
	return l.doc.ProjectInfo.clone()
}

// Apply applies updates in order and persists the result. Either every
// update is written or none is.
func (l *Ledger) Apply(ctx context.Context, updates ...Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock, err := lockFile(l.path + ".lock")
	if err != nil {
		return errs.IO("ledger lock", l.path, err)
	}
	defer unlock()

	doc, err := readDocument(l.path)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := u.apply(&doc.ProjectInfo); err != nil {
			return errs.Config("ledger update", l.path, "%T: %v", u, err)
		}
	}
	if err := writeDocument(l.path, doc); err != nil {
		return err
	}
	// The snapshot is what a fresh Open would see.
	if doc, err = readDocument(l.path); err != nil {
		return err
	}
	l.doc = doc
	logging.New("ledger").Debug("ledger updated", "path", l.path, "updates", len(updates), "runs", len(doc.ProjectInfo.Models))
	return nil
}

func readDocument(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, errs.NotFound("ledger read", path)
		}
		return doc, errs.IO("ledger read", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, errs.Data("ledger read", path, err, "malformed ledger")
	}
	if doc.ProjectInfo.Models == nil {
		doc.ProjectInfo.Models = []Run{}
	}
	return doc, nil
}

// writeDocument replaces path atomically (temp file in the same directory,
// fsync, rename).
func writeDocument(path string, doc Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return errs.Data("ledger write", path, err, "marshal")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+FileName+"-*.tmp")
	if err != nil {
		return errs.IO("ledger write", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errs.IO("ledger write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.IO("ledger write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IO("ledger write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errs.IO("ledger write", path, err)
	}
	return nil
}

// Create writes a fresh ledger at path. It fails if path exists.
func Create(path string, info ProjectInfo) (*Ledger, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errs.AlreadyExists("ledger create", path)
	}
	if info.Models == nil {
		info.Models = []Run{}
	}
	doc := Document{ProjectInfo: info}
	if err := writeDocument(path, doc); err != nil {
		return nil, err
	}
	return &Ledger{path: path, doc: doc}, nil
}
