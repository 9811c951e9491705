// Package store persists scan snapshots so that query commands and the API
// server can rebuild the graph without rescanning.
//
// A [Snapshot] holds every parsed record plus the alias maps that were in
// effect when it was taken. Two [Store] backends exist: [FileStore] writes a
// single JSON file and [MongoStore] keeps the latest snapshot and a history
// in a MongoDB collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	"github.com/matzehuels/depmap/pkg/resolve"
	"github.com/matzehuels/depmap/pkg/scanner"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Store saves and loads the current snapshot.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Snapshot is the persisted form of a scan.
type Snapshot struct {
	ID          string                       `json:"id"`
	CreatedAt   time.Time                    `json:"created_at"`
	Root        string                       `json:"root"`
	Repos       []string                     `json:"repos"`
	Packages    map[string]*apkbuild.Package `json:"packages"`
	Provides    map[string]string            `json:"provides_map"`
	Subpackages map[string]string            `json:"subpkg_map"`
	ScanTime    Millis                       `json:"scan_time_ms"`
	Errors      []scanner.FileError          `json:"errors"`
}

// NewSnapshot captures res and the alias maps of ix. A nil ix is built
// from res.Packages.
func NewSnapshot(res *scanner.Result, ix *resolve.Index) *Snapshot {
	if ix == nil {
		ix = resolve.NewIndex(res.Packages)
	}
	s := &Snapshot{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Root:        res.Root,
		Repos:       res.Repos,
		Packages:    res.Packages,
		Provides:    ix.Provides(),
		Subpackages: ix.Subpackages(),
		ScanTime:    Millis(res.ScanTime),
		Errors:      res.Errors,
	}
	s.normalize()
	return s
}

// Result rebuilds a scan result from the snapshot.
func (s *Snapshot) Result() *scanner.Result {
	return &scanner.Result{
		Root:       s.Root,
		Repos:      s.Repos,
		Packages:   s.Packages,
		Errors:     s.Errors,
		ScanTime:   time.Duration(s.ScanTime),
		TotalFiles: len(s.Packages) + len(s.Errors),
		Successful: len(s.Packages),
		Failed:     len(s.Errors),
	}
}

func (s *Snapshot) normalize() {
	if s.Repos == nil {
		s.Repos = []string{}
	}
	if s.Packages == nil {
		s.Packages = map[string]*apkbuild.Package{}
	}
	if s.Provides == nil {
		s.Provides = map[string]string{}
	}
	if s.Subpackages == nil {
		s.Subpackages = map[string]string{}
	}
	if s.Errors == nil {
		s.Errors = []scanner.FileError{}
	}
	for name, p := range s.Packages {
		if p == nil {
			delete(s.Packages, name)
			continue
		}
		p.Normalize()
	}
}

// WriteSnapshot encodes s as indented JSON.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ReadSnapshot decodes a snapshot. Absent lists and maps come back empty.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.normalize()
	return &s, nil
}

// Millis is a duration encoded as integer milliseconds.
type Millis time.Duration

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*m = Millis(time.Duration(ms) * time.Millisecond)
	return nil
}
