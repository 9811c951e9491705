package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/matzehuels/depmap/pkg/apkbuild"
	depmaperrors "github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/scanner"
)

func sampleResult() *scanner.Result {
	curl := &apkbuild.Package{
		Name: "curl", Version: "8.9.0", Release: 1, Repo: "main",
		Depends:     []string{"libcurl", "musl"},
		Provides:    []string{"cmd:curl=8.9.0-r1"},
		Subpackages: []string{"libcurl", "curl-doc"},
	}
	musl := &apkbuild.Package{Name: "musl", Version: "1.2.5", Repo: "main"}
	curl.Normalize()
	musl.Normalize()
	return &scanner.Result{
		Root:     "/src/aports",
		Repos:    []string{"main"},
		Packages: map[string]*apkbuild.Package{"curl": curl, "musl": musl},
		Errors:   []scanner.FileError{{Path: "/src/aports/main/x/APKBUILD", Message: "not a package"}},
		ScanTime: 1500 * time.Millisecond,
	}
}

// ignoreErr drops the in-memory cause, which is not persisted.
var ignoreErr = cmpopts.IgnoreFields(scanner.FileError{}, "Err")

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(sampleResult(), nil)

	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", s.ID, err)
	}
	if diff := cmp.Diff(map[string]string{"cmd:curl": "curl"}, s.Provides); diff != "" {
		t.Errorf("Provides mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"libcurl": "curl", "curl-doc": "curl"}, s.Subpackages); diff != "" {
		t.Errorf("Subpackages mismatch (-want +got):\n%s", diff)
	}
	if NewSnapshot(sampleResult(), nil).ID == s.ID {
		t.Error("snapshot IDs repeat")
	}
}

func TestSnapshotJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, NewSnapshot(sampleResult(), nil)); err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"id", "created_at", "root", "repos", "packages", "provides_map", "subpkg_map", "scan_time_ms", "errors"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if string(raw["scan_time_ms"]) != "1500" {
		t.Errorf("scan_time_ms = %s, want 1500", raw["scan_time_ms"])
	}
}

func TestReadSnapshotNormalizes(t *testing.T) {
	in := `{"id":"x","packages":{"zlib":{"name":"zlib","depends":null}}}`
	s, err := ReadSnapshot(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	z := s.Packages["zlib"]
	if z.Depends == nil || z.Subpackages == nil || z.Arch != apkbuild.DefaultArch {
		t.Errorf("record not normalized: %+v", z)
	}
	if s.Repos == nil || s.Errors == nil || s.Provides == nil || s.Subpackages == nil {
		t.Errorf("snapshot not normalized: %+v", s)
	}
}

func TestReadSnapshotInvalid(t *testing.T) {
	if _, err := ReadSnapshot(strings.NewReader("{")); err == nil {
		t.Error("ReadSnapshot accepted truncated input")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	st := NewFileStore(path)
	defer st.Close()

	if _, err := st.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load on empty store: %v, want ErrNoSnapshot", err)
	}

	want := NewSnapshot(sampleResult(), nil)
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got, ignoreErr); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if mode := fi.Mode().Perm(); mode != 0o600 {
		t.Errorf("mode = %o, want 600", mode)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	os.WriteFile(path, []byte("not json"), 0o600)

	_, err := NewFileStore(path).Load(context.Background())
	if !depmaperrors.Is(err, depmaperrors.ErrCodeStore) {
		t.Errorf("Load(corrupt) err = %v, want STORE_ERROR", err)
	}
}

func TestSnapshotResult(t *testing.T) {
	res := NewSnapshot(sampleResult(), nil).Result()
	if res.Successful != 2 || res.Failed != 1 || res.TotalFiles != 3 {
		t.Errorf("counts = %d/%d/%d", res.Successful, res.Failed, res.TotalFiles)
	}
	if res.ScanTime != 1500*time.Millisecond {
		t.Errorf("ScanTime = %v", res.ScanTime)
	}
}

func TestMongoDocument(t *testing.T) {
	s := NewSnapshot(sampleResult(), nil)
	doc, err := newSnapshotDoc(latestID, s)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != "latest" || doc.SnapshotID != s.ID || doc.Packages != 2 {
		t.Errorf("doc = {%s %s %d}", doc.ID, doc.SnapshotID, doc.Packages)
	}
	back, err := doc.snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, back, ignoreErr); diff != "" {
		t.Errorf("document round trip mismatch (-want +got):\n%s", diff)
	}
}
