package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sample = `x,y,x2,y2,score,name
0,0,1,10,0.5,a
10,5,2,20,1.5,b
-2,8,3,30,1,c
`

func TestRead(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), Columns{X2: "x2", Y2: "y2", Value: "score", Label: "name"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", ds.Len())
	}
	if !ds.HasSecondary() || !ds.HasValue() || !ds.HasLabel() {
		t.Errorf("expected all optional columns to be present")
	}
	p := ds.Points[1]
	if p.Index != 1 || p.X != 10 || p.Y != 5 || p.Y2 != 20 || p.Value != 1.5 || p.Label != "b" {
		t.Errorf("unexpected point %+v", p)
	}

	b := ds.Bounds
	if b.MinX != -2 || b.MaxX != 10 || b.MinY != 0 || b.MaxY != 8 {
		t.Errorf("unexpected bounds %+v", b)
	}
	if b.MinY2 != 10 || b.MaxY2 != 30 || b.MinValue != 0.5 || b.MaxValue != 1.5 {
		t.Errorf("unexpected secondary bounds %+v", b)
	}
}

func TestRead_OptionalColumnsAbsent(t *testing.T) {
	ds, err := Read(strings.NewReader("x,y\n1,2\n"), Columns{Value: "score"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ds.HasValue() || ds.HasSecondary() {
		t.Error("absent optional columns must not be reported")
	}
}

func TestRead_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		empty   bool
	}{
		{name: "empty file", content: "", empty: true},
		{name: "header only", content: "x,y\n", empty: true},
		{name: "missing column", content: "a,b\n1,2\n"},
		{name: "bad number", content: "x,y\n1,abc\n"},
		{name: "non-finite", content: "x,y\n1,NaN\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.content), Columns{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrEmptyDataset); got != tc.empty {
				t.Errorf("errors.Is(ErrEmptyDataset) = %v, want %v (%v)", got, tc.empty, err)
			}
		})
	}
}

func TestLoad_Compressed(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte(sample))
	gw.Close()

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	zw.Write([]byte(sample))
	zw.Close()

	files := map[string][]byte{
		"plain.csv":      []byte(sample),
		"points.csv.gz":  gz.Bytes(),
		"points.csv.zst": zs.Bytes(),
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, content, 0o644); err != nil {
				t.Fatal(err)
			}
			ds, err := Load("sample", path, Columns{})
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if ds.ID != "sample" || ds.Path != path || ds.Len() != 3 {
				t.Errorf("unexpected dataset %s %s %d", ds.ID, ds.Path, ds.Len())
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("x", filepath.Join(t.TempDir(), "none.csv"), Columns{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}
