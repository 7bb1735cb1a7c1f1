// Package dataset loads point sets from local CSV files. Files ending in
// .gz or .zst are decompressed on the fly.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrEmptyDataset is returned for a file without data rows.
var ErrEmptyDataset = errors.New("dataset: no points")

// Columns names the CSV header fields to read. X and Y are required; the
// secondary pair, Value and Label are optional.
type Columns struct {
	X, Y   string
	X2, Y2 string
	Value  string
	Label  string
}

// Point is one row. Points are used by pointer so that identical
// coordinates remain distinct values.
type Point struct {
	Index  int
	X, Y   float64
	X2, Y2 float64
	Value  float64
	Label  string
}

// Accessors for the plot.
func PointX(p *Point) float64  { return p.X }
func PointY(p *Point) float64  { return p.Y }
func PointX2(p *Point) float64 { return p.X2 }
func PointY2(p *Point) float64 { return p.Y2 }

// Bounds is the data extent of a dataset.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinY2      float64
	MaxY2      float64
	MinValue   float64
	MaxValue   float64
}

// Dataset is a loaded point file.
type Dataset struct {
	ID     string
	Path   string
	Points []*Point
	Bounds Bounds

	hasSecondary bool
	hasValue     bool
	hasLabel     bool
}

// HasSecondary reports whether the x2/y2 columns were present.
func (d *Dataset) HasSecondary() bool { return d.hasSecondary }

// HasValue reports whether the value column was present.
func (d *Dataset) HasValue() bool { return d.hasValue }

// HasLabel reports whether the label column was present.
func (d *Dataset) HasLabel() bool { return d.hasLabel }

// Len returns the number of points.
func (d *Dataset) Len() int { return len(d.Points) }

// Load reads the dataset at path.
func Load(id, path string, cols Columns) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", id, err)
	}
	defer f.Close()

	r, closeFn, err := decompress(f, path)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", id, err)
	}
	defer closeFn()

	ds, err := Read(r, cols)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", id, err)
	}
	ds.ID = id
	ds.Path = path
	return ds, nil
}

func decompress(r io.Reader, path string) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	}
	return r, func() {}, nil
}

// Read parses CSV with a header row from r.
func Read(r io.Reader, cols Columns) (*Dataset, error) {
	if cols.X == "" {
		cols.X = "x"
	}
	if cols.Y == "" {
		cols.Y = "y"
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	column := func(name string, required bool) (int, error) {
		if name == "" {
			return -1, nil
		}
		i, ok := idx[name]
		if !ok {
			if required {
				return -1, fmt.Errorf("missing column %q", name)
			}
			return -1, nil
		}
		return i, nil
	}

	var ix, iy, ix2, iy2, iv, il int
	if ix, err = column(cols.X, true); err != nil {
		return nil, err
	}
	if iy, err = column(cols.Y, true); err != nil {
		return nil, err
	}
	if ix2, err = column(cols.X2, false); err != nil {
		return nil, err
	}
	if iy2, err = column(cols.Y2, false); err != nil {
		return nil, err
	}
	if iv, err = column(cols.Value, false); err != nil {
		return nil, err
	}
	if il, err = column(cols.Label, false); err != nil {
		return nil, err
	}

	ds := &Dataset{
		hasSecondary: ix2 >= 0 && iy2 >= 0,
		hasValue:     iv >= 0,
		hasLabel:     il >= 0,
	}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p := &Point{Index: len(ds.Points)}
		if p.X, err = parseField(rec, ix); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.X, err)
		}
		if p.Y, err = parseField(rec, iy); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.Y, err)
		}
		if ds.hasSecondary {
			if p.X2, err = parseField(rec, ix2); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, cols.X2, err)
			}
			if p.Y2, err = parseField(rec, iy2); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, cols.Y2, err)
			}
		}
		if ds.hasValue {
			if p.Value, err = parseField(rec, iv); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, cols.Value, err)
			}
		}
		if ds.hasLabel && il < len(rec) {
			p.Label = rec[il]
		}
		ds.Points = append(ds.Points, p)
	}
	if len(ds.Points) == 0 {
		return nil, ErrEmptyDataset
	}
	ds.Bounds = computeBounds(ds.Points)
	return ds, nil
}

func parseField(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return 0, errors.New("missing field")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", rec[i])
	}
	return v, nil
}

func computeBounds(points []*Point) Bounds {
	b := Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
		MinY2: math.Inf(1), MaxY2: math.Inf(-1),
		MinValue: math.Inf(1), MaxValue: math.Inf(-1),
	}
	for _, p := range points {
		b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
		b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
		b.MinY2, b.MaxY2 = math.Min(b.MinY2, p.Y2), math.Max(b.MaxY2, p.Y2)
		b.MinValue, b.MaxValue = math.Min(b.MinValue, p.Value), math.Max(b.MaxValue, p.Value)
	}
	return b
}
