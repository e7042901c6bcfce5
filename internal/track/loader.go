package track

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"flatlands/internal/common"
)

// Column layout of a track table row.
const (
	colX = iota
	colY
	colWidth
	colSegment
	colDirection
	numColumns
)

// headerLines is the number of key=value lines before the rows.
const headerLines = 2

// LoadError reports an unreadable or malformed track source.
type LoadError struct {
	Path string // empty when loading from a reader
	Line int    // 1-based source line, 0 when not tied to a line
	Err  error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = "track source"
	}
	if e.Line > 0 {
		return fmt.Sprintf("load %s: line %d: %v", src, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Header holds the normalisation parameters at the top of a track table.
type Header struct {
	Scale  float64
	Height float64
}

// LoadFile opens and parses the track table at path.
func LoadFile(path string, opts ...Option) (*Track, error) {
	o := newOptions(opts)
	log := o.log.Component("track")
	log.Debug("opening track", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Load(f, opts...)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		log.Error("failed to load track", "path", path, "error", err.Error())
		return nil, err
	}
	return t, nil
}

// Load parses a track table from r.
//
// The first two lines are "scale=<value>" and "height=<value>". An optional
// column header follows, then comma separated rows of
// x, y, width, segment length, direction. Positions and segment lengths are
// divided by scale and y is flipped against height; width and direction are
// kept as recorded.
func Load(r io.Reader, opts ...Option) (*Track, error) {
	o := newOptions(opts)

	br := bufio.NewReader(r)
	header, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	rows, err := readRows(br)
	if err != nil {
		return nil, err
	}
	if len(rows) < MinPoints {
		return nil, &LoadError{Err: fmt.Errorf("%w: got %d rows, need %d", ErrTooFewPoints, len(rows), MinPoints)}
	}

	points := make([]Waypoint, len(rows))
	for i, row := range rows {
		points[i] = Waypoint{
			Position: common.Vec2{
				X: row[colX] / header.Scale,
				// Flip y: table rows use image coordinates.
				Y: (header.Height - row[colY]) / header.Scale,
			},
			Width:         row[colWidth],
			Direction:     row[colDirection],
			SegmentLength: row[colSegment] / header.Scale,
		}
	}

	if o.geodetic {
		o.log.Debug("projecting geodetic path to local coordinates")
		projectLocal(points)
	}

	topts := append(append([]Option{}, opts...), withScale(header.Scale))
	t, err := New(points, topts...)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	o.log.Debug("found track data", "points", t.Len(), "scale", header.Scale, "height", header.Height)

	return t, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	var h Header
	keys := [headerLines]string{"scale", "height"}
	vals := [headerLines]*float64{&h.Scale, &h.Height}

	for i, key := range keys {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				err = fmt.Errorf("missing %s line", key)
			}
			return h, &LoadError{Line: i + 1, Err: err}
		}

		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), key) {
			return h, &LoadError{Line: i + 1, Err: fmt.Errorf("expected %s=<value>, got %q", key, strings.TrimSpace(line))}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return h, &LoadError{Line: i + 1, Err: fmt.Errorf("bad %s: %w", key, err)}
		}
		if !finite(f) {
			return h, &LoadError{Line: i + 1, Err: fmt.Errorf("bad %s: %w: %g", key, ErrNonFinite, f)}
		}
		*vals[i] = f
	}

	if h.Scale == 0 {
		return h, &LoadError{Line: 1, Err: errors.New("scale must be non-zero")}
	}
	return h, nil
}

func readRows(r io.Reader) ([][numColumns]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][numColumns]float64
	for first := true; ; first = false {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Err: err}
		}
		line, _ := cr.FieldPos(0)
		line += headerLines

		// A non-numeric first record is a column header.
		if first {
			if _, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64); err != nil {
				continue
			}
		}

		if len(rec) != numColumns {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("expected %d columns, got %d", numColumns, len(rec))}
		}

		var row [numColumns]float64
		for c := 0; c < numColumns; c++ {
			f, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, &LoadError{Line: line, Err: fmt.Errorf("column %d: %w", c+1, err)}
			}
			if !finite(f) {
				return nil, &LoadError{Line: line, Err: fmt.Errorf("column %d: %w: %g", c+1, ErrNonFinite, f)}
			}
			row[c] = f
		}
		rows = append(rows, row)
	}

	return rows, nil
}
