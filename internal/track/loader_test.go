package track

import (
	"bytes"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flatlands/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareTable = `scale=2
height=200
x,y,width,segment_length,direction
0,200,10,200,1.5707963267948966
200,200,10,200,0
200,0,10,200,4.71238898038469
0,0,10,200,3.141592653589793
`

func TestLoad(t *testing.T) {
	tr, err := Load(strings.NewReader(squareTable))
	require.NoError(t, err)

	require.Equal(t, 4, tr.Len())
	want := []common.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	for i, p := range tr.Path() {
		assert.InDelta(t, want[i].X, p.X, eps)
		assert.InDelta(t, want[i].Y, p.Y, eps)
	}

	assert.Equal(t, []float64{10, 10, 10, 10}, tr.Widths(), "width is not scaled")
	assert.InDelta(t, 100.0, tr.Point(0).SegmentLength, eps)
	assert.InDelta(t, math.Pi/2, tr.Point(0).Direction, eps)
	assert.InDelta(t, 400.0, tr.PathLength(), eps)
	assert.Equal(t, 2.0, tr.Scale())
}

func TestLoadWithoutColumnHeader(t *testing.T) {
	src := "scale=1\nheight=0\n0,0,1,1,0\n1,0,1,1,0\n1,-1,1,1,0\n"
	tr, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, common.Vec2{X: 1, Y: 1}, tr.Point(2).Position)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.csv")
	require.NoError(t, os.WriteFile(path, []byte(squareTable), 0o644))

	tr, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Len())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		wantErr  error
	}{
		{"empty", "", 1, nil},
		{"missing height", "scale=1\n", 2, nil},
		{"wrong key", "size=1\nheight=2\n", 1, nil},
		{"bad scale", "scale=abc\nheight=2\n", 1, nil},
		{"zero scale", "scale=0\nheight=2\n", 1, nil},
		{"bad number", "scale=1\nheight=0\nx,y,w,l,d\n0,0,1,1,0\n1,zz,1,1,0\n1,1,1,1,0\n", 5, nil},
		{"short row", "scale=1\nheight=0\n0,0,1,1,0\n1,0,1\n1,1,1,1,0\n", 4, nil},
		{"too few rows", "scale=1\nheight=0\n0,0,1,1,0\n1,0,1,1,0\n", 0, ErrTooFewPoints},
		{"long row", "scale=1\nheight=0\n0,0,1,1,0\n1,0,1,1,0,7\n1,1,1,1,0\n", 4, nil},
		{"nan field", "scale=1\nheight=0\n0,0,1,1,0\nNaN,0,1,1,0\n1,1,1,1,0\n0,1,1,1,0\n", 4, ErrNonFinite},
		{"inf segment", "scale=1\nheight=0\n0,0,1,1,0\n1,0,1,Inf,0\n1,1,1,1,0\n", 4, ErrNonFinite},
		{"negative inf direction", "scale=1\nheight=0\n0,0,1,1,0\n1,0,1,1,-Inf\n1,1,1,1,0\n", 4, ErrNonFinite},
		{"nan scale", "scale=NaN\nheight=0\n", 1, ErrNonFinite},
		{"inf height", "scale=1\nheight=+Inf\n", 2, ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "want *LoadError, got %T", err)
			assert.Equal(t, tt.wantLine, le.Line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")
	_, err := LoadFile(path)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestLoadFileReportsPathOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("scale=1\n"), 0o644))

	_, err := LoadFile(path)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Path)
	assert.Equal(t, 2, le.Line)
}

func TestLoadGeodetic(t *testing.T) {
	// height=0 with negated latitudes undoes the y flip.
	src := `scale=1
height=0
139.70,-35.60,10,0,0
139.71,-35.60,10,0,0
139.71,-35.61,10,0,0
139.70,-35.61,10,0,0
`
	tr, err := Load(strings.NewReader(src), WithGeodetic())
	require.NoError(t, err)

	assert.Equal(t, common.Vec2{X: 0, Y: 0}, tr.Start())
	p1, p2 := tr.Point(1), tr.Point(2)
	assert.InDelta(t, 904.1, p1.Position.X, 2)
	assert.InDelta(t, 0.0, p1.Position.Y, eps)
	assert.InDelta(t, 904.1, p1.SegmentLength, 2)
	assert.InDelta(t, math.Pi/2, tr.Point(0).Direction, eps)
	assert.InDelta(t, 1112.0, p2.Position.Y, 3)
	assert.InDelta(t, 1112.0, p2.SegmentLength, 3, "segment lengths are recomputed in metres")
}

func TestWriteTableRoundTrip(t *testing.T) {
	rows := []Row{
		{X: 0, Y: 100, Width: 8},
		{X: 100, Y: 100, Width: 9},
		{X: 100, Y: 0, Width: 10},
		{X: 0, Y: 0, Width: 11},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Header{Scale: 1, Height: 100}, rows))

	tr, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, 4, tr.Len())

	wantPos := []common.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	wantDir := []float64{math.Pi / 2, 0, 3 * math.Pi / 2, math.Pi}
	for i := 0; i < tr.Len(); i++ {
		wp := tr.Point(i)
		assert.InDelta(t, wantPos[i].X, wp.Position.X, eps)
		assert.InDelta(t, wantPos[i].Y, wp.Position.Y, eps)
		assert.InDelta(t, 100.0, wp.SegmentLength, eps)
		assert.InDelta(t, wantDir[i], common.NormalizeAngle(wp.Direction), 1e-9)
		assert.Equal(t, rows[i].Width, wp.Width)
	}
}

func TestWriteTableTooFewRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, Header{Scale: 1}, []Row{{}, {}})
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.Zero(t, buf.Len())
}
