package track

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"flatlands/internal/common"
)

// Row is one waypoint in source (image) coordinates.
type Row struct {
	X, Y  float64
	Width float64
}

// columnHeader is written after the key=value lines; Load skips it.
var columnHeader = []string{"x", "y", "width", "segment_length", "direction"}

// WriteTable writes rows as a track table that Load can read back. Segment
// lengths are measured in source units and directions in the flipped local
// frame, each towards the next row and wrapping from the last row to the
// first.
func WriteTable(w io.Writer, h Header, rows []Row) error {
	if len(rows) < MinPoints {
		return fmt.Errorf("%w: got %d rows, need %d", ErrTooFewPoints, len(rows), MinPoints)
	}

	if _, err := fmt.Fprintf(w, "scale=%s\nheight=%s\n", formatFloat(h.Scale), formatFloat(h.Height)); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columnHeader); err != nil {
		return err
	}

	for i, r := range rows {
		next := rows[(i+1)%len(rows)]
		a := common.Vec2{X: r.X, Y: h.Height - r.Y}
		b := common.Vec2{X: next.X, Y: h.Height - next.Y}

		rec := []string{
			formatFloat(r.X),
			formatFloat(r.Y),
			formatFloat(r.Width),
			formatFloat(common.Distance(a, b)),
			formatFloat(common.NormalizeAngle(common.Bearing(a, b))),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
