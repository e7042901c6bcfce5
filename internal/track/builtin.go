package track

import (
	"bytes"
	"errors"
	"image"
)

// Size of the built-in oval image, in pixels.
const (
	OvalWidth  = 800
	OvalHeight = 600
)

// FromImage extracts the centerline of a track image and loads it as a
// track table would be, one unit per pixel.
func FromImage(img image.Image, step float64, opts ...Option) (*Track, error) {
	grid, sx, sy, ok := GridFromImage(img)
	if !ok {
		return nil, errors.New("track: image has no drivable surface")
	}

	points := ExtractCenterline(grid, sx, sy, step)
	if len(points) < MinPoints {
		return nil, ErrTooFewPoints
	}

	var buf bytes.Buffer
	header := Header{Scale: 1, Height: float64(img.Bounds().Dy())}
	if err := WriteTable(&buf, header, TableRows(points)); err != nil {
		return nil, err
	}
	return Load(&buf, opts...)
}

// BuiltinOval returns the track extracted from SyntheticOval.
func BuiltinOval(opts ...Option) (*Track, error) {
	return FromImage(SyntheticOval(OvalWidth, OvalHeight), DefaultStepSize, opts...)
}
