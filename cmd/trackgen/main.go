// cmd/trackgen extracts the centerline of a track image and writes it as a
// track table.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"flatlands/internal/common"
	"flatlands/internal/logging"
	"flatlands/internal/track"

	"gocv.io/x/gocv"
)

func main() {
	logger := logging.NewLoggerTo(os.Stderr, "trackgen")

	imagePath := flag.String("image", "", "Track image to read (white tarmac, black walls, red start)")
	synthetic := flag.Bool("synthetic", false, "Use the built-in oval instead of an image")
	outPath := flag.String("out", "", "Track table to write, stdout when empty")
	pngPath := flag.String("png", "", "Optional debug image with the extracted centerline")
	step := flag.Float64("step", track.DefaultStepSize, "Distance between centerline points, in pixels")
	scale := flag.Float64("scale", 1, "Pixels per track unit")
	blur := flag.Int("blur", 5, "Median blur kernel size applied before extraction, 0 disables")
	flag.Parse()

	if *imagePath == "" && !*synthetic {
		logger.Error("Either -image or -synthetic is required")
		os.Exit(2)
	}
	if *scale <= 0 {
		logger.Error("Scale must be positive", "scale", *scale)
		os.Exit(2)
	}

	img, err := loadImage(*imagePath, *synthetic, *blur)
	if err != nil {
		logger.Failure("Failed to read track image", err, "image", *imagePath)
		os.Exit(1)
	}

	grid, sx, sy, ok := track.GridFromImage(img)
	if !ok {
		logger.Error("Image has no drivable surface", "image", *imagePath)
		os.Exit(1)
	}
	logger.Info("Found start", "x", sx, "y", sy, "width", grid.Width, "height", grid.Height)

	points := track.ExtractCenterline(grid, sx, sy, *step)
	if len(points) < track.MinPoints {
		logger.Error("Centerline too short", "points", len(points))
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Failure("Failed to create track table", err, "out", *outPath)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	header := track.Header{Scale: *scale, Height: float64(grid.Height)}
	if err := track.WriteTable(out, header, track.TableRows(points)); err != nil {
		logger.Failure("Failed to write track table", err)
		os.Exit(1)
	}
	logger.Info("Wrote track table", "points", len(points), "out", *outPath)

	if *pngPath != "" {
		if err := writeDebugImage(*pngPath, img, points); err != nil {
			logger.Failure("Failed to write debug image", err, "png", *pngPath)
			os.Exit(1)
		}
	}
}

// loadImage reads the track image through OpenCV and median-filters it so
// isolated noise pixels do not break the tarmac.
func loadImage(path string, synthetic bool, ksize int) (image.Image, error) {
	var mat gocv.Mat
	if synthetic {
		m, err := gocv.ImageToMatRGB(track.SyntheticOval(track.OvalWidth, track.OvalHeight))
		if err != nil {
			return nil, err
		}
		mat = m
	} else {
		mat = gocv.IMRead(path, gocv.IMReadColor)
		if mat.Empty() {
			mat.Close()
			return nil, logging.WrapError(os.ErrNotExist, "read %s", path)
		}
	}
	defer mat.Close()

	if ksize > 0 {
		if ksize%2 == 0 {
			ksize++
		}
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.MedianBlur(mat, &blurred, ksize)
		return blurred.ToImage()
	}
	return mat.ToImage()
}

// writeDebugImage draws the centerline points and their widths over the
// source image.
func writeDebugImage(path string, src image.Image, points []track.CenterPoint) error {
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	mark := color.RGBA{255, 0, 255, 255}
	rib := color.RGBA{0, 160, 255, 255}
	for i, p := range points {
		// Rib across the band, perpendicular to the segment to the next point.
		dir := points[(i+1)%len(points)].Position.Sub(p.Position).Normalize()
		normal := common.Vec2{X: -dir.Y, Y: dir.X}
		for t := -p.Width / 2; t <= p.Width/2; t++ {
			q := p.Position.Add(normal.Scale(t))
			img.Set(int(q.X), int(q.Y), rib)
		}

		cx, cy := int(p.Position.X), int(p.Position.Y)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				img.Set(cx+dx, cy+dy, mark)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
