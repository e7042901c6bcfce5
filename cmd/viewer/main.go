// cmd/viewer drives a vehicle around a track in a window.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"

	"flatlands/internal/agent"
	"flatlands/internal/common"
	"flatlands/internal/config"
	"flatlands/internal/logging"
	"flatlands/internal/runner"
	"flatlands/internal/sim"
	"flatlands/internal/track"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	fastTicksPerFrame = 200  // Ticks per frame in fast mode
	viewScaleMargin   = 0.95 // Margin for fitting the track in the window
	traceEvery        = 2    // Record the trace every N ticks
	minCarPixels      = 10   // Cars smaller than this on screen are drawn at this length
	maxLapHistory     = 4
)

// Track surface colors
var (
	colorTarmac = color.RGBA{80, 80, 80, 255}
	colorGravel = color.RGBA{20, 20, 20, 255}
	colorWall   = color.RGBA{10, 10, 10, 255}
	colorStart  = color.RGBA{255, 0, 0, 255}
	colorDir    = color.RGBA{255, 255, 0, 255}
)

// Visualization colors
var (
	colorRib        = color.RGBA{50, 155, 50, 40}
	colorCenterline = color.RGBA{120, 120, 120, 255}
	colorCar        = color.RGBA{255, 0, 0, 255}
	colorCarHeading = color.RGBA{255, 255, 0, 255}
	colorUpcoming   = color.RGBA{0, 200, 255, 255}
	colorBestLap    = color.RGBA{50, 255, 50, 150}
	colorCurrentLap = color.RGBA{255, 255, 0, 200}
	colorHUD        = color.RGBA{0, 0, 0, 180}
	traceColors     = [maxLapHistory]color.RGBA{
		{255, 0, 255, 255},
		{190, 0, 190, 150},
		{130, 0, 130, 70},
		{70, 0, 70, 20},
	}
)

type Game struct {
	Env        *sim.Env
	Driver     agent.Agent
	Track      *track.Track
	TrackImage *ebiten.Image // optional raster background
	ImageShift float64       // local y of the raster's top row
	Log        *logging.Logger

	Width, Height int
	TicksPerFrame int
	Fast          bool

	obs      sim.Observation
	episodes int
	lastLaps int

	bestLapPath    []common.Vec2
	currentLapPath []common.Vec2
	lapHistory     [][]common.Vec2

	viewScale          float64
	viewOffX, viewOffY float64
	viewMinX, viewMaxY float64
}

func (g *Game) reset() {
	g.obs = g.Env.ResetRandom()
	g.lastLaps = 0
	g.currentLapPath = g.currentLapPath[:0]
	g.episodes++
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Fast = !g.Fast
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reset()
	}

	ticks := g.TicksPerFrame
	if g.Fast {
		ticks = fastTicksPerFrame
	}
	for i := 0; i < ticks; i++ {
		g.tick()
	}
	return nil
}

func (g *Game) tick() {
	if g.obs.Done {
		laps := g.Env.Laps()
		g.Log.Info("Episode finished", "episode", g.episodes, "steps", g.obs.Step, "laps", laps.Laps, "best_lap_steps", laps.Best)
		g.reset()
		return
	}

	g.obs = g.Env.Step(g.Driver.Act(g.obs))
	if g.obs.Step%traceEvery == 0 {
		info := g.Env.Info()
		g.currentLapPath = append(g.currentLapPath, common.Vec2{X: info.X, Y: info.Y})
	}

	laps := g.Env.Laps()
	if laps.Laps == g.lastLaps {
		return
	}

	// Completed a lap
	lap := make([]common.Vec2, len(g.currentLapPath))
	copy(lap, g.currentLapPath)
	if laps.Best == laps.Last {
		g.bestLapPath = lap
	}
	g.lapHistory = append([][]common.Vec2{lap}, g.lapHistory...)
	if len(g.lapHistory) > maxLapHistory {
		g.lapHistory = g.lapHistory[:maxLapHistory]
	}
	g.currentLapPath = g.currentLapPath[:0]
	g.lastLaps = laps.Laps
}

// toScreen maps local coordinates (y up) to window pixels (y down).
func (g *Game) toScreen(p common.Vec2) (float32, float32) {
	return float32((p.X-g.viewMinX)*g.viewScale + g.viewOffX),
		float32((g.viewMaxY-p.Y)*g.viewScale + g.viewOffY)
}

func (g *Game) strokePath(screen *ebiten.Image, path []common.Vec2, width float32, clr color.Color) {
	for j := 0; j+1 < len(path); j++ {
		x1, y1 := g.toScreen(path[j])
		x2, y2 := g.toScreen(path[j+1])
		vector.StrokeLine(screen, x1, y1, x2, y2, width, clr, true)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.TrackImage != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-g.viewMinX, g.viewMaxY-g.ImageShift)
		op.GeoM.Scale(g.viewScale, g.viewScale)
		op.GeoM.Translate(g.viewOffX, g.viewOffY)
		screen.DrawImage(g.TrackImage, op)
	}

	// Ribs across the track at each waypoint, using the recorded width
	path := g.Track.Path()
	for i := 0; i < g.Track.Len(); i++ {
		wp := g.Track.Point(i)
		half := wp.Width / 2
		left := common.Offset(wp.Position, half, wp.Direction-math.Pi/2)
		right := common.Offset(wp.Position, half, wp.Direction+math.Pi/2)
		x1, y1 := g.toScreen(left)
		x2, y2 := g.toScreen(right)
		vector.StrokeLine(screen, x1, y1, x2, y2, 1, colorRib, true)
	}
	g.strokePath(screen, append(path, path[0]), 1, colorCenterline)

	g.strokePath(screen, g.bestLapPath, 3, colorBestLap)
	for i, lap := range g.lapHistory {
		g.strokePath(screen, lap, 2, traceColors[i])
	}
	g.strokePath(screen, g.currentLapPath, 2, colorCurrentLap)

	info := g.Env.Info()
	pos := common.Vec2{X: info.X, Y: info.Y}

	// The waypoints the driver currently observes
	if n := len(g.obs.Upcoming); n > 0 {
		for _, i := range g.Track.UpcomingIndices(pos, info.Heading, n) {
			x, y := g.toScreen(path[i])
			vector.FillCircle(screen, x, y, 3, colorUpcoming, true)
		}
	}

	g.drawCar(screen, pos, info.Heading, info.Wheelbase, info.TrackWidth)
	g.drawHUD(screen)
}

// drawCar draws the vehicle as a rectangle rotated to its heading.
func (g *Game) drawCar(screen *ebiten.Image, pos common.Vec2, heading, length, width float64) {
	if length <= 0 {
		length, width = 2, 1
	}
	if length*g.viewScale < minCarPixels {
		k := minCarPixels / (length * g.viewScale)
		length, width = length*k, width*k
	}
	halfL, halfW := length/2, width/2

	corners := [4][2]float64{
		{halfL, halfW},
		{halfL, -halfW},
		{-halfL, -halfW},
		{-halfL, halfW},
	}

	var path vector.Path
	for i, c := range corners {
		p := common.Offset(pos, c[0], heading)
		p = common.Offset(p, c[1], heading+math.Pi/2)
		sx, sy := g.toScreen(p)
		if i == 0 {
			path.MoveTo(sx, sy)
		} else {
			path.LineTo(sx, sy)
		}
	}
	path.Close()

	var cs ebiten.ColorScale
	cs.ScaleWithColor(colorCar)
	vector.FillPath(screen, &path, nil, &vector.DrawPathOptions{
		AntiAlias:  true,
		ColorScale: cs,
	})

	hx, hy := g.toScreen(pos)
	tx, ty := g.toScreen(common.Offset(pos, halfL*1.5, heading))
	vector.StrokeLine(screen, hx, hy, tx, ty, 2, colorCarHeading, true)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	vector.FillRect(screen, 0, 0, 200, 210, colorHUD, true)

	laps := g.Env.Laps()
	msg := "STATUS MONITOR\n"
	msg += "----------------\n"
	msg += fmt.Sprintf("Driver:  %s\n", g.Driver)
	msg += fmt.Sprintf("Episode: %d\n", g.episodes)
	msg += fmt.Sprintf("Step:    %d\n", g.obs.Step)
	msg += fmt.Sprintf("Speed:   %.2f\n", g.obs.Velocity)
	msg += fmt.Sprintf("Offset:  %.2f\n", g.obs.Offset)
	msg += fmt.Sprintf("Laps:    %d\n", laps.Laps)
	msg += fmt.Sprintf("Current: %d steps\n", laps.Current)
	msg += fmt.Sprintf("Last:    %d steps\n", laps.Last)
	msg += fmt.Sprintf("Best:    %d steps\n", laps.Best)
	if g.Fast {
		msg += "[High speed]\n"
	} else {
		msg += "[Real-time speed]\n"
	}
	msg += "S = speed, R = reset"
	ebitenutil.DebugPrint(screen, msg)

	panelW := 220
	x := g.Width - panelW
	vector.FillRect(screen, float32(x), 0, float32(panelW), 60, colorHUD, true)
	specs := fmt.Sprintf("TRACK\n-----\nPoints: %d\nLength: %.0f", g.Track.Len(), g.Track.PathLength())
	ebitenutil.DebugPrintAt(screen, specs, x+10, 0)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.Width, g.Height
}

// fit scales and centers the track bounds in the window.
func (g *Game) fit(b track.Bounds) {
	w, h := b.MaxX-b.MinX, b.MaxY-b.MinY
	if w <= 0 || h <= 0 {
		g.viewScale = 1
		return
	}

	g.viewScale = math.Min(float64(g.Width)/w, float64(g.Height)/h) * viewScaleMargin
	g.viewMinX, g.viewMaxY = b.MinX, b.MaxY
	g.viewOffX = (float64(g.Width) - w*g.viewScale) / 2
	g.viewOffY = (float64(g.Height) - h*g.viewScale) / 2
}

// RenderGrid draws a raster track as an ebiten image.
func RenderGrid(g *track.Grid) *ebiten.Image {
	img := ebiten.NewImage(g.Width, g.Height)

	pixels := make([]byte, g.Width*g.Height*4)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := (y*g.Width + x) * 4

			var c color.RGBA
			switch g.Get(x, y).Type {
			case track.CellTarmac:
				c = colorTarmac
			case track.CellGravel:
				c = colorGravel
			case track.CellStart:
				c = colorStart
			case track.CellDirection:
				c = colorDir
			default:
				c = colorWall
			}

			pixels[idx] = c.R
			pixels[idx+1] = c.G
			pixels[idx+2] = c.B
			pixels[idx+3] = 255
		}
	}

	img.WritePixels(pixels)
	return img
}

func main() {
	logger := logging.NewLoggerTo(os.Stderr, "viewer")

	configPath := flag.String("config", "config.json", "Path to configuration file")
	trackPath := flag.String("track", "", "Track table to drive on (overrides the configuration)")
	agentKind := flag.String("agent", "", "Driver: pursuit or random (overrides the configuration)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			logger.Failure("Failed to load configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
	}
	if *trackPath != "" {
		cfg.Track.Path = *trackPath
	}
	if *agentKind != "" {
		cfg.Env.Agent = *agentKind
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Failure("Invalid configuration", err)
		os.Exit(1)
	}

	tr, err := runner.LoadTrack(cfg.Track, logger)
	if err != nil {
		logger.Failure("Failed to load track", err, "track", cfg.Track.Path)
		os.Exit(1)
	}

	env, driver, err := runner.Setup(cfg, tr, logger)
	if err != nil {
		logger.Failure("Failed to set up simulation", err)
		os.Exit(1)
	}

	game := &Game{
		Env:           env,
		Driver:        driver,
		Track:         tr,
		Log:           logger,
		Width:         cfg.Viewer.Width,
		Height:        cfg.Viewer.Height,
		TicksPerFrame: cfg.Viewer.TicksPerFrame,
	}
	game.fit(tr.Bounds())

	// The built-in oval comes from a raster we can show underneath.
	if cfg.Track.Path == "" && !cfg.Track.Geodetic {
		grid, _, _, ok := track.GridFromImage(track.SyntheticOval(track.OvalWidth, track.OvalHeight))
		if ok {
			game.TrackImage = RenderGrid(grid)
			game.ImageShift = track.OvalHeight
		}
	}
	game.reset()

	ebiten.SetWindowSize(game.Width, game.Height)
	ebiten.SetWindowTitle(cfg.Viewer.Title)

	if err := ebiten.RunGame(game); err != nil {
		logger.Failure("Viewer stopped", err)
		os.Exit(1)
	}
}
