package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"drawboard/internal/core/domain"
	"drawboard/pkg/tracing"

	"github.com/fogleman/gg"
)

const (
	DefaultWidth      = 900
	DefaultHeight     = 600
	DefaultBackground = "#ffffff"
)

// Replayer rasterizes a stroke list. The result depends on nothing but the
// strokes and the replayer's own fields, so equal input gives equal pixels.
type Replayer struct {
	Width  int
	Height int
	// Background is painted under the strokes when exporting. Replay itself
	// leaves uncovered pixels transparent so erased areas stay see-through.
	Background string
}

func NewReplayer(width, height int, background string) *Replayer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Replayer{Width: width, Height: height, Background: background}
}

// Replay clears the surface and paints every stroke in order. Draw strokes
// are composited source-over; erase strokes remove alpha wherever they
// cover (destination-out). Strokes with fewer than two points are skipped.
func (r *Replayer) Replay(strokes []domain.Stroke) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	dc := gg.NewContextForRGBA(dst)

	var mask *gg.Context
	for _, s := range strokes {
		if !s.Renderable() {
			continue
		}
		switch s.Tool {
		case domain.ToolErase:
			if mask == nil {
				mask = gg.NewContext(r.Width, r.Height)
			}
			mask.SetColor(color.Transparent)
			mask.Clear()
			trace(mask, s, color.White)
			punch(dst, mask.Image().(*image.RGBA), bounds(s))
		default:
			trace(dc, s, ParseColor(s.Color))
		}
	}
	return dst
}

// ReplayContext is Replay wrapped in a tracing span.
func (r *Replayer) ReplayContext(ctx context.Context, strokes []domain.Stroke) *image.RGBA {
	_, span := tracing.TraceRender(ctx, "raster", len(strokes))
	defer span.End()
	return r.Replay(strokes)
}

// EncodePNG replays strokes over the background and writes a PNG.
func (r *Replayer) EncodePNG(ctx context.Context, w io.Writer, strokes []domain.Stroke) error {
	ctx, span := tracing.TraceRender(ctx, "png", len(strokes))
	defer span.End()

	img := r.ReplayContext(ctx, strokes)
	if r.Background != "" {
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.NewUniform(ParseColor(r.Background)), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, image.Point{}, draw.Over)
		img = flat
	}
	if err := png.Encode(w, img); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func trace(dc *gg.Context, s domain.Stroke, c color.Color) {
	dc.SetColor(c)
	dc.SetLineWidth(s.Size)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.MoveTo(s.Points[0].X, s.Points[0].Y)
	for _, p := range s.Points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

// punch scales every premultiplied channel of dst by the inverse coverage
// of mask within area.
func punch(dst, mask *image.RGBA, area image.Rectangle) {
	area = area.Intersect(dst.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			ma := uint32(mask.Pix[mask.PixOffset(x, y)+3])
			if ma == 0 {
				continue
			}
			keep := 0xff - ma
			i := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				dst.Pix[i+c] = uint8(uint32(dst.Pix[i+c]) * keep / 0xff)
			}
		}
	}
}

// bounds is the pixel rectangle a stroke can touch.
func bounds(s domain.Stroke) image.Rectangle {
	minX, minY := s.Points[0].X, s.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range s.Points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	pad := s.Size/2 + 2
	return image.Rect(int(minX-pad), int(minY-pad), int(maxX+pad)+1, int(maxY+pad)+1)
}
