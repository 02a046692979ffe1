package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"drawboard/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id string, tool domain.Tool, c string, size float64, pts ...domain.Point) domain.Stroke {
	return domain.Stroke{ID: domain.StrokeID(id), Tool: tool, Color: c, Size: size, Points: pts}
}

func alphaAt(img *image.RGBA, x, y int) uint8 {
	return img.RGBAAt(x, y).A
}

func TestReplay_EmptyAndSinglePoint(t *testing.T) {
	r := NewReplayer(100, 80, "")

	empty := r.Replay(nil)
	assert.Equal(t, image.Rect(0, 0, 100, 80), empty.Bounds())

	single := r.Replay([]domain.Stroke{line("a", domain.ToolDraw, "#ff0000", 10, domain.Point{X: 50, Y: 40})})
	for _, v := range single.Pix {
		require.Zero(t, v, "a single-point stroke must not paint")
	}
}

func TestReplay_DrawPaintsStrokeColor(t *testing.T) {
	r := NewReplayer(100, 100, "")
	img := r.Replay([]domain.Stroke{
		line("a", domain.ToolDraw, "#ff0000", 8, domain.Point{X: 10, Y: 50}, domain.Point{X: 90, Y: 50}),
	})

	c := img.RGBAAt(50, 50)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, c)
	assert.Zero(t, alphaAt(img, 50, 10), "pixels off the line stay transparent")
}

func TestReplay_EraseRemovesAlpha(t *testing.T) {
	r := NewReplayer(100, 100, "")
	draw := line("a", domain.ToolDraw, "#0000ff", 20, domain.Point{X: 10, Y: 50}, domain.Point{X: 90, Y: 50})
	erase := line("b", domain.ToolErase, "#ffffff", 10, domain.Point{X: 50, Y: 20}, domain.Point{X: 50, Y: 80})

	img := r.Replay([]domain.Stroke{draw, erase})

	assert.Zero(t, alphaAt(img, 50, 50), "erased crossing is transparent")
	assert.Equal(t, uint8(0xff), alphaAt(img, 20, 50), "rest of the line survives")
}

func TestReplay_OrderMatters(t *testing.T) {
	r := NewReplayer(60, 60, "")
	red := line("r", domain.ToolDraw, "#ff0000", 10, domain.Point{X: 5, Y: 30}, domain.Point{X: 55, Y: 30})
	green := line("g", domain.ToolDraw, "#00ff00", 10, domain.Point{X: 30, Y: 5}, domain.Point{X: 30, Y: 55})

	redTop := r.Replay([]domain.Stroke{green, red})
	greenTop := r.Replay([]domain.Stroke{red, green})

	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, redTop.RGBAAt(30, 30))
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, greenTop.RGBAAt(30, 30))
}

func TestReplay_Deterministic(t *testing.T) {
	r := NewReplayer(120, 90, "")
	strokes := []domain.Stroke{
		line("a", domain.ToolDraw, "#10b981", 4, domain.Point{X: 3, Y: 4}, domain.Point{X: 60, Y: 70}, domain.Point{X: 110, Y: 20}),
		line("b", domain.ToolErase, "#000", 6, domain.Point{X: 0, Y: 0}, domain.Point{X: 120, Y: 90}),
		line("c", domain.ToolDraw, "#f59e0b", 2.5, domain.Point{X: 50, Y: 5}, domain.Point{X: 51, Y: 85}),
	}

	assert.Equal(t, r.Replay(strokes).Pix, r.Replay(strokes).Pix)
}

func TestReplay_ClippedEraseOutsideCanvas(t *testing.T) {
	r := NewReplayer(50, 50, "")
	img := r.Replay([]domain.Stroke{
		line("a", domain.ToolDraw, "#000000", 4, domain.Point{X: 0, Y: 25}, domain.Point{X: 50, Y: 25}),
		line("b", domain.ToolErase, "#000000", 30, domain.Point{X: -100, Y: -100}, domain.Point{X: -40, Y: -40}),
	})
	assert.Equal(t, uint8(0xff), alphaAt(img, 25, 25))
}

func TestEncodePNG_FlattensOntoBackground(t *testing.T) {
	r := NewReplayer(40, 30, "#ffffff")
	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(context.Background(), &buf, nil))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	rr, g, b, a := img.At(5, 5).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff, 0xffff}, []uint32{rr, g, b, a})
}

func TestExportPDF(t *testing.T) {
	r := NewReplayer(0, 0, "")
	assert.Equal(t, DefaultWidth, r.Width)
	assert.Equal(t, DefaultHeight, r.Height)

	var buf bytes.Buffer
	err := r.ExportPDF(context.Background(), &buf, []domain.Stroke{
		line("a", domain.ToolDraw, "#3b82f6", 3, domain.Point{X: 1, Y: 1}, domain.Point{X: 200, Y: 100}),
		line("b", domain.ToolErase, "", 8, domain.Point{X: 50, Y: 50}, domain.Point{X: 60, Y: 60}),
		line("c", domain.ToolDraw, "#000", 3, domain.Point{X: 1, Y: 1}),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}, ParseColor("#3b82f6"))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xaa, B: 0x00, A: 0xff}, ParseColor("#fa0"))
	assert.Equal(t, color.NRGBA{A: 0xff}, ParseColor("chartreuse"))
	assert.Equal(t, color.NRGBA{A: 0xff}, ParseColor(""))
}
