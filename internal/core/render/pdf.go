package render

import (
	"context"
	"fmt"
	"io"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/pkg/tracing"

	"github.com/jung-kurt/gofpdf"
)

// ExportPDF writes a single page the size of the canvas, one point per
// pixel. Erase strokes are painted in the background color since PDF has
// no destination-out.
func (r *Replayer) ExportPDF(ctx context.Context, w io.Writer, strokes []domain.Stroke) error {
	ctx, span := tracing.TraceRender(ctx, "pdf", len(strokes))
	defer span.End()

	width, height := float64(r.Width), float64(r.Height)
	orientation := "L"
	if height > width {
		orientation = "P"
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetTitle("Drawing board", true)
	pdf.SetCreator("drawboard", true)
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()

	bg := ParseColor(DefaultBackground)
	if r.Background != "" {
		bg = ParseColor(r.Background)
	}
	pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
	pdf.Rect(0, 0, width, height, "F")

	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	for _, s := range strokes {
		if !s.Renderable() {
			continue
		}
		c := ParseColor(s.Color)
		if s.Tool == domain.ToolErase {
			c = bg
		}
		pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		pdf.SetLineWidth(s.Size)
		pdf.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			pdf.LineTo(p.X, p.Y)
		}
		pdf.DrawPath("D")
	}

	if err := pdf.Output(w); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
