package experiment

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/floats"

	"github.com/turtacn/LatentMol/pkg/errors"
)

const (
	histWidth  = 800
	histHeight = 500
	histMargin = 60.0
)

// WriteScoreHistogram renders a PNG histogram of scores to path. It is a
// quick-look artifact for eyeballing the objective distribution of a run,
// not a publication plot.
func WriteScoreHistogram(path, title string, scores []float64, bins int) error {
	if len(scores) == 0 {
		return errors.InvalidParam("histogram needs at least one score")
	}
	if bins < 1 {
		return errors.Newf(errors.ErrCodeInvalidParam, "histogram bin count must be positive, got %d", bins)
	}
	for i, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidParam, "score at row %d is not finite", i)
		}
	}

	lo, hi := floats.Min(scores), floats.Max(scores)
	if lo == hi {
		// Single-valued batch: widen the range so the bar is visible.
		lo, hi = lo-0.5, hi+0.5
	}
	binWidth := (hi - lo) / float64(bins)

	counts := make([]int, bins)
	for _, v := range scores {
		idx := int((v - lo) / binWidth)
		if idx >= bins {
			// hi itself closes the last bin.
			idx = bins - 1
		}
		counts[idx]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	dc := gg.NewContext(histWidth, histHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotW := float64(histWidth) - 2*histMargin
	plotH := float64(histHeight) - 2*histMargin
	baseY := float64(histHeight) - histMargin

	dc.SetRGB(0.25, 0.45, 0.70)
	barW := plotW / float64(bins)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		h := plotH * float64(c) / float64(maxCount)
		dc.DrawRectangle(histMargin+float64(i)*barW, baseY-h, barW-1, h)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)
	dc.DrawLine(histMargin, histMargin, histMargin, baseY)
	dc.DrawLine(histMargin, baseY, float64(histWidth)-histMargin, baseY)
	dc.Stroke()

	// Tick and title text render with the context's built-in face, so no
	// font file has to ship with the binary.
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", lo), histMargin, baseY+16, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", hi), float64(histWidth)-histMargin, baseY+16, 0.5, 0.5)
	dc.DrawStringAnchored("0", histMargin-22, baseY, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%d", maxCount), histMargin-22, histMargin, 0.5, 0.5)
	if title != "" {
		dc.DrawStringAnchored(title, float64(histWidth)/2, histMargin/2, 0.5, 0.5)
	}

	if err := dc.SavePNG(path); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOFailure, "writing "+path)
	}
	return nil
}
