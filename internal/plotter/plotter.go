// Package plotter renders static PNG summaries of a trial's derived events,
// the offline counterpart of the HTML chart routes. Batch runs drop these
// next to the CSV exports so a report can be reviewed without the server.
package plotter

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gazelab/gaze.report/internal/gaze"
)

var (
	fixationColor = color.RGBA{R: 0x35, G: 0xb7, B: 0x79, A: 0xff}
	saccadeColor  = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	rateColor     = color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff}
	zeroLineColor = color.RGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}
)

// RenderGazePath writes a PNG of a trial's fixation positions over its
// saccade segments, axes in screen pixels. Fixation glyph radius grows with
// fixation duration so long dwells stand out.
func RenderGazePath(fixations []gaze.FixationEvent, saccades []gaze.SaccadeEvent, cfg gaze.Config, path string) error {
	p := plot.New()
	p.Title.Text = "Gaze Path " + trialLabel(fixations, saccades)
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min = 0
	p.X.Max = cfg.ScreenWidthPX
	p.Y.Min = 0
	p.Y.Max = cfg.ScreenHeightPX

	for i, s := range saccades {
		seg := plotter.XYs{
			{X: s.StartXPX, Y: s.StartYPX},
			{X: s.EndXPX, Y: s.EndYPX},
		}
		line, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		line.Color = saccadeColor
		line.Width = vg.Points(1)
		p.Add(line)
		if i == 0 {
			p.Legend.Add("saccades", line)
		}
	}

	if len(fixations) > 0 {
		pts := make(plotter.XYs, len(fixations))
		for i, f := range fixations {
			pts[i] = plotter.XY{X: f.XPX, Y: f.YPX}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  fixationColor,
				Radius: vg.Points(2 + math.Sqrt(math.Max(fixations[i].DurationMS, 0))/4),
				Shape:  draw.CircleGlyph{},
			}
		}
		p.Add(scatter)
		p.Legend.Add("fixations", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save gaze path plot: %w", err)
	}
	return nil
}

// RenderPupilTrace writes a PNG of a trial's pupil change rate over time with
// a zero reference line. Samples whose timestamp or rate is NA are skipped;
// the trace simply has a hole where the tracker lost the eye.
func RenderPupilTrace(pupils []gaze.PupilSample, path string) error {
	p := plot.New()
	p.Title.Text = "Pupil Change Rate " + pupilLabel(pupils)
	p.X.Label.Text = "time (ms)"
	p.Y.Label.Text = "change rate"

	pts := make(plotter.XYs, 0, len(pupils))
	for _, s := range pupils {
		if math.IsNaN(s.TimestampMS) || math.IsNaN(s.ChangeRate) {
			continue
		}
		pts = append(pts, plotter.XY{X: s.TimestampMS, Y: s.ChangeRate})
	}

	if len(pts) > 0 {
		zero := plotter.XYs{
			{X: pts[0].X, Y: 0},
			{X: pts[len(pts)-1].X, Y: 0},
		}
		zeroLine, err := plotter.NewLine(zero)
		if err != nil {
			return err
		}
		zeroLine.Color = zeroLineColor
		zeroLine.Width = vg.Points(1)
		p.Add(zeroLine)
		p.Legend.Add("baseline", zeroLine)

		rateLine, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		rateLine.Color = rateColor
		rateLine.Width = vg.Points(1)
		p.Add(rateLine)
		p.Legend.Add("change rate", rateLine)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save pupil trace plot: %w", err)
	}
	return nil
}

func trialLabel(fixations []gaze.FixationEvent, saccades []gaze.SaccadeEvent) string {
	if len(fixations) > 0 {
		return fixations[0].Trial.String()
	}
	if len(saccades) > 0 {
		return saccades[0].Trial.String()
	}
	return ""
}

func pupilLabel(pupils []gaze.PupilSample) string {
	if len(pupils) > 0 {
		return pupils[0].Trial.String()
	}
	return ""
}
