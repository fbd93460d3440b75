package util

import (
	"io"

	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

// Progress bar that advances once per completed stage.
type StageProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// Create new stage progress bar with custom options.
func NewStageProgress(out io.Writer, name string, count int) *StageProgress {
	p := mpb.New(mpb.WithOutput(out), mpb.WithWidth(40))
	bar := p.New(int64(count),
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 2, C: decor.DidentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncSpace),
		),
	)

	return &StageProgress{p: p, bar: bar}
}

// Mark one stage as complete.
func (s *StageProgress) Done() {
	s.bar.Increment()
}

// Stop the bar early, leaving it on screen.
func (s *StageProgress) Abort() {
	s.bar.Abort(false)
}

// Wait for the bar to finish rendering.
func (s *StageProgress) Wait() {
	s.p.Wait()
}
