package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	detectdupes "github.com/mattkeenan/detectdupes/pkg"
)

// spinner shows scan progress on stderr. A nil spinner does nothing.
type spinner struct {
	bar *progressbar.ProgressBar
}

func newSpinner(w io.Writer) *spinner {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionClearOnFinish(),
	)
	return &spinner{bar: bar}
}

func (s *spinner) update(stats detectdupes.ScanStatistics) {
	if s == nil {
		return
	}
	s.bar.Describe(fmt.Sprintf("Scanning (%d duplicates, %d hashed)", stats.FilesDetected, stats.HashesComputed))
	s.bar.Set64(stats.FilesChecked)
}

// clear removes the spinner line so other output starts on a clean line
func (s *spinner) clear() {
	if s == nil {
		return
	}
	s.bar.Clear()
}

func (s *spinner) finish() {
	if s == nil {
		return
	}
	s.bar.Finish()
	s.bar.Clear()
}
