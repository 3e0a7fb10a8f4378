// Package progress renders scan progress on stderr so it never mixes
// with report output on stdout.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows activity while files are being fingerprinted. The total
// is unknown up front, so it spins instead of filling.
type Spinner struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewSpinner creates a spinner with the given label.
func NewSpinner(label string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{bar: bar, label: label}
}

// Tick advances the spinner by one processed file. Safe for concurrent use.
func (s *Spinner) Tick() {
	s.bar.Add(1)
}

// FinishSuccess clears the spinner without leaving output behind.
func (s *Spinner) FinishSuccess() {
	s.bar.Finish()
	s.bar.Clear()
}

// FinishError clears the spinner and reports the failure on stderr.
func (s *Spinner) FinishError(err error) {
	s.bar.Finish()
	s.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s error: %v\n", s.label, err)
}
