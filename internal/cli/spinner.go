package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RunWithSpinner runs fn while showing a progress spinner on stderr. The
// spinner is skipped in quiet mode and for structured output.
func RunWithSpinner(opts Options, message string, fn func() error) error {
	if opts.Quiet || opts.Format == OutputFormatJSON || opts.Format == OutputFormatYAML {
		return fn()
	}
	return runWithSpinner(os.Stderr, message, fn)
}

func runWithSpinner(w io.Writer, message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()

	err := fn()
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗ "+message) + "\n"
	}
	s.Stop()
	return err
}
