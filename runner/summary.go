package runner

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/shibukawa/sqlverify/queryaction"
)

var (
	headerFmt      = color.New(color.FgBlue, color.Bold).SprintfFunc()
	passFmt        = color.New(color.FgGreen).SprintfFunc()
	failFmt        = color.New(color.FgRed, color.Bold).SprintfFunc()
	skipFmt        = color.New(color.FgYellow).SprintfFunc()
	kindFmt        = color.New(color.FgMagenta).SprintfFunc()
	expectValueFmt = color.New(color.BgGreen, color.FgBlack).SprintfFunc()
	actualValueFmt = color.New(color.BgRed, color.FgBlack).SprintfFunc()
)

// Result is the outcome of a single check document.
type Result struct {
	Name     string
	Path     string
	Success  bool
	Retries  int
	Kind     queryaction.Kind
	Duration time.Duration
	Error    error
}

// Summary collects the results of a run.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
	Results  []Result
}

func (s *Summary) add(result Result) {
	s.Results = append(s.Results, result)

	if result.Success {
		s.Passed++
	} else {
		s.Failed++
	}
}

// PrintSummary writes the per-document results and totals to w.
func PrintSummary(w io.Writer, summary *Summary) {
	fmt.Fprintf(w, "\n%s\n", headerFmt("=== Check Summary ==="))

	for _, result := range summary.Results {
		if result.Success {
			fmt.Fprintf(w, "%s %s (%.3fs, retries: %d)\n",
				passFmt("PASS"), result.Name, result.Duration.Seconds(), result.Retries)

			continue
		}

		fmt.Fprintf(w, "%s %s (%.3fs, retries: %d) %s\n",
			failFmt("FAIL"), result.Name, result.Duration.Seconds(), result.Retries, kindFmt("[%s]", result.Kind))

		if result.Path != "" && result.Path != result.Name {
			fmt.Fprintf(w, "    File: %s\n", result.Path)
		}

		writeFailureDetail(w, result.Error)
	}

	fmt.Fprintf(w, "\nChecks: %d total, %s, %s",
		summary.Total, passFmt("%d passed", summary.Passed), failFmt("%d failed", summary.Failed))

	if summary.Skipped > 0 {
		fmt.Fprintf(w, ", %s", skipFmt("%d skipped", summary.Skipped))
	}

	fmt.Fprintf(w, "\nDuration: %.3fs\n", summary.Duration.Seconds())

	if summary.Failed == 0 && summary.Skipped == 0 {
		fmt.Fprintf(w, "\n%s\n", passFmt("All checks passed!"))
	} else {
		fmt.Fprintf(w, "\n%s\n", failFmt("Some checks failed!"))
	}
}

func writeFailureDetail(w io.Writer, err error) {
	if err == nil {
		return
	}

	var mismatch *queryaction.ValidationMismatchError
	if errors.As(err, &mismatch) {
		fmt.Fprintf(w, "    Column: %s\n", mismatch.Column)
		fmt.Fprintf(w, "    + expected: %s\n", expectValueFmt("%s", mismatch.Expected))
		fmt.Fprintf(w, "    - actual:   %s\n", actualValueFmt("%s", mismatch.Actual))

		return
	}

	fmt.Fprintf(w, "    Error: %v\n", err)
}
