package spectest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/natefinch/atomic"
	"golang.org/x/term"
)

// SuppressionNote is written to the diagnostic stream after a run with Report.Suppression.
const SuppressionNote = `Extensions were enabled, so assert_malformed tests of the base suite were ignored.
Re-run without any extensions enabled for the full coverage of the base suite.`

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

// UseColor returns true if w is a terminal.
func UseColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteList writes the name of each test case, in the format of `--list`.
func WriteList(w io.Writer, cases []*TestCase) {
	for _, tc := range cases {
		fmt.Fprintf(w, "%s: test\n", tc.Name)
	}
	fmt.Fprintf(w, "\n%d tests\n", len(cases))
}

// WriteText writes a line per result sorted by name, the details of failures and a summary.
func (r *Report) WriteText(w io.Writer, color bool) {
	paint := func(s, c string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}
	statusColor := [...]string{StatusPassed: colorGreen, StatusFailed: colorRed, StatusIgnored: colorYellow}

	results := r.Results()
	fmt.Fprintf(w, "\nrunning %d tests\n", len(results))

	var failures []*Result
	for _, res := range results {
		status := paint(res.Status.String(), statusColor[res.Status])
		if res.Ignored && res.Status != StatusIgnored {
			status += " (ignored)"
		}
		fmt.Fprintf(w, "test %s ... %s\n", res.Name, status)
		if res.Status == StatusFailed {
			failures = append(failures, res)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintln(w, "\nfailures:")
		for _, res := range failures {
			fmt.Fprintf(w, "\n---- %s ----\n%v\n", res.Name, res.Err)
		}
		fmt.Fprintln(w, "\nfailures:")
		for _, res := range failures {
			fmt.Fprintf(w, "    %s\n", res.Name)
		}
	}

	outcome := paint("ok", colorGreen)
	if r.Failed() {
		outcome = paint("FAILED", colorRed)
	}
	fmt.Fprintf(w, "\ntest result: %s. %d passed; %d failed; %d ignored; %d filtered out\n\n",
		outcome, r.Passed, r.Failures, r.Ignored, r.FilteredOut)
}

type jsonReport struct {
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Ignored     int          `json:"ignored"`
	FilteredOut int          `json:"filtered_out"`
	Suppression bool         `json:"suppression"`
	Results     []jsonResult `json:"results"`
}

type jsonResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Ignored bool   `json:"ignored,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON returns the report in the canonical JSON form of RFC 8785, so that reports of equal runs are equal
// bytes.
func (r *Report) MarshalJSON() ([]byte, error) {
	results := r.Results()
	jr := jsonReport{
		Passed:      r.Passed,
		Failed:      r.Failures,
		Ignored:     r.Ignored,
		FilteredOut: r.FilteredOut,
		Suppression: r.Suppression,
		Results:     make([]jsonResult, 0, len(results)),
	}
	for _, res := range results {
		e := jsonResult{Name: res.Name, Status: res.Status.String(), Ignored: res.Ignored}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		jr.Results = append(jr.Results, e)
	}

	b, err := json.Marshal(jr)
	if err != nil {
		return nil, err
	}
	return jsoncanonicalizer.Transform(b)
}

// WriteJSON writes the JSON report to the path, replacing any file there atomically.
func (r *Report) WriteJSON(path string) error {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}
