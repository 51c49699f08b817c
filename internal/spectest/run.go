package spectest

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Status is the result of a test case.
type Status byte

const (
	StatusPassed Status = iota
	StatusFailed
	// StatusIgnored is a case that was not run.
	StatusIgnored
)

var statusNames = [...]string{
	StatusPassed:  "ok",
	StatusFailed:  "FAILED",
	StatusIgnored: "ignored",
}

func (s Status) String() string {
	return statusNames[s]
}

// Result is the result of a test case.
type Result struct {
	Name   string
	Status Status
	// Ignored is true for an ignored case, even if it was run.
	Ignored bool
	// Err is the failure of a StatusFailed case.
	Err error
}

// RunOptions configure Run.
type RunOptions struct {
	// Jobs is the count of cases run concurrently. Defaults to runtime.NumCPU.
	Jobs int
	// RunIgnored runs ignored cases. Their results are reported but never fail the run.
	RunIgnored bool
	// Filter skips the cases whose name doesn't contain it, or doesn't equal it when Exact.
	Filter string
	Exact  bool
	ValidateOptions
}

// RunOptions returns the options of Run.
func (c *Config) RunOptions() RunOptions {
	return RunOptions{
		Jobs:            c.Jobs,
		RunIgnored:      c.RunIgnored,
		Filter:          c.Filter,
		Exact:           c.Exact,
		ValidateOptions: c.ValidateOptions(),
	}
}

func (o *RunOptions) matches(name string) bool {
	switch {
	case o.Filter == "":
		return true
	case o.Exact:
		return name == o.Filter
	default:
		return strings.Contains(name, o.Filter)
	}
}

// Report accumulates the results of a run. It is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	results map[string]*Result

	Passed, Failures, Ignored, FilteredOut int
	// Suppression is Corpus.Suppression.
	Suppression bool
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{results: map[string]*Result{}}
}

// Add records the result of a test case.
func (r *Report) Add(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[res.Name] = res
	switch {
	case res.Ignored:
		r.Ignored++
	case res.Status == StatusFailed:
		r.Failures++
	default:
		r.Passed++
	}
}

// Result returns the result of the named test case, or nil if it was not recorded.
func (r *Report) Result(name string) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[name]
}

// Results returns all results sorted by name.
func (r *Report) Results() []*Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	ret := make([]*Result, 0, len(r.results))
	for _, res := range r.results {
		ret = append(ret, res)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// Failed returns true if any case that isn't ignored failed, which fails the run.
func (r *Report) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Failures > 0
}

// Run validates the test cases with the codec on opts.Jobs goroutines.
//
// Cancelling ctx stops dispatching cases. The report then has the results of the cases run so far, and the error
// is ctx.Err().
func Run[M any](ctx context.Context, codec Codec[M], cases []*TestCase, opts RunOptions) (*Report, error) {
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}

	report := NewReport()
	work := make(chan *TestCase)
	var wg sync.WaitGroup
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		go func() {
			defer wg.Done()
			for tc := range work {
				report.Add(runCase(codec, tc, opts.ValidateOptions))
			}
		}()
	}

	var err error
	filteredOut := 0
Dispatch:
	for _, tc := range cases {
		switch {
		case !opts.matches(tc.Name):
			filteredOut++
			continue
		case tc.Ignored && !opts.RunIgnored:
			report.Add(&Result{Name: tc.Name, Status: StatusIgnored, Ignored: true})
			continue
		}

		if err = ctx.Err(); err != nil {
			break Dispatch
		}
		select {
		case work <- tc:
		case <-ctx.Done():
			err = ctx.Err()
			break Dispatch
		}
	}
	close(work)
	wg.Wait()
	report.FilteredOut = filteredOut
	return report, err
}

func runCase[M any](codec Codec[M], tc *TestCase, opts ValidateOptions) *Result {
	res := &Result{Name: tc.Name, Ignored: tc.Ignored}
	if err := Validate(codec, tc.Module, tc.Expected, opts); err != nil {
		res.Status, res.Err = StatusFailed, err
	}
	return res
}
