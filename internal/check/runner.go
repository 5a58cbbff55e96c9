package check

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of checking one file.
type Outcome struct {
	Path string
	Err  error
}

func (o Outcome) Passed() bool {
	return o.Err == nil
}

// Summary counts the outcomes of a run.
type Summary struct {
	Passes   int
	Failures int
}

func (s Summary) AllPassed() bool {
	return s.Failures == 0
}

// Summarize partitions outcomes into passes and failures.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		if o.Passed() {
			s.Passes++
		} else {
			s.Failures++
		}
	}
	return s
}

// Runner checks a batch of files and writes the report.
type Runner struct {
	Checker *Checker
	// Jobs is the number of files checked concurrently. Values below 1 mean 1.
	Jobs int
	// Out receives the report. Defaults to stdout.
	Out io.Writer
}

// Run checks every path and prints one status line per file in input order,
// as soon as all earlier files are done, followed by the summary.
func (r *Runner) Run(ctx context.Context, paths []string) Summary {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}

	done := make([]chan struct{}, len(paths))
	outcomes := make([]Outcome, len(paths))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	go func() {
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				outcomes[i] = Outcome{Path: path, Err: r.Checker.CheckContract(ctx, path)}
				close(done[i])
				return nil
			})
		}
	}()

	for i := range paths {
		<-done[i]
		report(out, outcomes[i])
	}
	_ = g.Wait()

	summary := Summarize(outcomes)
	fmt.Fprintln(out)
	if summary.AllPassed() {
		fmt.Fprintf(out, "All contracts (%d) %s checks!\n", summary.Passes, pterm.Green("passed"))
	} else {
		fmt.Fprintf(out, "%s: %d, %s: %d\n", pterm.Green("Passes"), summary.Passes, pterm.Red("failures"), summary.Failures)
	}
	return summary
}

func report(out io.Writer, o Outcome) {
	if o.Passed() {
		fmt.Fprintf(out, "%s: %s\n", o.Path, pterm.Green("pass"))
		return
	}
	fmt.Fprintf(out, "%s: %s\n", o.Path, pterm.Red("failure"))
	fmt.Fprintln(out, o.Err)
}
