package contention

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	passColor  = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
	titleColor = color.New(color.FgCyan)
)

// WriteReport renders results as a table followed by the failed verdicts
func WriteReport(w io.Writer, results []Result) {
	titleColor.Fprintln(w, "\nEnrollment Contention Report")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Strategy", "Requests", "OK", "Rejected", "Enrolled", "Active", "Drift", "Elapsed", "Verdict"})
	table.SetAutoWrapText(false)

	for _, r := range results {
		verdict := passColor.Sprint("PASS")
		if !r.Passed() {
			verdict = failColor.Sprint("FAIL")
		}
		table.Append([]string{
			string(r.Scenario),
			string(r.Strategy),
			strconv.Itoa(r.Requests),
			strconv.Itoa(r.Successes),
			r.FailureSummary(),
			fmt.Sprintf("%d/%d", r.EnrolledCount, r.Capacity),
			strconv.Itoa(r.ActiveRows),
			strconv.Itoa(r.Drift),
			r.Elapsed.Round(time.Millisecond).String(),
			verdict,
		})
	}
	table.Render()

	for _, r := range results {
		for _, v := range r.Verdicts {
			if !v.Passed {
				failColor.Fprintf(w, "%s/%s: %s violated (%s)\n", r.Scenario, r.Strategy, v.Name, v.Detail)
			}
		}
	}
}

// AllPassed reports whether every result passed
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}
