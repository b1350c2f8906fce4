package audit

// Aggregate folds ordered results into a report in a single pass, counting
// each status exactly once and preserving result order for display. Failed
// and errored are distinct counters: callers wanting a single all-clear
// boolean should use Report.Clean.
func Aggregate(results []Result) Report {
	report := Report{Results: results}
	for _, result := range results {
		report.Summary.Checked++
		switch result.Status {
		case StatusPass:
			report.Summary.Passed++
		case StatusStrict:
			report.Summary.Strict++
		case StatusFail:
			report.Summary.Failed++
		case StatusError:
			report.Summary.Errored++
		}
	}
	return report
}
