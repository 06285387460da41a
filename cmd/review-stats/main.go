package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/cognicore/ideascope/pkg/ideascope/stats"
)

func main() {
	var (
		input      = flag.String("input", "", "JSON array of review records (required)")
		metrics    = flag.String("metrics", stats.MetricOverall, "Comma-separated metrics, or \"all\"")
		unit       = flag.String("unit", "review", "Aggregation unit: review, idea, reviewer or topic")
		test       = flag.String("test", "welch", "Two-sample test: welch or student")
		correction = flag.String("correction", "fdr", "Multiple-comparison correction: fdr, bonferroni or none")
		baseline   = flag.String("baseline", stats.ConditionHuman, "Baseline condition")
		paired     = flag.Bool("paired", false, "Paired test over units present in both conditions")
		correlate  = flag.String("correlate", "", "Two metrics to correlate across reviews, e.g. novelty_score,feasibility_score")
		asJSON     = flag.Bool("json", false, "Print the report as JSON")
		noColor    = flag.Bool("no-color", false, "Disable colored output")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}
	if *noColor {
		color.NoColor = true
	}

	reviews, err := stats.LoadReviews(*input)
	if err != nil {
		log.Fatal(err)
	}
	u, err := stats.ParseUnit(*unit)
	if err != nil {
		log.Fatal(err)
	}
	corr, err := stats.ParseCorrection(*correction)
	if err != nil {
		log.Fatal(err)
	}
	if *test != "welch" && *test != "student" {
		log.Fatalf("unknown test %q", *test)
	}

	opts := stats.CompareOptions{
		Metrics:    parseMetrics(*metrics),
		Unit:       u,
		Baseline:   *baseline,
		Welch:      *test == "welch",
		Correction: corr,
	}
	var rep *stats.Report
	if *paired {
		rep, err = stats.ComparePaired(reviews, opts)
	} else {
		rep, err = stats.Compare(reviews, opts)
	}
	if err != nil {
		log.Fatal(err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatal(err)
		}
	} else {
		render(os.Stdout, rep, len(reviews))
	}

	if *correlate != "" {
		if err := printCorrelation(os.Stdout, reviews, *correlate); err != nil {
			log.Fatal(err)
		}
	}
}

func parseMetrics(s string) []string {
	if strings.TrimSpace(s) == "all" {
		return stats.Metrics
	}
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func render(w io.Writer, rep *stats.Report, n int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s %d reviews, unit=%s, test=%s, correction=%s\n\n", cyan("Reviews:"), n, rep.Unit, rep.Test, rep.Correction)

	fmt.Fprintln(w, cyan("Descriptives"))
	fmt.Fprintf(w, "  %-20s %-16s %5s %7s %7s %7s %17s\n", "metric", "condition", "n", "mean", "median", "std", "95% CI")
	for _, d := range rep.Descriptives {
		s := d.Summary
		fmt.Fprintf(w, "  %-20s %-16s %5d %7.3f %7.3f %7.3f   [%6.3f, %6.3f]\n",
			d.Metric, d.Condition, s.N, s.Mean, s.Median, s.StdDev, s.CILow, s.CIHigh)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cyan("Comparisons"))
	for _, c := range rep.Comparisons {
		line := fmt.Sprintf("  %-20s %s vs %s: diff=%+.3f t=%.3f df=%.1f p=%.4f p_adj=%.4f",
			c.Metric, c.Condition, c.Baseline, c.MeanDiff, c.Test.T, c.Test.DF, c.Test.P, c.PAdjusted)
		if c.Significant {
			fmt.Fprintln(w, green(line+" *"))
		} else {
			fmt.Fprintln(w, line)
		}
	}
	for _, s := range rep.Skipped {
		fmt.Fprintln(w, gray("  skipped: "+s))
	}
}

func printCorrelation(w io.Writer, reviews []stats.Review, pair string) error {
	parts := strings.Split(pair, ",")
	if len(parts) != 2 {
		return fmt.Errorf("--correlate needs two metrics, got %q", pair)
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	var xs, ys []float64
	for _, r := range reviews {
		x, okx := r.Score(a)
		y, oky := r.Score(b)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	pr, err := stats.Pearson(xs, ys)
	if err != nil {
		return err
	}
	sr, err := stats.Spearman(xs, ys)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s vs %s (n=%d): pearson r=%.3f p=%.4f, spearman rho=%.3f p=%.4f\n",
		a, b, pr.N, pr.R, pr.P, sr.R, sr.P)
	return nil
}
