// Command sweep prints the attributable-risk estimate and its confidence
// interval across a range of period ratios.
//
// Usage:
//
//	go run ./cmd/sweep -x 10 -y 20 -alpha 0.05 -tau 0.5,1,2,3,4,5
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-attribution-service/internal/attribution"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const undefinedCell = "n/a"

var (
	attributableColor = color.New(color.FgRed, color.Bold) // interval entirely above zero
	protectiveColor   = color.New(color.FgCyan)            // interval entirely below zero
	inconclusiveColor = color.New(color.FgYellow)
	undefinedColor    = color.New(color.FgHiBlack)
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	x := fs.Float64("x", 0, "event count in the baseline period")
	y := fs.Float64("y", 0, "event count in the comparison period")
	alpha := fs.Float64("alpha", attribution.DefaultAlpha, "significance level, 0 < alpha < 1")
	tauList := fs.String("tau", "", "comma-separated period ratios T1/T2 (default 0.5,1,2,3,4,5)")
	precision := fs.Int("precision", 3, "decimal places in the table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *x < 0 || *y < 0 {
		return fmt.Errorf("counts must be non-negative, got x=%v y=%v", *x, *y)
	}
	if *alpha <= 0 || *alpha >= 1 {
		return fmt.Errorf("alpha must be between 0 and 1 (exclusive), got %v", *alpha)
	}
	taus, err := parseTaus(*tauList)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "x=%g y=%g alpha=%g (%.0f%% interval)\n", *x, *y, *alpha, 100*(1-*alpha))
	return renderSweep(out, attribution.Sweep(*x, *y, *alpha, taus), *precision)
}

func parseTaus(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return attribution.DefaultTaus, nil
	}
	parts := strings.Split(s, ",")
	taus := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid tau %q: must be a positive number", part)
		}
		taus = append(taus, v)
	}
	return taus, nil
}

func renderSweep(out io.Writer, points []attribution.SweepPoint, precision int) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Tau", "Risk", "Lower", "Upper", "Reading"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', precision, 64) }

	data := make([][]string, 0, len(points))
	for _, p := range points {
		if !p.Defined {
			data = append(data, []string{
				f(p.Tau), undefinedCell, undefinedCell, undefinedCell,
				undefinedColor.Sprint("undefined"),
			})
			continue
		}
		data = append(data, []string{
			f(p.Tau), f(p.Risk), f(p.Interval.Lower), f(p.Interval.Upper),
			reading(p.Interval),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// reading classifies an interval by where it sits relative to zero risk.
func reading(ci attribution.Interval) string {
	switch {
	case ci.Lower > 0:
		return attributableColor.Sprint("attributable")
	case ci.Upper < 0:
		return protectiveColor.Sprint("protective")
	default:
		return inconclusiveColor.Sprint("inconclusive")
	}
}
