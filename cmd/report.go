package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/montecarlo"
	"github.com/pitwall-sim/strategy-sim/sim/pit"
	"github.com/pitwall-sim/strategy-sim/sim/race"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

// formatRaceTime renders seconds as m:ss.sss.
func formatRaceTime(seconds float64) string {
	m := int(seconds) / 60
	return fmt.Sprintf("%d:%06.3f", m, seconds-float64(m*60))
}

// printModels prints the compound model summary.
func printModels(w io.Writer, models tire.Models) {
	fmt.Fprintln(w, "=== Compound models ===")
	t := newTable(w, "Compound", "Kind", "Alpha (s)", "Beta (s/lap)", "Posterior")
	for _, c := range sim.AllCompounds {
		m, ok := models[c]
		if !ok {
			t.Append([]string{string(c), "-> MEDIUM", "", "", ""})
			continue
		}
		posterior := "-"
		if p, ok := m.(*tire.PosteriorModel); ok {
			posterior = strconv.Itoa(p.Len())
		}
		t.Append([]string{
			string(c), string(m.Kind()),
			fmt.Sprintf("%.3f", m.Alpha()), fmt.Sprintf("%.4f", m.Beta()), posterior,
		})
	}
	t.Render()
}

// printRankings prints the top n strategies of one grid slot; n <= 0 prints all.
func printRankings(w io.Writer, gr montecarlo.GridRanking, n int) {
	driver := gr.Driver
	if driver == "" {
		driver = "unassigned"
	}
	fmt.Fprintf(w, "\n=== P%d (%s) ===\n", gr.Position, driver)
	if len(gr.Rankings) == 0 {
		fmt.Fprintln(w, "no strategies")
		return
	}
	t := newTable(w, "#", "Strategy", "Mean", "Median", "Std", "P05", "P95", "Delta")
	for _, r := range montecarlo.Top(gr.Rankings, n) {
		s := r.Summary
		t.Append([]string{
			strconv.Itoa(r.Rank), r.Strategy.Name(),
			formatRaceTime(s.Mean), formatRaceTime(s.Median), fmt.Sprintf("%.2f", s.StdDev),
			formatRaceTime(s.P05), formatRaceTime(s.P95), fmt.Sprintf("+%.2f", r.Delta),
		})
	}
	t.Render()
}

// printThresholds prints one row per transition and one column per horizon.
func printThresholds(w io.Writer, table pit.Table) {
	fmt.Fprintln(w, "\n=== Pit thresholds (s/lap) ===")
	header := []string{"Transition"}
	for _, h := range table.Horizons {
		header = append(header, fmt.Sprintf("%d to go", h))
	}
	t := newTable(w, header...)
	for _, tr := range table.Transitions {
		row := []string{tr.String()}
		for _, h := range table.Horizons {
			th, _ := table.Lookup(tr.From, tr.To, h)
			row = append(row, fmt.Sprintf("%.3f", th.Threshold))
		}
		t.Append(row)
	}
	t.Render()
}

// printStrategies lists candidate strategies grouped by pattern order.
func printStrategies(w io.Writer, strategies []sim.Strategy) {
	t := newTable(w, "Pattern", "Strategy", "Stint 1", "Stint 2", "Stint 3")
	for _, s := range strategies {
		row := []string{s.Pattern(), s.Name()}
		for _, st := range s.Stints() {
			row = append(row, fmt.Sprintf("%s x%d", st.Compound, st.Laps))
		}
		t.Append(row)
	}
	t.Render()
	fmt.Fprintf(w, "%d strategies\n", len(strategies))
}

// printPitLap prints the outcome of an optimal pit-lap search.
func printPitLap(w io.Writer, from, to sim.Compound, stintStart int, res pit.PitLap) {
	fmt.Fprintf(w, "%s -> %s from lap %d: pit on lap %d (%d candidates), total %s\n",
		from, to, stintStart, res.Lap, res.Candidates, formatRaceTime(res.TotalTime))
}

// printTrace prints the pit stops and summary of one simulated race.
func printTrace(w io.Writer, tr *race.Trace, total float64) {
	sum := race.Summarize(tr)
	fmt.Fprintf(w, "=== %s from P%d: %s ===\n", tr.Strategy.Name(), tr.Grid, formatRaceTime(total))

	if tr.Schedule.SC.Active() {
		fmt.Fprintf(w, "Safety car: laps %d-%d\n", tr.Schedule.SC.Start, tr.Schedule.SC.End)
	}
	if tr.Schedule.VSC.Active() {
		fmt.Fprintf(w, "Virtual safety car: laps %d-%d\n", tr.Schedule.VSC.Start, tr.Schedule.VSC.End)
	}

	t := newTable(w, "After lap", "Switch", "Loss (s)", "Position")
	for _, p := range tr.Pits {
		t.Append([]string{
			strconv.Itoa(p.AfterLap), fmt.Sprintf("%s->%s", p.From, p.To),
			fmt.Sprintf("%.2f", p.Loss), fmt.Sprintf("P%d -> P%d", p.PositionBefore, p.PositionAfter),
		})
	}
	t.Render()

	fmt.Fprintf(w, "Fastest lap %d (%.3fs), slowest lap %d (%.3fs)\n",
		sum.FastestLap, sum.FastestLapTime, sum.SlowestLap, sum.SlowestLapTime)
	fmt.Fprintf(w, "Laps under SC %d, under VSC %d, pit loss %.2fs\n", sum.LapsUnderSC, sum.LapsUnderVSC, sum.TotalPitLoss)
	fmt.Fprintf(w, "Finished P%d (%+d)\n", sum.FinishPosition, sum.PositionsGained)
}
