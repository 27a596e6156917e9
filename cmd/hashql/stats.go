package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"hashql/internal/hir"
	"hashql/internal/hir/lower"
)

// census counts reachable nodes by kind.
type census struct {
	hir.VisitorBase
	counts map[string]int
	total  int
}

func countNodes(node hir.Node) *census {
	c := &census{counts: make(map[string]int)}
	c.Init(c)
	c.VisitNode(node)
	return c
}

func (c *census) VisitNode(node hir.Node) {
	c.counts[hir.KindName(node.Kind())]++
	c.total++
	hir.WalkNode(c, node)
}

type statsReport struct {
	File   string         `json:"file"`
	Before map[string]int `json:"before"`
	After  map[string]int `json:"after"`
	Pass   lower.Stats    `json:"pass"`
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats FILE",
		Short: "Show node counts before and after normalization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.normalize(cmd.Context(), args[0], normalizeOptions{recycle: lower.DefaultRecycleCapacity})
			if err != nil {
				return err
			}
			before, after := countNodes(u.input), countNodes(u.output)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(statsReport{File: u.path, Before: before.counts, After: after.counts, Pass: u.stats})
			}
			return renderStats(cmd.OutOrStdout(), before, after, u.stats, a.color)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func renderStats(out io.Writer, before, after *census, stats lower.Stats, colored bool) error {
	kinds := make([]string, 0, len(before.counts)+len(after.counts))
	for kind := range before.counts {
		kinds = append(kinds, kind)
	}
	for kind := range after.counts {
		if _, ok := before.counts[kind]; !ok {
			kinds = append(kinds, kind)
		}
	}
	slices.Sort(kinds)

	rows := make([][]string, 0, len(kinds)+1)
	for _, kind := range kinds {
		rows = append(rows, []string{kind, strconv.Itoa(before.counts[kind]), strconv.Itoa(after.counts[kind])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(before.total), strconv.Itoa(after.total)})

	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell
	if colored {
		header = header.Bold(true)
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("kind", "before", "after").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cell
			if row == table.HeaderRow {
				style = header
			}
			if col > 0 {
				return style.Align(lipgloss.Right)
			}
			return style
		})
	if _, err := fmt.Fprintln(out, tbl.String()); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nboundaries %d, lets %d, bindings %d (+%d flattened), assertions erased %d, short-circuits %d\n",
		stats.Boundaries, stats.Lets, stats.Bindings, stats.Flattened, stats.Erased, stats.ShortCircuits)
	return err
}
