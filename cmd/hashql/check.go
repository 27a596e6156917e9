package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hashql/internal/hir/lower"
	"hashql/internal/ui"
)

func newCheckCmd(a *app) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Verify that snapshots are already in administrative normal form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := a.forEach(cmd.Context(), "check", args, jobs, func(ctx context.Context, path string) (*unit, error) {
				u, _, err := a.decode(ctx, path)
				if err != nil {
					return nil, err
				}
				ui.Working(ctx, path, ui.StageCheck)
				idx := a.timer.Begin("check " + path)
				u.anf = lower.CheckANF(u.hctx, u.input)
				a.timer.End(idx, "")
				return u, nil
			})
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, u := range units {
				if u.anf == nil {
					fmt.Fprintf(out, "ok   %s\n", u.path)
					continue
				}
				failed++
				fmt.Fprintf(out, "FAIL %s\n%v\n", u.path, u.anf)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) %w the normal form check", failed, len(args), errFailed)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files processed in parallel (0 = GOMAXPROCS)")
	return cmd
}
