package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hashql/internal/cache"
	"hashql/internal/hir/lower"
	"hashql/internal/hir/snapshot"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		check      bool
		outDir     string
		format     string
		jobs       int
		recycle    int
		noCache    bool
		clearCache bool
		ids        bool
	)
	cmd := &cobra.Command{
		Use:   "normalize FILE...",
		Short: "Lower HIR snapshots into administrative normal form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := normalizeOptions{
				check:   check || a.cfg.Normalize.Check,
				recycle: lower.DefaultRecycleCapacity,
			}
			if a.cfg.Normalize.Recycle != nil {
				opts.recycle = *a.cfg.Normalize.Recycle
			}
			if cmd.Flags().Changed("recycle") {
				opts.recycle = recycle
			}
			if opts.recycle < 0 {
				return fmt.Errorf("--recycle must not be negative, got %d", opts.recycle)
			}
			if !cmd.Flags().Changed("jobs") && a.cfg.Normalize.Jobs > 0 {
				jobs = a.cfg.Normalize.Jobs
			}

			var outFormat *snapshot.Format
			if format != "" {
				f, err := snapshot.ParseFormat(format)
				if err != nil {
					return err
				}
				outFormat = &f
			}

			if a.cfg.Cache.Enabled && !noCache {
				disk, err := cache.Open(a.cfg.Cache.Dir)
				if err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}
				if clearCache {
					if err := disk.DropAll(); err != nil {
						return fmt.Errorf("failed to clear cache: %w", err)
					}
				}
				opts.cache = disk
			}

			units, err := a.forEach(cmd.Context(), "normalize", args, jobs, func(ctx context.Context, path string) (*unit, error) {
				return a.normalize(ctx, path, opts)
			})
			if err != nil {
				return err
			}

			cached := 0
			for _, u := range units {
				if u.cached {
					cached++
				}
				if outDir != "" {
					if err := writeNormalized(outDir, u, outFormat); err != nil {
						return err
					}
					continue
				}
				out := cmd.OutOrStdout()
				if len(units) > 1 {
					fmt.Fprintf(out, "// %s\n", u.path)
				}
				if err := a.dump(out, u, u.output, ids); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "normalized %d file(s), %d from cache\n", len(units), cached)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "validate the output with the normal form checker")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write normalized snapshots into this directory instead of printing")
	cmd.Flags().StringVar(&format, "format", "", "snapshot format for --out (json|hirpack, default: same as input)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files processed in parallel (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&recycle, "recycle", lower.DefaultRecycleCapacity, "binding buffers kept between boundaries (0 disables)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the on-disk cache")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "drop every cached entry before running")
	cmd.Flags().BoolVar(&ids, "ids", false, "print node ids")
	return cmd
}

// writeNormalized stores u under dir as <stem>.anf<ext>.
func writeNormalized(dir string, u *unit, format *snapshot.Format) error {
	ext := filepath.Ext(u.path)
	if format != nil {
		ext = format.Ext()
	}
	stem := strings.TrimSuffix(filepath.Base(u.path), filepath.Ext(u.path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return snapshot.WriteFile(filepath.Join(dir, stem+".anf"+ext), snapshot.Encode(u.hctx, u.env, u.output))
}
