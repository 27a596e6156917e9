package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hashql/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent flags.
// The returned session is nil when profiling is off.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	for name, dst := range map[string]*string{
		"cpu-profile":   &opts.CPU,
		"mem-profile":   &opts.Mem,
		"runtime-trace": &opts.Trace,
	} {
		value, err := flags.GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = value
	}
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}
