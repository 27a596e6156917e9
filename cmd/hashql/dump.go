package main

import (
	"github.com/spf13/cobra"
)

func newDumpCmd(a *app) *cobra.Command {
	var ids bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print a decoded snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, _, err := a.decode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.dump(cmd.OutOrStdout(), u, u.input, ids)
		},
	}
	cmd.Flags().BoolVar(&ids, "ids", false, "print node ids")
	return cmd
}
