package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of k8s-netinspect",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "k8s-netinspect version %s\n", version)
			return err
		},
	}
}
