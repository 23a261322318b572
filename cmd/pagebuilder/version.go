package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pagebuilder"
	"github.com/aretw0/pagebuilder/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of pagebuilder",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v := strings.TrimSpace(pagebuilder.Version)
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return
			}
			tui.PrintBanner(cmd.OutOrStdout(), "pagebuilder version "+v)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	return cmd
}
