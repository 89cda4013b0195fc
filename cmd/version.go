package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/util"
)

// NewVersionCommand creates new command instance
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Args:  cobra.NoArgs,
		Short: "Print the version number of poisonlab",
		Run:   printVersion,
	}
}

func printVersion(_ *cobra.Command, _ []string) {
	fmt.Println("poisonlab")
	fmt.Printf("Version: %s\n", util.Version)
	fmt.Printf("Build time: %s\n", util.BuildTime)
}
