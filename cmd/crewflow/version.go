package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/crewflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crewflow version %s\n", crewflow.Version)
	},
}
