package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mender/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mender version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mender version %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
