package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the botrading CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("botrading version %s\n", version)
		fmt.Println("Multi-bot trading coordinator for a shared brokerage account")
		fmt.Println("https://github.com/DVARGAS117/Botrading-sub003")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
