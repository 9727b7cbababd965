package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mehubot/mehu/cmd/mehu/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "mehu",
		Short:        "Telegram inline bot for tagged media",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.RunCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
