package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "carl",
	Short: "A coursework assistant that won't do your homework",
	Long: `Carl answers questions about your Canvas coursework — grades, missing
work, zeros, and what's due — in plain language. It uses a local or
hosted chat model when one is available and falls back to keyword
matching when not. The one thing it refuses, emphatically and with
escalating patience, is doing the homework itself.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "carl.yml", "config file path")
}
