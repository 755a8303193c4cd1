package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtgibbs/carl/internal/config"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-off question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		p, _, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		resp := p.Handle(cmd.Context(), "cli", strings.Join(args, " "))
		fmt.Println(resp.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
