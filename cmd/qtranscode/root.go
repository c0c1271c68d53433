package main

import (
	"github.com/spf13/cobra"

	"qtranscode/internal/history"
	"qtranscode/internal/pipeline"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	flags := &transcodeFlags{}

	rootCmd := &cobra.Command{
		Use:           "qtranscode [flags] <input>",
		Short:         "Convert a video source into an mkv, webm, or mp4 file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !flags.discSelected() {
				return cmd.Help()
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			opts, err := flags.buildOptions(cmd, input, cfg)
			if err != nil {
				return err
			}

			var store *history.Store
			if cfg.History.Enabled {
				store, err = history.Open(cfg.HistoryPath())
				if err != nil {
					logger.Warn("run history unavailable", "error", err)
				} else {
					defer store.Close()
				}
			}

			return pipeline.New(cfg, logger, store).Run(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.register(rootCmd)

	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newDepsCommand())
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
