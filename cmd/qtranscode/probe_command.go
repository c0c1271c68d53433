package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"qtranscode/internal/probe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var dvdDevice, blurayDevice string
	var discTitle int

	cmd := &cobra.Command{
		Use:   "probe [flags] [input]",
		Short: "Identify a source and print its streams",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			var src probe.Source
			switch {
			case dvdDevice != "":
				src = probe.Source{Path: dvdDevice, Disc: probe.DiscDVD, DiscTitle: discTitle}
			case blurayDevice != "":
				src = probe.Source{Path: blurayDevice, Disc: probe.DiscBluRay, DiscTitle: discTitle}
			case len(args) == 1:
				src = probe.Source{Path: args[0]}
			default:
				return fmt.Errorf("an input file, --dvd, or --bluray is required")
			}

			desc, err := probe.New().Probe(cmd.Context(), src)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Video codec", desc.VideoCodec},
				{"Dimensions", desc.Dimensions.String()},
				{"Frame rate", desc.FrameRate.String()},
				{"Audio codec", desc.AudioCodec},
				{"Sample rate", strconv.Itoa(desc.AudioSampleRate)},
				{"Channels", strconv.Itoa(desc.AudioChannels)},
				{"Chapters", yesNo(desc.HasChapters)},
				{"Subtitles", yesNo(desc.HasSubtitles)},
				{"Attachments", strconv.Itoa(desc.AttachmentCount)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&dvdDevice, "dvd", "", "Probe a DVD device or directory")
	cmd.Flags().StringVar(&blurayDevice, "bluray", "", "Probe a Blu-ray device or directory")
	cmd.Flags().IntVarP(&discTitle, "disc-title", "T", 1, "Disc title number")
	cmd.MarkFlagsMutuallyExclusive("dvd", "bluray")

	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
