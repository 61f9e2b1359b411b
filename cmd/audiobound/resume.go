package main

import (
	"github.com/spf13/cobra"
)

func newResumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <file>",
		Short: "Resumes a prior conversion of the same file if its resume state still matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args[0], true)
		},
	}
	cmd.Flags().StringVar(&convertOutputDir, "output", "", "output directory (required)")
	cmd.Flags().StringVar(&convertLanguage, "language", "en-US", "book language")
	cmd.Flags().StringVar(&convertBookName, "book-name", "", "book name (defaults to the file name)")
	cmd.Flags().StringSliceVar(&convertVoices, "voices", nil, "enabled voice IDs (defaults to the full catalog)")
	cmd.MarkFlagRequired("output")
	return cmd
}
