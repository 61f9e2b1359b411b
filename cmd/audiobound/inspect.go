package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/audiobound/audiobound/internal/resume"
)

func newInspectCommand() *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Reports on a prior run's resume state for an output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(outputDir)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory to inspect (required)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runInspect(outputDir string) error {
	store := resume.NewStore(outputDir)
	if !store.Exists() {
		fmt.Printf("no resume state found under %s\n", store.WorkDir())
		return nil
	}

	sig, err := store.LoadSignature()
	if err != nil {
		return fmt.Errorf("failed to load job signature: %w", err)
	}
	state, err := store.LoadPipelineState()
	if err != nil {
		return fmt.Errorf("failed to load pipeline state: %w", err)
	}

	fmt.Printf("resume state: %s\n", store.WorkDir())
	fmt.Printf("  text hash:     %s\n", sig.TextHash)
	fmt.Printf("  settings hash: %s\n", sig.SettingsHash)
	fmt.Printf("  rendered files: %d\n", len(state.FileNames))
	fmt.Printf("  characters: %d\n", len(state.Characters))

	names := make([]string, 0, len(state.CharacterVoiceMap))
	for name := range state.CharacterVoiceMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("    %-30s -> %s\n", name, state.CharacterVoiceMap[name])
	}
	return nil
}
