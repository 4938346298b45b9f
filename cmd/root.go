package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "musictools",
	Short: "Phase-vocoder audio player and queue manager",
	Long: `musictools - an audio player built around a pull-based Source/Sink
pipeline: STFT, phase-vocoder tempo stretch, and inverse-STFT in front of a
PortAudio output device, with a Player on top that manages a queue of
tracks and advances it automatically on natural end of stream.

Commands:
  - play: Play a single audio file with real-time status reporting
  - queue: Play a queue of audio files with interactive next/prev/list
  - transform: Convert audio files to different sample rates and WAV format`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
