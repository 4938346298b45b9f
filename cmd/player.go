package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/drgolem/musictools/pkg/flow"
	"github.com/drgolem/musictools/pkg/library"
	"github.com/drgolem/musictools/pkg/playback"
	"github.com/drgolem/musictools/pkg/player"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
)

var (
	deviceIdx   int
	frames      int
	showVersion bool
	verbose     bool
)

// playerCmd represents the player command
var playerCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Play a single audio file (MP3, FLAC, WAV)",
	Long: `Play one audio file through the phase-vocoder pipeline (STFT, tempo
stretch, inverse-STFT) over PortAudio, with real-time status reporting.

Examples:
  # Play an MP3 file
  musictools play music.mp3

  # Play a FLAC file with a specific device
  musictools play -d 0 music.flac

Supported Formats:
  MP3:  .mp3 (16-bit lossy)
  FLAC: .flac (16/24/32-bit lossless)
  WAV:  .wav (8/16/24/32-bit PCM)`,
	Args: cobra.ExactArgs(1),
	Run:  runPlayer,
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.Flags().IntVarP(&deviceIdx, "device", "d", 1, "Audio output device index")
	playerCmd.Flags().IntVarP(&frames, "frames", "f", 512, "Audio frames per buffer")
	playerCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	playerCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}

func runPlayer(cmd *cobra.Command, args []string) {
	if showVersion {
		fmt.Printf("musictools player v%s\n", version)
		fmt.Println("Built with:")
		fmt.Println("  - STFT / phase-vocoder pipeline")
		fmt.Println("  - Condition-variable flow control")
		fmt.Println("  - PortAudio for cross-platform audio")
		os.Exit(0)
	}

	configureLogging(verbose)

	fileName := args[0]
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("File not found", "path", fileName)
		os.Exit(1)
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		slog.Error("Hint: Make sure PortAudio is installed on your system")
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())
	slog.Info("Audio configuration", "device_index", deviceIdx, "frames_per_buffer", frames)

	libs := library.NewSet()
	p := player.New(libs, player.Config{DeviceIndex: deviceIdx, FramesPerBuffer: frames}, nil)
	trackID, err := registerSingleFile(libs, fileName)
	if err != nil {
		slog.Error("Failed to index file", "path", fileName, "error", err)
		os.Exit(1)
	}
	p.Enqueue(trackID)

	slog.Info("Starting playback", "path", fileName)
	id, err := p.PlayFromQueue(0)
	if err != nil {
		slog.Error("Failed to start playback", "error", err)
		os.Exit(1)
	}
	pb, _ := p.Playback(id)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	statusDone := make(chan struct{})
	go reportStatus(pb, statusDone)

	waitForTrackEnd(pb, sigChan)
	close(statusDone)
	slog.Info("Exiting")
}

// registerSingleFile opens an in-memory SQLite library rooted at path's
// directory, named after that directory so its TrackID never collides with
// another file library, registers it in libs, and returns the TrackID for
// path itself.
func registerSingleFile(libs *library.Set, path string) (library.TrackID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return library.TrackID{}, err
	}
	dir := filepath.Dir(abs)

	lib, err := library.OpenSQLiteLibrary(dir, ":memory:")
	if err != nil {
		return library.TrackID{}, err
	}
	if err := lib.Reindex(dir); err != nil {
		return library.TrackID{}, err
	}
	libs.Register(lib)
	return library.TrackID{Library: dir, Key: filepath.Base(abs)}, nil
}

// waitForTrackEnd blocks until pb leaves the Playing/Paused states (natural
// end or error) or a termination signal arrives, in which case it stops pb
// explicitly.
func waitForTrackEnd(pb *playback.Playback, sigChan <-chan os.Signal) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if pb.State() == flow.Stopped {
				slog.Info("Playback completed")
				return
			}
		case sig := <-sigChan:
			slog.Info("Signal received, stopping playback", "signal", sig)
			pb.Close()
			return
		}
	}
}

// reportStatus logs position/duration every 2 seconds until done is closed.
func reportStatus(pb *playback.Playback, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fields := []any{"position_frames", pb.Position(), "state", pb.State().String()}
			if dur, ok := pb.DurationTime(); ok {
				fields = append(fields, "duration", dur.Round(time.Second))
			}
			slog.Info("Playback status", fields...)
		case <-done:
			return
		}
	}
}

// configureLogging installs the text-handler logger every command shares.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
