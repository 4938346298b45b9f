package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/drgolem/musictools/pkg/library"
	"github.com/drgolem/musictools/pkg/m3u"
	"github.com/drgolem/musictools/pkg/player"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

var (
	queueDeviceIdx int
	queueFrames    int
	queueVerbose   bool
	queuePlaylist  string
)

// queueCmd represents the queue command
var queueCmd = &cobra.Command{
	Use:   "queue [audio_file...]",
	Short: "Play a queue of audio files with interactive next/prev/list",
	Long: `Build a Player queue from the given files (and/or an M3U playlist) and
play them in order, advancing automatically on natural end of track. While
playing, type a command and press Enter:

  n    play next queued track
  p    play previous queued track
  l    list the queue and the current cursor
  q    quit

Examples:
  musictools queue one.flac two.mp3 three.wav
  musictools queue -d 0 *.flac
  musictools queue --playlist favorites.m3u`,
	Args: cobra.ArbitraryArgs,
	Run:  runQueue,
}

func init() {
	rootCmd.AddCommand(queueCmd)

	queueCmd.Flags().IntVarP(&queueDeviceIdx, "device", "d", 1, "Audio output device index")
	queueCmd.Flags().IntVarP(&queueFrames, "frames", "f", 512, "Audio frames per buffer")
	queueCmd.Flags().BoolVarP(&queueVerbose, "verbose", "v", false, "Verbose output (debug logging)")
	queueCmd.Flags().StringVar(&queuePlaylist, "playlist", "", "Load queue entries from an M3U/M3U8 playlist file")
}

func runQueue(cmd *cobra.Command, args []string) {
	configureLogging(queueVerbose)

	paths := args
	if queuePlaylist != "" {
		playlistPaths, err := loadPlaylist(queuePlaylist)
		if err != nil {
			slog.Error("Failed to load playlist", "path", queuePlaylist, "error", err)
			os.Exit(1)
		}
		paths = append(paths, playlistPaths...)
	}
	if len(paths) == 0 {
		slog.Error("No audio files given; pass file paths and/or --playlist")
		os.Exit(1)
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	libs := library.NewSet()
	p := player.New(libs, player.Config{DeviceIndex: queueDeviceIdx, FramesPerBuffer: queueFrames}, nil)

	// One SQLiteLibrary per unique parent directory avoids key collisions
	// between files that share a basename in different directories.
	dirLibs := make(map[string]*library.SQLiteLibrary)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			slog.Error("Failed to resolve path", "path", path, "error", err)
			continue
		}
		dir := filepath.Dir(abs)
		lib, ok := dirLibs[dir]
		if !ok {
			lib, err = library.OpenSQLiteLibrary(dir, ":memory:")
			if err != nil {
				slog.Error("Failed to open library", "dir", dir, "error", err)
				continue
			}
			if err := lib.Reindex(dir); err != nil {
				slog.Error("Failed to index directory", "dir", dir, "error", err)
				continue
			}
			dirLibs[dir] = lib
			libs.Register(lib)
		}
		p.Enqueue(library.TrackID{Library: dir, Key: filepath.Base(abs)})
	}
	defer func() {
		for _, lib := range dirLibs {
			lib.Close()
		}
	}()

	if p.Queue().Len() == 0 {
		slog.Error("No playable files were queued")
		os.Exit(1)
	}

	if _, err := p.PlayFromQueue(0); err != nil {
		slog.Error("Failed to start playback", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go readCommands(lines)

	for {
		select {
		case sig := <-sigChan:
			slog.Info("Signal received, exiting", "signal", sig)
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleQueueCommand(p, line) {
				return
			}
		}
	}
}

// loadPlaylist parses the M3U/M3U8 file at path and returns its entries'
// paths, resolving any path that isn't already absolute against the
// playlist file's own directory, per the M3U convention.
func loadPlaylist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := m3u.Parse(f)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	paths := make([]string, len(entries))
	for i, e := range entries {
		if filepath.IsAbs(e.Path) {
			paths[i] = e.Path
		} else {
			paths[i] = filepath.Join(dir, e.Path)
		}
	}
	return paths, nil
}

// readCommands feeds lines typed on stdin into lines, closing it on EOF.
func readCommands(lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

// handleQueueCommand applies one interactive command, returning false when
// the caller should stop the command loop.
func handleQueueCommand(p *player.Player, line string) bool {
	switch line {
	case "n":
		if _, err := p.PlayNextFromQueue(); err != nil {
			slog.Warn("No next track", "error", err)
		}
	case "p":
		if _, err := p.PlayPreviousFromQueue(); err != nil {
			slog.Warn("No previous track", "error", err)
		}
	case "l":
		printQueue(p)
	case "q":
		return false
	default:
		if line != "" {
			slog.Warn("Unrecognized command", "command", line)
		}
	}
	return true
}

func printQueue(p *player.Player) {
	q := p.Queue()
	cursor, hasCur := q.Cursor()
	for i, item := range q.Items() {
		marker := "  "
		if hasCur && i == cursor {
			marker = "->"
		}
		fmt.Printf("%s %d: %s\n", marker, i, item.ID)
	}
}
