package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/musictools/pkg/codec"
	"github.com/drgolem/musictools/pkg/frame"
	"github.com/drgolem/musictools/pkg/resample"

	"github.com/spf13/cobra"
	wav "github.com/youpy/go-wav"
)

var transformCmd = &cobra.Command{
	Use:   "transform <input_file>",
	Short: "Transform audio file sample rate and format",
	Long: `Transform audio files to different sample rates and convert to WAV format.
Supports input from MP3, FLAC, and WAV formats with optional mono conversion.

Examples:
  # Transform MP3 to 48kHz WAV
  musictools transform input.mp3 --new-samplerate 48000 --out output.wav

  # Transform FLAC to 44.1kHz mono WAV
  musictools transform input.flac --new-samplerate 44100 --mono --out output.wav

  # Transform WAV with default settings (48kHz)
  musictools transform input.wav

Supported Input Formats:
  - MP3 (.mp3)
  - FLAC (.flac)
  - WAV (.wav)

Output Format:
  - WAV (16-bit PCM)

Sample Rate Options:
  Common rates: 8000, 16000, 22050, 44100, 48000, 96000, 192000 Hz`,
	Args: cobra.ExactArgs(1),
	Run:  runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().Int("new-samplerate", 48000, "Target sample rate in Hz")
	transformCmd.Flags().String("out", "out_transformed.wav", "Output WAV file path")
	transformCmd.Flags().Bool("mono", false, "Convert output to mono signal (average channels)")
}

func runTransform(cmd *cobra.Command, args []string) {
	inFileName := args[0]

	if _, err := os.Stat(inFileName); os.IsNotExist(err) {
		slog.Error("Input file not found", "path", inFileName)
		os.Exit(1)
	}

	newSampleRate, err := cmd.Flags().GetInt("new-samplerate")
	if err != nil {
		slog.Error("Failed to get new-samplerate flag", "error", err)
		os.Exit(1)
	}

	outFileName, err := cmd.Flags().GetString("out")
	if err != nil {
		slog.Error("Failed to get out flag", "error", err)
		os.Exit(1)
	}

	convertToMono, err := cmd.Flags().GetBool("mono")
	if err != nil {
		slog.Error("Failed to get mono flag", "error", err)
		os.Exit(1)
	}

	if newSampleRate <= 0 || newSampleRate > 384000 {
		slog.Error("Invalid sample rate", "rate", newSampleRate, "valid_range", "1-384000")
		os.Exit(1)
	}

	slog.Info("Audio transformation starting",
		"input_file", inFileName,
		"output_sample_rate", newSampleRate,
		"output_mono", convertToMono,
		"output_file", outFileName)

	slog.Info("Decoding audio data")
	source, meta, err := codec.DecodeFile(inFileName)
	if err != nil {
		slog.Error("Failed to decode audio", "error", err)
		os.Exit(1)
	}

	slog.Info("Decoding complete",
		"input_sample_rate", meta.SampleRate,
		"input_channels", meta.Channels,
		"input_bits_per_sample", meta.BitsPerSample,
		"input_frames", meta.Length)

	slog.Info("Resampling audio", "from_rate", meta.SampleRate, "to_rate", newSampleRate)

	var pipeline frame.Source[int16] = source
	if uint32(newSampleRate) != meta.SampleRate {
		stage, err := resample.New(pipeline, int(meta.Channels), uint32(newSampleRate))
		if err != nil {
			slog.Error("Failed to create resampler", "error", err)
			os.Exit(1)
		}
		defer stage.Close()
		pipeline = stage
	}

	outChannels := meta.Channels
	if convertToMono && meta.Channels > 1 {
		slog.Info("Converting to mono", "input_channels", meta.Channels)
		pipeline = toMono(pipeline)
		outChannels = 1
	}

	audioData, outFrames := drain(pipeline, int(outChannels))

	slog.Info("Resampling complete", "output_frames", outFrames)

	slog.Info("Writing output WAV file", "path", outFileName)
	if err := writeWAVFile(outFileName, audioData, uint32(outFrames), uint16(outChannels), uint32(newSampleRate), 16); err != nil {
		slog.Error("Failed to write WAV file", "error", err)
		os.Exit(1)
	}

	slog.Info("Transformation complete",
		"input_frames", meta.Length,
		"output_frames", outFrames,
		"sample_rate_ratio", fmt.Sprintf("%.3f", float64(newSampleRate)/float64(meta.SampleRate)))
}

// monoSource averages every channel of each frame pulled from inner down to
// a single channel, declaring N=1 on every frame it yields.
type monoSource struct {
	inner frame.Source[int16]
}

func toMono(inner frame.Source[int16]) frame.Source[int16] {
	return &monoSource{inner: inner}
}

func (m *monoSource) SampleRate() uint32 { return m.inner.SampleRate() }

func (m *monoSource) Next() (frame.Frame[int16], bool) {
	f, ok := m.inner.Next()
	if !ok {
		return frame.Frame[int16]{}, false
	}
	var sum int32
	n := int(f.N)
	for ch := 0; ch < n; ch++ {
		sum += int32(f.Channel(ch))
	}
	var out frame.Frame[int16]
	out.N = 1
	out.Channels[0] = int16(sum / int32(n))
	return out, true
}

var _ frame.Source[int16] = (*monoSource)(nil)

// drain pulls src to exhaustion, little-endian-encoding each int16 sample
// into a flat byte buffer ready for wav.Writer, returning the frame count
// alongside it.
func drain(src frame.Source[int16], channels int) ([]byte, int) {
	out := make([]byte, 0, 1<<20)
	frames := 0
	for {
		f, ok := src.Next()
		if !ok {
			break
		}
		for ch := 0; ch < channels; ch++ {
			v := uint16(f.Channel(ch))
			out = append(out, byte(v), byte(v>>8))
		}
		frames++
	}
	return out, frames
}

// writeWAVFile writes audio data to a WAV file
func writeWAVFile(fileName string, audioData []byte, numSamples uint32, numChannels uint16, sampleRate uint32, bitsPerSample uint16) error {
	fOut, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fOut.Close()

	wavWriter := wav.NewWriter(fOut, numSamples, numChannels, sampleRate, bitsPerSample)

	if _, err := wavWriter.Write(audioData); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	return nil
}
