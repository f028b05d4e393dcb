package wav

// WAV decoding for uploaded audio.
//
// Native RIFF/WAVE payloads are decoded in-memory with go-audio. Anything
// else (m4a, ogg, webm, aac, mp3, flac) goes through an ffmpeg subprocess
// that converts it to 16-bit PCM WAV first; the temporary files involved are
// always removed before returning so raw audio never outlives the request.

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Audio bundles decoded mono samples with their sample rate.
type Audio struct {
	Samples    []float64
	SampleRate int
}

// IsWAV reports whether the payload starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// DecodeBytes decodes a WAV payload into mono float64 samples in [-1, 1].
// Multi-channel input is downmixed by channel averaging.
func DecodeBytes(data []byte) (*Audio, error) {
	if len(data) == 0 {
		return nil, errors.New("empty audio payload")
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "decode wav payload failed")
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("wav payload contains no samples")
	}

	bitDepth := int(decoder.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}

	return &Audio{
		Samples:    monoSamples(buf, bitDepth),
		SampleRate: int(decoder.SampleRate),
	}, nil
}

// monoSamples converts an interleaved PCM buffer to mono float64 samples in
// [-1, 1], downmixing by channel averaging.
func monoSamples(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frameCount := len(buf.Data) / channels
	samples := make([]float64, frameCount)
	for i := 0; i < frameCount; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		value := sum / float64(channels)
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		samples[i] = value
	}
	return samples
}

// DecodeFile decodes a WAV file from disk.
func DecodeFile(path string) (*Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read wav file failed")
	}
	return DecodeBytes(data)
}

// CheckFFmpegAvailable verifies that ffmpeg is on PATH. Conversion of
// non-WAV uploads requires it; WAV-only deployments can run without.
func CheckFFmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// ConvertBytesToWAV converts an arbitrary audio payload to 16-bit PCM mono
// WAV using ffmpeg. ext hints the container format ("m4a", "ogg", ...);
// it may be empty, in which case ffmpeg probes the stream itself.
func ConvertBytesToWAV(data []byte, ext string) (converted []byte, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty audio payload")
	}

	tmpDir := os.TempDir()
	stamp := time.Now().UnixNano()
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")

	inputName := fmt.Sprintf("resp_in_%d", stamp)
	if ext != "" {
		inputName += "." + ext
	}
	inputPath := filepath.Join(tmpDir, inputName)
	outputPath := filepath.Join(tmpDir, fmt.Sprintf("resp_out_%d.wav", stamp))

	if err := os.WriteFile(inputPath, data, 0600); err != nil {
		return nil, errors.Wrap(err, "write temp input failed")
	}
	defer func() {
		if removeErr := os.Remove(inputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			err = multierr.Append(err, removeErr)
		}
		if removeErr := os.Remove(outputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			err = multierr.Append(err, removeErr)
		}
	}()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-acodec", "pcm_s16le",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		return nil, errors.Wrapf(runErr, "ffmpeg conversion failed: %s", lastLine(stderr.String()))
	}

	converted, readErr := os.ReadFile(outputPath)
	if readErr != nil {
		return nil, errors.Wrap(readErr, "read converted wav failed")
	}
	return converted, nil
}

// Resample converts samples from one rate to another by linear
// interpolation. It returns the input slice unchanged when rates match.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(math.Round(float64(len(samples)) / ratio))
	if outLen <= 0 {
		outLen = 1
	}

	out := make([]float64, outLen)
	for i := range out {
		position := float64(i) * ratio
		left := int(position)
		if left >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := position - float64(left)
		out[i] = samples[left]*(1-frac) + samples[left+1]*frac
	}
	return out
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
