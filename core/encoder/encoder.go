// Package encoder reads technical properties of audio and video files out of
// the diagnostic text an external encoder (ffmpeg) prints for its input.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/internal/logger"
)

var (
	durationRe = regexp.MustCompile(`Duration:\s*([\d:.]+)`)
	bitRateRe  = regexp.MustCompile(`[Bb]itrate:\s*(\d+)`)
	audioRe    = regexp.MustCompile(`[Aa]udio:.*`)
	videoRe    = regexp.MustCompile(`[Vv]ideo:.*`)
	sizeRe     = regexp.MustCompile(`,\s*(\d{2,5})x(\d{2,5})[\s,\[]`)
	rotateRe   = regexp.MustCompile(`rotate\s*:\s*(-?\d+)`)
	matrixRe   = regexp.MustCompile(`displaymatrix: rotation of (-?[\d.]+) degrees`)
)

// Info is what could be read from one encoder output. Zero fields were not
// present.
type Info struct {
	Duration    string
	BitRateKbps int64
	Audio       string
	Video       string
	Width       int
	Height      int
	// Rotation is clockwise degrees normalized to 0, 90, 180 or 270.
	// HasRotation tells a stated 0 from a missing value.
	Rotation    int
	HasRotation bool
}

// Parse extracts Info from encoder diagnostic text.
func Parse(text string) Info {
	var in Info
	if m := durationRe.FindStringSubmatch(text); m != nil {
		in.Duration = strings.TrimRight(m[1], ".")
	}
	if m := bitRateRe.FindStringSubmatch(text); m != nil {
		in.BitRateKbps, _ = strconv.ParseInt(m[1], 10, 64)
	}
	in.Audio = strings.TrimSpace(audioRe.FindString(text))
	in.Video = strings.TrimSpace(videoRe.FindString(text))
	if in.Video != "" {
		if m := sizeRe.FindStringSubmatch(in.Video + " "); m != nil {
			in.Width, _ = strconv.Atoi(m[1])
			in.Height, _ = strconv.Atoi(m[2])
		}
	}
	if m := rotateRe.FindStringSubmatch(text); m != nil {
		if deg, err := strconv.Atoi(m[1]); err == nil {
			in.Rotation, in.HasRotation = normalize(deg), true
		}
	} else if m := matrixRe.FindStringSubmatch(text); m != nil {
		// displaymatrix reports counter-clockwise rotation.
		if deg, err := strconv.ParseFloat(m[1], 64); err == nil {
			in.Rotation, in.HasRotation = normalize(-int(deg)), true
		}
	}
	return in
}

func normalize(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// ─── ffmpeg provider ─────────────────────────────────────────────────────────

// FFmpeg runs "ffmpeg -i <file>" and returns its combined output.
type FFmpeg struct {
	Path    string
	Timeout time.Duration
	log     *logger.Logger
}

var _ core.EncoderOutputProvider = (*FFmpeg)(nil)

// NewFFmpeg returns a provider running the binary at path.
func NewFFmpeg(path string, timeout time.Duration, log *logger.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, Timeout: timeout, log: log.WithField("component", "encoder")}
}

// Output implements core.EncoderOutputProvider. ffmpeg exits non-zero when
// no output file is given, so the exit status is ignored as long as it
// printed something.
func (f *FFmpeg) Output(ctx context.Context, path string, galleryID int) (string, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, f.Path, "-hide_banner", "-nostdin", "-i", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%s %s: %w", f.Path, path, ctxErr)
	}
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && out.Len() > 0) {
		return "", fmt.Errorf("%s %s: %w", f.Path, path, err)
	}
	f.log.WithFields(map[string]any{"path": path, "gallery_id": galleryID, "bytes": out.Len()}).Debug("encoder output captured")
	return out.String(), nil
}

// ─── Values ──────────────────────────────────────────────────────────────────

// Probe runs the provider against path and parses its output.
func Probe(ctx context.Context, p core.EncoderOutputProvider, path string, galleryID int) (Info, error) {
	if p == nil {
		return Info{}, nil
	}
	out, err := p.Output(ctx, path, galleryID)
	if err != nil {
		return Info{}, err
	}
	return Parse(out), nil
}

// Seconds converts an encoder duration such as 00:01:15.20 to seconds.
func Seconds(d string) (float64, bool) {
	parts := strings.Split(d, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

// FormatSeconds renders seconds the way the encoder prints durations.
func FormatSeconds(sec float64) string {
	cs := int64(sec*100 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d.%02d", cs/360000, cs/6000%60, cs/100%60, cs%100)
}

// Value answers the kinds every encoder-probed file shares: duration, bit
// rate and the audio and video stream descriptions.
func (in Info) Value(kind core.Kind, f *core.Formatter) (core.MetaValue, bool) {
	switch kind {
	case core.KindDuration:
		sec, ok := Seconds(in.Duration)
		if !ok {
			return core.MetaValue{}, false
		}
		return core.NewMetaValue(in.Duration, core.Number(sec)), true
	case core.KindBitRate:
		if in.BitRateKbps <= 0 {
			return core.MetaValue{}, false
		}
		return core.NewMetaValue(f.Int(in.BitRateKbps)+" kb/s", strconv.FormatInt(in.BitRateKbps, 10)), true
	case core.KindAudioFormat:
		s := strings.TrimSpace(in.Audio)
		return core.TextValue(s), s != ""
	case core.KindVideoFormat:
		s := strings.TrimSpace(in.Video)
		return core.TextValue(s), s != ""
	}
	return core.MetaValue{}, false
}
