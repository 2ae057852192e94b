package video

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/internal/fixture"
	"github.com/rdogmartin/gallerymeta/internal/fsys"
)

type fakeEncoder struct {
	out   string
	err   error
	calls int
}

func (f *fakeEncoder) Output(context.Context, string, int) (string, error) {
	f.calls++
	return f.out, f.err
}

const probe = `  Duration: 00:01:15.20, start: 0.000000, bitrate: 932 kb/s
    Stream #0:0: Video: h264 (High), yuv420p, 1280x720 [SAR 1:1 DAR 16:9], 29.97 fps
      rotate          : 90
    Stream #0:1: Audio: aac (LC), 44100 Hz, stereo, fltp, 128 kb/s
`

func box(typ string, body []byte) []byte {
	b := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(b, uint32(8+len(body)))
	copy(b[4:], typ)
	return append(b, body...)
}

// mp4 builds ftyp + moov/mvhd (version 0) with the given timescale and
// duration.
func mp4(scale, dur uint32) []byte {
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[12:], scale)
	binary.BigEndian.PutUint32(mvhd[16:], dur)
	var buf bytes.Buffer
	buf.Write(box("ftyp", []byte("isom\x00\x00\x02\x00isomiso2")))
	buf.Write(box("free", nil))
	buf.Write(box("moov", box("mvhd", mvhd)))
	return buf.Bytes()
}

func newVideo(t *testing.T, enc core.EncoderOutputProvider, data []byte) *Resolver {
	t.Helper()
	p := fixture.WriteFile(t, t.TempDir(), "clip.mp4", data)
	obj := core.MediaObject{Kind: core.MediaVideo, Path: p, Width: 320, Height: 240}
	return New(obj, leaf.Env{FS: fsys.OS{}, Encoder: enc, Settings: core.GallerySettings{Locale: "en-US"}})
}

func TestVideoKinds(t *testing.T) {
	enc := &fakeEncoder{out: probe}
	r := newVideo(t, enc, mp4(1000, 5000))
	tests := []struct {
		kind      core.Kind
		formatted string
		raw       string
	}{
		{core.KindDuration, "00:01:15.20", "75.2"},
		{core.KindBitRate, "932 kb/s", "932"},
		{core.KindAudioFormat, "Audio: aac (LC), 44100 Hz, stereo, fltp, 128 kb/s", "Audio: aac (LC), 44100 Hz, stereo, fltp, 128 kb/s"},
		{core.KindWidth, "1280 px", "1280"},
		{core.KindHeight, "720 px", "720"},
		{core.KindDimensions, "1280 x 720", ""},
		{core.KindOrientation, "Rotate 90", "6"},
		{core.KindFileName, "clip.mp4", "clip.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v, ok, err := r.Get(tt.kind)
			if err != nil || !ok {
				t.Fatalf("Get = %+v, %v, %v", v, ok, err)
			}
			if v.Formatted != tt.formatted || v.Raw != tt.raw {
				t.Errorf("Get = %+v, want %q / %q", v, tt.formatted, tt.raw)
			}
		})
	}
	if enc.calls != 1 {
		t.Errorf("encoder ran %d times", enc.calls)
	}
}

func TestDurationFallsBackToMovieHeader(t *testing.T) {
	r := newVideo(t, &fakeEncoder{err: errors.New("ffmpeg not found")}, mp4(600, 45300))
	v, ok, err := r.Get(core.KindDuration)
	if err != nil || !ok || v.Formatted != "00:01:15.50" || v.Raw != "75.5" {
		t.Errorf("Get = %+v, %v, %v", v, ok, err)
	}
	if _, ok, _ := r.Get(core.KindBitRate); ok {
		t.Error("bit rate without encoder output")
	}
	if _, ok, _ := r.Get(core.KindOrientation); ok {
		t.Error("orientation without encoder output")
	}
	v, ok, _ = r.Get(core.KindWidth)
	if !ok || v.Formatted != "320 px" {
		t.Errorf("Width = %+v, %v", v, ok)
	}
}

func TestMovieDuration(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want float64
		ok   bool
	}{
		{"v0", mp4(1000, 2500), 2.5, true},
		{"zero scale", mp4(0, 2500), 0, false},
		{"no moov", box("ftyp", []byte("isom")), 0, false},
		{"truncated", []byte{0, 0, 0, 40, 'm', 'o'}, 0, false},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MovieDuration(bytes.NewReader(tt.data))
			if ok != tt.ok || got != tt.want {
				t.Errorf("MovieDuration = %v, %v", got, ok)
			}
		})
	}
}
