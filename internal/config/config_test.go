package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rdogmartin/gallerymeta/core"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"GALLERY_ID", "DATETIME_FORMAT", "LOCALE", "METADATA_DEFINITIONS", "ENCODER_TIMEOUT", "ALLOW_FILE_WRITES"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.GalleryID != 1 || c.DateTimeFormat != core.DefaultDateTimeFormat || c.Locale != "en-US" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.EncoderTimeout != 30*time.Second || !c.AllowFileWrites {
		t.Errorf("unexpected defaults: %+v", c)
	}
	reg, err := c.Registry()
	if err != nil {
		t.Fatal(err)
	}
	if reg.Lookup(core.KindTitle).DisplayName == "" {
		t.Error("default registry has no title definition")
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("GALLERY_ID", "7")
	t.Setenv("LOCALE", "de-DE")
	t.Setenv("ENCODER_TIMEOUT", "5s")
	t.Setenv("ALLOW_FILE_WRITES", "false")
	t.Setenv("ENCODER_PATH", "/opt/ffmpeg")

	c := FromEnv()
	g := c.Gallery()
	if g.GalleryID != 7 || g.Locale != "de-DE" {
		t.Errorf("gallery settings = %+v", g)
	}
	if c.EncoderTimeout != 5*time.Second || c.AllowFileWrites || c.EncoderPath != "/opt/ffmpeg" {
		t.Errorf("config = %+v", c)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("GALLERY_ID", "seven")
	t.Setenv("ENCODER_TIMEOUT", "soon")
	c := FromEnv()
	if c.GalleryID != 1 || c.EncoderTimeout != 30*time.Second {
		t.Errorf("config = %+v", c)
	}
}

func TestDefinitionsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "defs.yaml")
	yaml := "definitions:\n  - {kind: title, displayName: Name, visibleForItem: true, editMode: PlainText, sequence: 0}\n"
	if err := os.WriteFile(p, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("METADATA_DEFINITIONS", p)
	reg, err := FromEnv().Registry()
	if err != nil {
		t.Fatal(err)
	}
	if got := reg.Lookup(core.KindTitle).DisplayName; got != "Name" {
		t.Errorf("title display name = %q", got)
	}
}
