package errreport

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rdogmartin/gallerymeta/internal/logger"
)

func TestLogReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewLog(logger.New(logger.Config{Level: "info", Format: "json", Out: &buf}))
	r.Report(errors.New("disk full"), 3)
	r.Report(nil, 3)
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("want one entry, got %q", out)
	}
	for _, want := range []string{`"error":"disk full"`, `"gallery_id":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestMemory(t *testing.T) {
	var m Memory
	m.Report(errors.New("a"), 1)
	m.Report(errors.New("b"), 2)
	got := m.Entries()
	if len(got) != 2 || got[1].GalleryID != 2 || got[0].Err.Error() != "a" {
		t.Errorf("entries = %+v", got)
	}
}

func TestMemoryForwards(t *testing.T) {
	next := &Memory{}
	m := Memory{Next: next}
	m.Report(errors.New("a"), 4)
	if got := next.Entries(); len(got) != 1 || got[0].GalleryID != 4 {
		t.Errorf("forwarded = %+v", got)
	}
}
