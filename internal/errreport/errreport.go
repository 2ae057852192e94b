// Package errreport provides core.ErrorReporter implementations.
package errreport

import (
	"sync"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/internal/logger"
)

// Log reports errors to a logger.
type Log struct {
	log *logger.Logger
}

var _ core.ErrorReporter = (*Log)(nil)

// NewLog returns a reporter writing to log.
func NewLog(log *logger.Logger) *Log {
	return &Log{log: log.WithField("component", "errreport")}
}

// Report logs err at error level with the gallery id.
func (l *Log) Report(err error, galleryID int) {
	if err == nil {
		return
	}
	l.log.WithError(err).WithField("gallery_id", galleryID).Error("recovered error")
}

// Entry is one recorded report.
type Entry struct {
	Err       error
	GalleryID int
}

// Memory keeps reports in memory and passes them on to Next, when set.
type Memory struct {
	Next core.ErrorReporter

	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Report(err error, galleryID int) {
	m.mu.Lock()
	m.entries = append(m.entries, Entry{Err: err, GalleryID: galleryID})
	m.mu.Unlock()
	if m.Next != nil {
		m.Next.Report(err, galleryID)
	}
}

// Entries returns a copy of the recorded reports.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
