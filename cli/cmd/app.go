package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/definition"
	"github.com/rdogmartin/gallerymeta/core/encoder"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/core/metadata"
	"github.com/rdogmartin/gallerymeta/core/persist"
	"github.com/rdogmartin/gallerymeta/core/resolve"
	"github.com/rdogmartin/gallerymeta/internal/config"
	"github.com/rdogmartin/gallerymeta/internal/errreport"
	"github.com/rdogmartin/gallerymeta/internal/fsys"
	"github.com/rdogmartin/gallerymeta/internal/logger"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// app holds the collaborators wired from configuration.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	fs      fsys.OS
	reg     *definition.Registry
	env     leaf.Env
	metrics *metrics.Metrics
	gather  prometheus.Gatherer
}

func newApp(cfg *config.Config, logLevel string) (*app, error) {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	lc := logger.DefaultConfig()
	lc.Level, lc.Format = cfg.LogLevel, cfg.LogFormat
	log := logger.New(lc)

	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("load metadata definitions: %w", err)
	}
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	fs := fsys.OS{TempDir: cfg.TempDir}

	var enc core.EncoderOutputProvider
	if cfg.EncoderPath != "" {
		enc = encoder.NewFFmpeg(cfg.EncoderPath, cfg.EncoderTimeout, log)
	}
	return &app{
		cfg:     cfg,
		log:     log,
		fs:      fs,
		reg:     reg,
		metrics: m,
		gather:  promReg,
		env: leaf.Env{
			FS:       fs,
			Settings: cfg.Gallery(),
			Encoder:  enc,
			Log:      log,
			Metrics:  m,
		},
	}, nil
}

// objectFor describes a file on disk as a media object.
func (a *app) objectFor(path string) (core.MediaObject, core.FormatID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return core.MediaObject{}, core.FmtUnknown, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return core.MediaObject{}, core.FmtUnknown, err
	}
	obj := core.MediaObject{GalleryID: a.cfg.GalleryID, Path: abs, DateAdded: fi.ModTime()}
	if fi.IsDir() {
		obj.Kind = core.MediaContainer
		return obj, core.FmtUnknown, nil
	}
	f, err := a.fs.Open(abs)
	if err != nil {
		return obj, core.FmtUnknown, err
	}
	defer f.Close()
	format, err := core.DetectFormat(f, abs)
	if err != nil {
		return obj, core.FmtUnknown, err
	}
	obj.Kind = core.MediaKindFor(format)
	return obj, format, nil
}

func (a *app) extract(obj core.MediaObject) (*metadata.Collection, error) {
	col, err := resolve.Extract(obj, a.env, a.reg)
	var ee *core.ExtractionError
	if err != nil && !errors.As(err, &ee) {
		return nil, err
	}
	// Per-kind defects are already logged; the rest of the values are shown.
	return col, nil
}

// write runs fn against a writer and returns the errors it reported.
func (a *app) write(fn func(w *persist.Writer)) error {
	mem := &errreport.Memory{Next: errreport.NewLog(a.log)}
	w := persist.New(persist.Options{
		FS:              a.fs,
		AllowFileWrites: a.cfg.AllowFileWrites,
		Settings:        a.cfg.Gallery(),
		Reporter:        mem,
		Log:             a.log,
		Metrics:         a.metrics,
	})
	fn(w)
	var errs []error
	for _, e := range mem.Entries() {
		errs = append(errs, e.Err)
	}
	return errors.Join(errs...)
}
