// Package cmd implements the gallerymeta command line.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/internal/config"
)

type rootOptions struct {
	json     bool
	verbose  bool
	logLevel string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var a *app

	cmd := &cobra.Command{
		Use:   "gallerymeta",
		Short: "Read and edit the metadata of gallery media files",
		Long: `gallerymeta extracts metadata from images, video, audio and albums,
formats it for display and writes edited values back into JPEG files.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err = newApp(cfg, opts.logLevel)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.logMetrics()
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show raw values and hidden items")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	printer := func() *core.Printer { return core.NewPrinter(opts.json, opts.verbose) }
	appFn := func() *app { return a }

	cmd.AddCommand(
		newViewCmd(appFn, printer),
		newSetCmd(appFn, printer),
		newDeleteCmd(appFn, printer),
		newKindsCmd(appFn, printer),
	)
	return cmd
}

// logMetrics writes the counters collected during the command at debug
// level.
func (a *app) logMetrics() {
	families, err := a.gather.Gather()
	if err != nil {
		a.log.WithError(err).Debug("gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			value := m.GetCounter().GetValue()
			if h := m.GetHistogram(); h != nil {
				value = h.GetSampleSum()
			}
			a.log.WithFields(map[string]any{
				"metric": mf.GetName(),
				"labels": strings.Join(labels, ","),
				"value":  value,
			}).Debug("metric")
		}
	}
}
