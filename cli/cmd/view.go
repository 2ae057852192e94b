package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rdogmartin/gallerymeta/core"
)

type viewOptions struct {
	kinds        []string
	album        bool
	externalHTML string
}

func newViewCmd(a func() *app, printer func() *core.Printer) *cobra.Command {
	opts := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view [file...]",
		Short: "Show the metadata of media files or albums",
		Example: `  gallerymeta view photo.jpg
  gallerymeta view --kind Title --kind IsoSpeed photo.jpg
  gallerymeta view --album ~/Pictures/Holidays
  gallerymeta view --external-html '<iframe src="https://example.com/v/1"></iframe>'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.externalHTML == "" && len(args) == 0 {
				return fmt.Errorf("view needs a file or --external-html")
			}
			filter, err := parseKinds(opts.kinds)
			if err != nil {
				return err
			}
			p := printer()
			p.Writer = cmd.OutOrStdout()

			if opts.externalHTML != "" {
				obj := core.MediaObject{GalleryID: a().cfg.GalleryID, Kind: core.MediaExternal, ExternalHTML: opts.externalHTML}
				return a().view(p, "(external)", core.FmtUnknown, obj, filter)
			}
			for _, path := range args {
				obj, format, err := a().objectFor(path)
				if err != nil {
					return err
				}
				if opts.album && obj.Kind != core.MediaContainer {
					return fmt.Errorf("%s is not a directory", path)
				}
				if err := a().view(p, obj.Path, format, obj, filter); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.kinds, "kind", nil, "only show these kinds (repeatable)")
	cmd.Flags().BoolVar(&opts.album, "album", false, "require the arguments to be album directories")
	cmd.Flags().StringVar(&opts.externalHTML, "external-html", "", "describe an externally hosted object by its embed markup")
	return cmd
}

func (a *app) view(p *core.Printer, name string, format core.FormatID, obj core.MediaObject, filter []core.Kind) error {
	col, err := a.extract(obj)
	if err != nil {
		return err
	}
	var rows []core.Row
	for _, it := range col.Items() {
		if len(filter) > 0 && !slices.Contains(filter, it.Kind()) {
			continue
		}
		r := it.Row()
		if len(filter) > 0 {
			r.Visible = true
		}
		rows = append(rows, r)
	}
	p.PrintRows(name, format, rows)
	return nil
}

func parseKinds(names []string) ([]core.Kind, error) {
	var out []core.Kind
	for _, n := range names {
		k, err := core.ParseKind(n)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
