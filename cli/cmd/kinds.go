package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/definition"
)

func newKindsCmd(a func() *app, printer func() *core.Printer) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the metadata kinds and how they are displayed and persisted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			defs := a().reg.All()
			if printer().JSON {
				b, err := json.MarshalIndent(defs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tEDIT\tWRITE-BACK\tALBUM\tITEM")
			for _, d := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Kind, d.DisplayName, d.EditMode, writeBack(d, a().cfg.PersistDefault),
					yesNo(d.VisibleForContainer), yesNo(d.VisibleForLeaf))
			}
			return tw.Flush()
		},
	}
}

func writeBack(d definition.Definition, galleryDefault bool) string {
	switch {
	case !definition.IsPersistable(d.Kind):
		return "-"
	case d.Persists(galleryDefault):
		return "yes"
	}
	return "no"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
