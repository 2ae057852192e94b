package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/definition"
	"github.com/rdogmartin/gallerymeta/core/persist"
)

func newSetCmd(a func() *app, printer func() *core.Printer) *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> <Kind=Value>...",
		Short: "Write metadata values into a JPEG file",
		Example: `  gallerymeta set photo.jpg Title="Harbour at dusk" Rating=4
  gallerymeta set photo.jpg Tags="boats, harbour" DatePictureTaken=2021-06-05T14:30:00`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer()
			p.Writer = cmd.OutOrStdout()

			obj, _, err := a().objectFor(args[0])
			if err != nil {
				return err
			}
			col, err := a().extract(obj)
			if err != nil {
				return err
			}
			for _, kv := range args[1:] {
				key, value, ok := core.ParseKV(kv)
				if !ok {
					return fmt.Errorf("%q: want Kind=Value", kv)
				}
				kind, err := core.ParseKind(key)
				if err != nil {
					return err
				}
				if !definition.IsPersistable(kind) {
					return fmt.Errorf("%w: %s", persist.ErrNotPersistable, kind)
				}
				def := a().reg.Lookup(kind)
				it, changed := col.Set(kind, core.TextValue(value), def)
				if !changed {
					p.PrintInfo(fmt.Sprintf("%s unchanged", kind))
					continue
				}
				if !it.PersistToFile {
					p.PrintInfo(fmt.Sprintf("%s is not configured for write-back", kind))
					continue
				}
				if err := a().write(func(w *persist.Writer) { w.Save(obj, it) }); err != nil {
					return err
				}
				it.MarkClean()
				p.PrintSuccess(fmt.Sprintf("%s = %s", kind, value))
			}
			return nil
		},
	}
}

func newDeleteCmd(a func() *app, printer func() *core.Printer) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <file> <Kind>...",
		Short:   "Clear metadata values in a JPEG file",
		Example: `  gallerymeta delete photo.jpg Author Copyright`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer()
			p.Writer = cmd.OutOrStdout()

			obj, _, err := a().objectFor(args[0])
			if err != nil {
				return err
			}
			col, err := a().extract(obj)
			if err != nil {
				return err
			}
			for _, name := range args[1:] {
				kind, err := core.ParseKind(name)
				if err != nil {
					return err
				}
				if !definition.IsPersistable(kind) {
					return fmt.Errorf("%w: %s", persist.ErrNotPersistable, kind)
				}
				it, ok := col.Get(kind)
				if !ok {
					it, _ = col.Set(kind, core.MetaValue{}, a().reg.Lookup(kind))
				}
				it.MarkDeleted()
				if !it.PersistToFile {
					p.PrintInfo(fmt.Sprintf("%s is not configured for write-back", kind))
					continue
				}
				if err := a().write(func(w *persist.Writer) { w.Delete(obj, it) }); err != nil {
					return err
				}
				p.PrintSuccess(fmt.Sprintf("%s cleared", kind))
			}
			col.Sweep()
			return nil
		},
	}
}
