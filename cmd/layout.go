package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/ginjaninja78/csb19-generator/internal/xlsxparser"
	"github.com/spf13/cobra"
)

var (
	layoutOut   string
	layoutCheck string
)

// layoutCmd prints, exports or checks the record layout.
var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print, export or check the CSB 19 record layout",
	Long: `Without flags, layout prints every record kind with its fields and column
positions. --out writes the same layout as an XLSX workbook, one sheet per
record kind. --check compares a layout workbook (for example one kept by the
bank) against the built-in layout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case layoutCheck != "":
			return checkLayout(out, layoutCheck)
		case layoutOut != "":
			if err := xlsxparser.WriteLayout(layoutOut, records.All); err != nil {
				return err
			}
			fmt.Fprintf(out, "Layout written to %s\n", layoutOut)
			return nil
		default:
			return printLayout(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().StringVar(&layoutOut, "out", "", "Write the layout to this XLSX file")
	layoutCmd.Flags().StringVar(&layoutCheck, "check", "", "Compare this layout XLSX file with the built-in layout")
}

func printLayout(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, kind := range records.All {
		fmt.Fprintf(w, "%s  %s  (%d columns)\n", kind.Code(), kind.Name, kind.Width())
		for _, f := range xlsxparser.FieldsOf(kind) {
			fmt.Fprintf(w, "\t%d-%d\t%s\t%s\t%s\n", f.Start, f.End, f.Name, f.Type, f.Value)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func checkLayout(out io.Writer, path string) error {
	diffs, err := xlsxparser.CheckLayout(path, records.All)
	if err != nil {
		return err
	}
	if len(diffs) == 0 {
		fmt.Fprintln(out, "Layout matches.")
		return nil
	}
	for _, d := range diffs {
		fmt.Fprintln(out, d)
	}
	return fmt.Errorf("layout differs in %d place(s)", len(diffs))
}
