package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/storage"
	"github.com/spf13/cobra"
)

var (
	historyGroup string
	historyShow  int64
)

// historyCmd lists the files recorded in the attachment database.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List generated files recorded in the attachment database",
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := config.LoadMainConfig(cfgFile, envFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		if mainConfig.DatabasePath == "" {
			return fmt.Errorf("no database_path configured")
		}

		conn, err := storage.Open(mainConfig.DatabasePath)
		if err != nil {
			return err
		}
		defer conn.Close()
		store := storage.NewStore(conn)
		out := cmd.OutOrStdout()

		if historyShow > 0 {
			a, err := store.Get(historyShow)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, a.Content)
			return nil
		}

		attachments, err := store.List(historyGroup)
		if err != nil {
			return err
		}
		if len(attachments) == 0 {
			fmt.Fprintln(out, "No attachments recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tGROUP\tPRESENTER\tJOURNAL\tRECEIPTS\tAMOUNT\tPAYMENT\tCREATED")
		for _, a := range attachments {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				a.ID, a.Group, a.Presenter, a.Journal, a.Receipts, a.Amount, a.PaymentDate,
				a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyGroup, "group", "", "Only list attachments of this group")
	historyCmd.Flags().Int64Var(&historyShow, "show", 0, "Print the content of this attachment")
}
