package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/model"
)

var logsCmd = &cobra.Command{
	Use:   "logs [item-id]",
	Short: "Show the item audit trail",
	Long: `Logs shows the audit trail, newest first. With an item id only that
item's history is shown, including the field-level changes of each edit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

var flagLogsDiff bool

func init() {
	logsCmd.Flags().BoolVar(&flagLogsDiff, "diff", false, "show field-level changes for updates")
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	var logs []model.ItemLog
	var err error
	if len(args) == 1 {
		logs, err = app.client.ItemLogs(ctx, args[0])
	} else {
		logs, err = app.client.ListLogs(ctx)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(logs)
	}

	for _, l := range logs {
		name := l.ItemName
		if name == "" {
			name = l.ItemID
		}
		fmt.Printf("%s  %-6s  %s", l.CreatedAt.Format("2006-01-02 15:04"), l.Action, name)
		if l.UserName != "" {
			fmt.Printf("  by %s", l.UserName)
		}
		fmt.Println()

		if l.Note != "" {
			fmt.Printf("    %s\n", l.Note)
		}
		if flagLogsDiff && l.Action == model.LogActionUpdate {
			for _, c := range l.Changes() {
				fmt.Printf("    %s: %s -> %s\n", c.Field, c.Before, c.After)
			}
		}
	}
	return nil
}
