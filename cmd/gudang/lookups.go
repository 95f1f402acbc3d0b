package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/api"
	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/model"
)

var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "List and manage reference data",
	Long: `Lookups manages the reference tables items point at.

Valid kinds: ` + strings.Join([]string{
		model.LookupCategories, model.LookupConditions, model.LookupItemSources,
		model.LookupLocations, model.LookupProcurementStatuses, model.LookupUserRoles,
	}, ", ") + `

Only ` + strings.Join(model.WritableLookups, ", ") + ` can be created, updated or deleted.`,
}

var flagLookupDescription string

var lookupsListCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List records of one lookup kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		kind := args[0]
		if !model.KnownLookup(kind) {
			return fmt.Errorf("unknown lookup kind %q", kind)
		}

		lookups := lookupsBestEffort(ctx, kind)

		if flagJSON {
			return printJSON(lookups)
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, l := range lookups {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Name, l.Description)
		}
		return w.Flush()
	},
}

var lookupsCreateCmd = &cobra.Command{
	Use:   "create <kind> <name>",
	Short: "Create a lookup record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		kind := args[0]
		lookup, err := app.client.CreateLookup(ctx, kind, api.NewLookup{
			Name:        args[1],
			Description: flagLookupDescription,
		})
		if err != nil {
			return err
		}
		app.store.Invalidate(cache.K("lookup", kind))

		if flagJSON {
			return printJSON(lookup)
		}
		fmt.Printf("created %s record %s (%s)\n", kind, lookup.Name, lookup.ID)
		return nil
	},
}

var lookupsUpdateCmd = &cobra.Command{
	Use:   "update <kind> <id>",
	Short: "Rename or re-describe a lookup record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		kind := args[0]
		patch := api.UpdateLookup{
			Name:        changedString(cmd, "name", flagLookupName),
			Description: changedString(cmd, "description", flagLookupDescription),
		}

		lookup, err := app.client.UpdateLookup(ctx, kind, args[1], patch)
		if err != nil {
			return err
		}
		app.store.Invalidate(cache.K("lookup", kind))

		if flagJSON {
			return printJSON(lookup)
		}
		fmt.Printf("updated %s record %s\n", kind, lookup.Name)
		return nil
	},
}

var flagLookupName string

var lookupsDeleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete a lookup record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		kind := args[0]
		if err := app.client.DeleteLookup(ctx, kind, args[1]); err != nil {
			return err
		}
		app.store.Invalidate(cache.K("lookup", kind))

		fmt.Printf("deleted %s record %s\n", kind, args[1])
		return nil
	},
}

func init() {
	lookupsCreateCmd.Flags().StringVar(&flagLookupDescription, "description", "", "record description")
	lookupsUpdateCmd.Flags().StringVar(&flagLookupName, "name", "", "record name")
	lookupsUpdateCmd.Flags().StringVar(&flagLookupDescription, "description", "", "record description")

	lookupsCmd.AddCommand(lookupsListCmd)
	lookupsCmd.AddCommand(lookupsCreateCmd)
	lookupsCmd.AddCommand(lookupsUpdateCmd)
	lookupsCmd.AddCommand(lookupsDeleteCmd)
}
