package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/api"
	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/imaging"
	"github.com/gudangapp/gudang/internal/model"
	"github.com/gudangapp/gudang/internal/workflow"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List and manage inventory items",
}

var (
	flagItemCategory    string
	flagItemSource      string
	flagItemSearch      string
	flagItemPage        int
	flagItemName        string
	flagItemCondition   string
	flagItemQuantity    int
	flagItemLocation    string
	flagItemDonor       string
	flagItemProcurement string
	flagItemValue       float64
	flagItemImage       string
)

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, falling back to the offline snapshot when the server is unreachable",
	Args:  cobra.NoArgs,
	RunE:  runItemsList,
}

var itemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsShow,
}

var itemsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an item, optionally with a photo",
	Args:  cobra.NoArgs,
	RunE:  runItemsCreate,
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an item's fields, optionally replacing its photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsUpdate,
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsDelete,
}

var itemsRetryUploadCmd = &cobra.Command{
	Use:   "retry-upload <id> <image>",
	Short: "Retry a photo upload after a partial submission failure",
	Args:  cobra.ExactArgs(2),
	RunE:  runItemsRetryUpload,
}

func init() {
	itemsListCmd.Flags().StringVar(&flagItemCategory, "category", "", "filter by category id")
	itemsListCmd.Flags().StringVar(&flagItemSource, "source", "", "filter by item source id")
	itemsListCmd.Flags().StringVar(&flagItemSearch, "search", "", "filter by name substring")
	itemsListCmd.Flags().IntVar(&flagItemPage, "page", 0, "result page")

	itemsCreateCmd.Flags().StringVar(&flagItemName, "name", "", "item name (required)")
	itemsCreateCmd.Flags().StringVar(&flagItemCategory, "category", "", "category id (required)")
	itemsCreateCmd.Flags().StringVar(&flagItemCondition, "condition", "", "condition id (required)")
	itemsCreateCmd.Flags().IntVar(&flagItemQuantity, "quantity", 1, "quantity")
	itemsCreateCmd.Flags().StringVar(&flagItemLocation, "location", "", "location id")
	itemsCreateCmd.Flags().StringVar(&flagItemSource, "source", "", "item source id")
	itemsCreateCmd.Flags().StringVar(&flagItemDonor, "donor", "", "donor id")
	itemsCreateCmd.Flags().StringVar(&flagItemProcurement, "procurement", "", "procurement id")
	itemsCreateCmd.Flags().Float64Var(&flagItemValue, "value", 0, "monetary value")
	itemsCreateCmd.Flags().StringVar(&flagItemImage, "image", "", "path to a photo to upload")
	itemsCreateCmd.MarkFlagRequired("name")
	itemsCreateCmd.MarkFlagRequired("category")
	itemsCreateCmd.MarkFlagRequired("condition")

	itemsUpdateCmd.Flags().StringVar(&flagItemName, "name", "", "item name")
	itemsUpdateCmd.Flags().StringVar(&flagItemCategory, "category", "", "category id")
	itemsUpdateCmd.Flags().StringVar(&flagItemCondition, "condition", "", "condition id")
	itemsUpdateCmd.Flags().IntVar(&flagItemQuantity, "quantity", 0, "quantity")
	itemsUpdateCmd.Flags().StringVar(&flagItemLocation, "location", "", "location id")
	itemsUpdateCmd.Flags().StringVar(&flagItemSource, "source", "", "item source id")
	itemsUpdateCmd.Flags().StringVar(&flagItemDonor, "donor", "", "donor id")
	itemsUpdateCmd.Flags().StringVar(&flagItemProcurement, "procurement", "", "procurement id")
	itemsUpdateCmd.Flags().Float64Var(&flagItemValue, "value", 0, "monetary value")
	itemsUpdateCmd.Flags().StringVar(&flagItemImage, "image", "", "path to a replacement photo")

	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsShowCmd)
	itemsCmd.AddCommand(itemsCreateCmd)
	itemsCmd.AddCommand(itemsUpdateCmd)
	itemsCmd.AddCommand(itemsDeleteCmd)
	itemsCmd.AddCommand(itemsRetryUploadCmd)
}

func runItemsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	filter := model.ItemFilter{
		CategoryID: flagItemCategory,
		SourceID:   flagItemSource,
		Query:      flagItemSearch,
		Page:       flagItemPage,
	}

	items, err := app.client.ListItems(ctx, filter)
	switch {
	case err == nil:
		if filter.IsZero() {
			if serr := app.snapshots.SaveItems(ctx, items); serr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "saving offline snapshot: %v\n", serr)
			}
		}
	case api.ErrKind(err) == api.KindNetwork && filter.IsZero():
		var savedAt time.Time
		items, savedAt, err = app.snapshots.Items(ctx)
		if err != nil {
			return fmt.Errorf("reading offline snapshot: %w", err)
		}
		if savedAt.IsZero() {
			return fmt.Errorf("server unreachable and no offline snapshot available")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "server unreachable, showing snapshot from %s\n",
			savedAt.Local().Format("2006-01-02 15:04"))
	default:
		return err
	}

	if flagJSON {
		return printJSON(items)
	}

	categories := lookupsBestEffort(ctx, model.LookupCategories)
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tQTY\tPHOTO")
	for _, it := range items {
		photo := ""
		if it.PhotoURL != "" {
			photo = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			it.ID, it.Name, model.ResolveName(categories, it.CategoryID), it.Quantity, photo)
	}
	return w.Flush()
}

// lookupsBestEffort fetches one lookup kind, falling back to the offline
// snapshot. Display-only, so failures degrade to raw ids.
func lookupsBestEffort(ctx context.Context, kind string) []model.Lookup {
	lookups, err := app.client.Lookups(ctx, kind)
	if err == nil {
		if serr := app.snapshots.SaveLookups(ctx, kind, lookups); serr != nil {
			fmt.Fprintf(os.Stderr, "saving %s snapshot: %v\n", kind, serr)
		}
		return lookups
	}
	lookups, serr := app.snapshots.Lookups(ctx, kind)
	if serr != nil {
		return nil
	}
	return lookups
}

func runItemsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	item, err := app.client.GetItem(ctx, args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(item)
	}

	categories := lookupsBestEffort(ctx, model.LookupCategories)
	conditions := lookupsBestEffort(ctx, model.LookupConditions)

	fmt.Printf("%s\n", item.Name)
	fmt.Printf("  id:        %s\n", item.ID)
	fmt.Printf("  category:  %s\n", model.ResolveName(categories, item.CategoryID))
	fmt.Printf("  condition: %s\n", model.ResolveName(conditions, item.ConditionID))
	fmt.Printf("  quantity:  %d\n", item.Quantity)
	if item.Value != 0 {
		fmt.Printf("  value:     %.2f\n", item.Value)
	}
	if item.PhotoURL != "" {
		fmt.Printf("  photo:     %s\n", item.PhotoURL)
	}
	fmt.Printf("  created:   %s\n", item.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}

func runItemsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	pending, err := loadPendingUpload(flagItemImage)
	if err != nil {
		return err
	}

	item := model.NewItem{
		Name:          flagItemName,
		CategoryID:    flagItemCategory,
		ConditionID:   flagItemCondition,
		Quantity:      flagItemQuantity,
		LocationID:    flagItemLocation,
		SourceID:      flagItemSource,
		DonorID:       flagItemDonor,
		ProcurementID: flagItemProcurement,
		Value:         flagItemValue,
	}

	result, err := app.submitter.SubmitCreate(ctx, item, pending)
	if err != nil {
		return err
	}

	return reportSubmission(cmd, result)
}

func runItemsUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	patch := model.UpdateItem{
		Name:          changedString(cmd, "name", flagItemName),
		CategoryID:    changedString(cmd, "category", flagItemCategory),
		ConditionID:   changedString(cmd, "condition", flagItemCondition),
		LocationID:    changedString(cmd, "location", flagItemLocation),
		SourceID:      changedString(cmd, "source", flagItemSource),
		DonorID:       changedString(cmd, "donor", flagItemDonor),
		ProcurementID: changedString(cmd, "procurement", flagItemProcurement),
	}
	if cmd.Flags().Changed("quantity") {
		patch.Quantity = &flagItemQuantity
	}
	if cmd.Flags().Changed("value") {
		patch.Value = &flagItemValue
	}

	var result *workflow.Result
	var err error
	if flagItemImage != "" {
		pending, perr := loadPendingUpload(flagItemImage)
		if perr != nil {
			return perr
		}
		// Field changes and the new photo travel in one request.
		result, err = app.submitter.SubmitUpdateWithImage(ctx, args[0], patch, *pending)
	} else {
		result, err = app.submitter.SubmitUpdate(ctx, args[0], patch, nil)
	}
	if err != nil {
		return err
	}

	return reportSubmission(cmd, result)
}

func runItemsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	if err := app.client.DeleteItem(ctx, args[0]); err != nil {
		return err
	}

	app.store.Remove(cache.K("item", args[0]))
	app.store.Invalidate(cache.K("items"))

	fmt.Printf("deleted item %s\n", args[0])
	return nil
}

func runItemsRetryUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	pending, err := loadPendingUpload(args[1])
	if err != nil {
		return err
	}

	result, err := app.submitter.RetryUpload(ctx, args[0], *pending)
	if err != nil {
		return err
	}

	return reportSubmission(cmd, result)
}

// loadPendingUpload reads and prepares an image file for upload. Returns
// nil when path is empty.
func loadPendingUpload(path string) (*workflow.PendingUpload, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	prepared, err := imaging.Prepare(f, path)
	if err != nil {
		return nil, err
	}

	return &workflow.PendingUpload{Filename: prepared.Filename, Data: prepared.Data}, nil
}

// reportSubmission prints the outcome of an item submission, including the
// partial-success case where the record saved but the photo did not.
func reportSubmission(cmd *cobra.Command, result *workflow.Result) error {
	if flagJSON {
		return printJSON(result)
	}

	fmt.Printf("saved item %s (%s)\n", result.Item.ID, result.Item.Name)
	if result.PartialFailure() {
		fmt.Fprintf(cmd.ErrOrStderr(), "photo upload failed: %v\n", result.UploadErr)
		fmt.Fprintf(cmd.ErrOrStderr(), "retry with: gudang items retry-upload %s <image>\n", result.Item.ID)
	} else if result.PhotoURL != "" {
		fmt.Printf("photo: %s\n", result.PhotoURL)
	}
	return nil
}

// changedString returns a pointer to value when the named flag was set.
func changedString(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
