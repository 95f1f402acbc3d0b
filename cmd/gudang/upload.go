package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/imaging"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file and print its served URL",
	Long: `Upload sends a file to the generic upload endpoint, unattached to any
item. Images are validated and downscaled first; other files go up as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var flagUploadRaw bool

func init() {
	uploadCmd.Flags().BoolVar(&flagUploadRaw, "raw", false, "skip image validation and downscaling")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := requireAuth(ctx); err != nil {
		return err
	}

	path := args[0]
	filename := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if !flagUploadRaw {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening file: %w", err)
		}
		prepared, perr := imaging.Prepare(f, path)
		f.Close()
		if perr == nil {
			filename = prepared.Filename
			data = prepared.Data
		}
		// Not an image: upload the original bytes.
	}

	url, err := app.client.UploadFile(ctx, filename, data)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]string{"url": url})
	}
	fmt.Println(url)
	return nil
}
