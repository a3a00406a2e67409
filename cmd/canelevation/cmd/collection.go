package cmd

import (
	"fmt"

	"canelevation/internal/canelevation"
	"canelevation/internal/logger"
	"canelevation/internal/stac"

	"github.com/spf13/cobra"
)

var (
	collectionDestination string
	collectionMetadata    string
)

// createCollectionCmd writes the CanElevation collection
var createCollectionCmd = &cobra.Command{
	Use:   "create-collection",
	Short: "Create the CanElevation STAC collection",
	Long: `Create the STAC Collection for the CanElevation point-cloud series.

Collection metadata is read from the open.canada.ca package_show API, or from
a local JSON file holding the package_show "result" object.`,
	Example: `  canelevation create-collection -d ./stac
  canelevation create-collection -d ./stac -m package.json`,
	Args: cobra.NoArgs,
	RunE: runCreateCollection,
}

func init() {
	rootCmd.AddCommand(createCollectionCmd)

	createCollectionCmd.Flags().StringVarP(&collectionDestination, "destination", "d", "", "output directory for collection.json")
	createCollectionCmd.Flags().StringVarP(&collectionMetadata, "metadata", "m", canelevation.Defaults().MetadataURL(), "metadata URL or local JSON file")
	_ = createCollectionCmd.MarkFlagRequired("destination")
}

func runCreateCollection(cmd *cobra.Command, args []string) error {
	ctx := Context()
	l := logger.LoggerFrom(ctx)

	b := newBuilder(cfg, l)
	c, err := b.CreateCollection(ctx, collectionMetadata)
	if err != nil {
		return err
	}

	path, data, err := c.Encode(collectionDestination)
	if err != nil {
		return err
	}

	validated, err := validate(data)
	if err != nil {
		return fmt.Errorf("collection %s: %w", c.ID, err)
	}

	if err := stac.WriteFile(path, data); err != nil {
		return err
	}
	l.Info("collection written", "id", c.ID, "path", path)

	return writer(cmd).Write(writeResult{
		Kind:       "Collection",
		RecordID:   c.ID,
		Path:       path,
		Validated:  validated,
		Extensions: c.StacExtensions,
	})
}

// validate checks data against the STAC schemas when validation is enabled
// and reports whether it ran.
func validate(data []byte) (bool, error) {
	if !validationEnabled() {
		return false, nil
	}
	if err := newValidator(cfg, Log()).Validate(Context(), data); err != nil {
		return false, err
	}
	return true, nil
}
