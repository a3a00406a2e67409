package cmd

import (
	"fmt"

	"canelevation/internal/canelevation"
	"canelevation/internal/logger"
	"canelevation/internal/stac"

	"github.com/spf13/cobra"
)

var (
	itemReader            string
	itemQuick             bool
	itemPointcloudType    string
	itemComputeStatistics bool
	itemNoStatistics      bool
	itemProviders         string
)

// createItemCmd writes one item for a point-cloud file
var createItemCmd = &cobra.Command{
	Use:   "create-item HREF DESTINATION",
	Short: "Create a STAC item for a point cloud",
	Long: `Create a STAC Item from a point-cloud file and write it to DESTINATION/<id>.json.

HREF may be a local path or a URL readable by PDAL. In quick mode only the
file summary is read and the acquisition date is taken from the file name.`,
	Example: `  canelevation create-item NB_Fundy_2016_1m_2480000_7380000.copc.laz ./stac
  canelevation create-item --quick --reader readers.copc https://host/tile.copc.laz ./stac
  canelevation create-item --compute-statistics -p providers.json tile.laz ./stac`,
	Args: cobra.ExactArgs(2),
	RunE: runCreateItem,
}

func init() {
	rootCmd.AddCommand(createItemCmd)

	f := createItemCmd.Flags()
	f.StringVarP(&itemReader, "reader", "r", "", "PDAL reader override, e.g. readers.copc")
	f.BoolVarP(&itemQuick, "quick", "q", false, "read only the file summary")
	f.StringVarP(&itemPointcloudType, "pointcloud-type", "t", canelevation.DefaultPointcloudType, "pc:type value")
	f.BoolVar(&itemComputeStatistics, "compute-statistics", false, "compute per-dimension statistics")
	f.BoolVar(&itemNoStatistics, "no-compute-statistics", false, "do not compute statistics")
	f.StringVarP(&itemProviders, "providers", "p", "", "JSON file with additional providers")
	createItemCmd.MarkFlagsMutuallyExclusive("compute-statistics", "no-compute-statistics")
}

func runCreateItem(cmd *cobra.Command, args []string) error {
	href, destination := args[0], args[1]
	if href == "" {
		return usageError("HREF must not be empty")
	}

	ctx := Context()
	l := logger.LoggerFrom(ctx)

	opts := canelevation.ItemOptions{
		Reader:            itemReader,
		Quick:             itemQuick,
		PointcloudType:    itemPointcloudType,
		ComputeStatistics: itemComputeStatistics && !itemNoStatistics,
	}
	if itemProviders != "" {
		providers, err := canelevation.LoadProviders(itemProviders)
		if err != nil {
			return err
		}
		opts.Providers = providers
	}

	item, err := newBuilder(cfg, l).CreateItem(ctx, href, opts)
	if err != nil {
		return err
	}

	path, data, err := item.Encode(destination)
	if err != nil {
		return err
	}

	validated, err := validate(data)
	if err != nil {
		return fmt.Errorf("item %s: %w", item.ID, err)
	}

	if err := stac.WriteFile(path, data); err != nil {
		return err
	}
	l.Info("item written", "id", item.ID, "path", path)

	return writer(cmd).Write(writeResult{
		Kind:       "Item",
		RecordID:   item.ID,
		Path:       path,
		Validated:  validated,
		Extensions: item.StacExtensions,
	})
}
