package cmd

import (
	"canelevation/internal/cli/output"
	"canelevation/internal/pdal"
	"canelevation/internal/version"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash and build details of canelevation, and the PDAL version when pdal is installed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		v, err := pdal.New(cfg.PDAL, Log()).Version(Context())
		if err != nil {
			Log().Debug("pdal version unavailable", "error", err)
		} else {
			info.PDALVersion = v
		}
		return writer(cmd).Write(versionResult{info})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionResult struct {
	version.Info `yaml:",inline"`
}

func (r versionResult) ID() string {
	return r.Version
}

func (r versionResult) TableData() *output.Table {
	built := ""
	if !r.BuildTime.IsZero() {
		built = r.BuildTime.Format("2006-01-02 15:04:05 MST")
	}
	pdalVersion := r.PDALVersion
	if pdalVersion == "" {
		pdalVersion = "not found"
	}
	return output.NewKeyValueTable().
		AddPair("canelevation", r.Info.String()).
		AddPair("commit", r.Commit).
		AddPair("built", built).
		AddPair("go", r.GoVersion).
		AddPair("platform", r.OS+"/"+r.Arch).
		AddPair("pdal", pdalVersion)
}
