package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"canelevation/internal/canelevation"
	clierrors "canelevation/internal/cli/errors"
	"canelevation/internal/crs"
	"canelevation/internal/metadata"
	"canelevation/internal/pdal"
	"canelevation/internal/pointcloud"
	"canelevation/internal/reproject"
	"canelevation/internal/stac"
)

// classify converts a domain error into a Rich error for display. Errors that
// are already Rich pass through unchanged.
func classify(err error) error {
	if err == nil || clierrors.AsRich(err) != nil {
		return err
	}

	var missing *metadata.MissingKeyError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return clierrors.Timeout("pdal or metadata request", err)
	case errors.Is(err, context.Canceled):
		return clierrors.Wrap(err, clierrors.CodeUnknown, "Interrupted")
	case errors.Is(err, pdal.ErrNotInstalled):
		return clierrors.Wrap(err, clierrors.CodePointCloud, "PDAL is not available").
			WithSuggestions(
				"Install PDAL 2.x and make sure 'pdal' is on PATH",
				"Or point pdal.binary at the executable",
			)
	case errors.Is(err, metadata.ErrFetch):
		return clierrors.Wrap(err, clierrors.CodeMetadataFetch, "Collection metadata could not be retrieved").
			WithSuggestions("Check the metadata URL or pass a local package_show result with --metadata")
	case errors.As(err, &missing):
		return clierrors.Wrap(err, clierrors.CodeMetadataFormat, "Collection metadata is incomplete").
			WithDetails("Missing key: " + missing.Key)
	case errors.Is(err, pointcloud.ErrNoReaderKey),
		errors.Is(err, pointcloud.ErrNoStatistics),
		errors.Is(err, canelevation.ErrInvalidDate):
		return clierrors.Wrap(err, clierrors.CodePointCloud, "Point cloud header could not be used")
	case errors.Is(err, crs.ErrEmpty),
		errors.Is(err, crs.ErrInvalid),
		errors.Is(err, crs.ErrUnresolvable):
		return clierrors.Wrap(err, clierrors.CodeCRS, "Spatial reference could not be interpreted")
	case errors.Is(err, reproject.ErrTransform):
		return clierrors.Wrap(err, clierrors.CodeReprojection, "Bounds could not be reprojected to WGS84")
	case errors.Is(err, stac.ErrValidation):
		return clierrors.Wrap(err, clierrors.CodeValidation, "Generated record is not valid STAC").
			WithSuggestions("Use --skip-validation to write the record anyway")
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return clierrors.Wrap(err, clierrors.CodeIO, "File could not be accessed")
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return clierrors.Wrap(err, clierrors.CodeIO, "File operation failed").
			WithDetails("Path: " + pathErr.Path)
	}

	return err
}

// usageError reports a bad invocation.
func usageError(format string, a ...any) error {
	return clierrors.New(clierrors.CodeUsage, fmt.Sprintf(format, a...)).
		WithSuggestions("Run with --help for usage")
}

func printError(w io.Writer, err error) {
	err = classify(err)
	if isTerminal(w) {
		fmt.Fprintln(w, clierrors.Display(err))
		return
	}
	fmt.Fprint(w, clierrors.DisplaySimple(err))
}
