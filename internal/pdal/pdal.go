// Package pdal runs the PDAL command line application to read point-cloud
// metadata.
package pdal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"canelevation/internal/config"
	"canelevation/internal/logger"
	"canelevation/internal/pointcloud"
)

// ErrNotInstalled is returned when the pdal executable cannot be found.
var ErrNotInstalled = errors.New("pdal: executable not found")

// Client implements pointcloud.Library by running the pdal executable.
type Client struct {
	binary  string
	timeout time.Duration
	log     *logger.Logger
}

var _ pointcloud.Library = (*Client)(nil)

// New creates a client from configuration. A nil logger discards output.
func New(cfg config.PDALConfig, log *logger.Logger) *Client {
	binary := cfg.Binary
	if binary == "" {
		binary = "pdal"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		binary:  binary,
		timeout: cfg.Timeout,
		log:     log.WithGroup("pdal"),
	}
}

// Execute runs the pipeline with `pdal pipeline --stdin --metadata` and
// returns the stage metadata.
func (c *Client) Execute(ctx context.Context, p pointcloud.Pipeline) (*pointcloud.Execution, error) {
	pipeline, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("pdal: encode pipeline: %w", err)
	}

	tmp, err := os.CreateTemp("", "canelevation-pdal-*.json")
	if err != nil {
		return nil, fmt.Errorf("pdal: create metadata file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if _, err := c.run(ctx, pipeline, "pipeline", "--stdin", "--metadata", tmp.Name()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("pdal: read metadata: %w", err)
	}
	meta, err := decodeStages(data)
	if err != nil {
		return nil, err
	}

	return &pointcloud.Execution{Metadata: meta}, nil
}

// decodeStages accepts both the {"stages": ...} and {"metadata": ...}
// envelopes written by different PDAL releases.
func decodeStages(data []byte) (pointcloud.Metadata, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("pdal: decode metadata: %w", err)
	}

	for _, key := range []string{"stages", "metadata"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var meta pointcloud.Metadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("pdal: decode %s: %w", key, err)
		}
		return meta, nil
	}

	return pointcloud.Metadata(envelope), nil
}

// Schema returns the point layout with `pdal info --schema`.
func (c *Client) Schema(ctx context.Context, r pointcloud.Reader) ([]pointcloud.Dimension, error) {
	out, err := c.run(ctx, nil, infoArgs(r, "--schema")...)
	if err != nil {
		return nil, err
	}

	var info struct {
		Schema struct {
			Dimensions []pointcloud.Dimension `json:"dimensions"`
		} `json:"schema"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("pdal: decode schema: %w", err)
	}
	return info.Schema.Dimensions, nil
}

// QuickInfo returns the header summary with `pdal info --summary`, keyed
// by the reader that produced it.
func (c *Client) QuickInfo(ctx context.Context, r pointcloud.Reader) (pointcloud.Metadata, error) {
	out, err := c.run(ctx, nil, infoArgs(r, "--summary")...)
	if err != nil {
		return nil, err
	}

	var info struct {
		Reader  string          `json:"reader"`
		Summary json.RawMessage `json:"summary"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("pdal: decode summary: %w", err)
	}
	if len(info.Summary) == 0 {
		return nil, fmt.Errorf("pdal: no summary for %s", r.Href)
	}

	key := info.Reader
	if key == "" {
		key = r.Driver()
	}
	return pointcloud.Metadata{key: info.Summary}, nil
}

var versionPattern = regexp.MustCompile(`pdal (\d+\.\d+(?:\.\d+)?)`)

// Version returns the installed PDAL release.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, nil, "--version")
	if err != nil {
		return "", err
	}
	m := versionPattern.FindSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("pdal: unrecognised version output %q", strings.TrimSpace(string(out)))
	}
	return string(m[1]), nil
}

func infoArgs(r pointcloud.Reader, mode string) []string {
	args := []string{"info", mode}
	if r.Type != "" {
		args = append(args, "--driver", r.Type)
	}
	return append(args, r.Href)
}

// run executes pdal with args, feeding stdin when non-nil.
func (c *Client) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	start := time.Now()
	c.log.Debug("running", "binary", c.binary, "args", strings.Join(args, " "))

	err := cmd.Run()
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrNotInstalled, c.binary)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("pdal %s: %w", args[0], context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("pdal %s: %v: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	c.log.Debug("finished", "args", args[0], "duration", time.Since(start))
	return stdout.Bytes(), nil
}
