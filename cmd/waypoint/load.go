package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/vango-dev/waypoint/internal/config"
)

// loadConfig loads the configuration named by --config: an s3:// URL, a
// directory, a file, or the working directory when unset.
func loadConfig(ctx context.Context, opts *rootOptions) (*config.Config, error) {
	if bucket, key, ok := config.ParseS3URL(opts.config); ok {
		client, err := config.NewS3Client(config.S3Options{
			Region:   opts.s3Region,
			Endpoint: opts.s3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return config.LoadS3(ctx, client, bucket, key)
	}

	if opts.config == "" {
		return config.Load(".")
	}
	if info, err := os.Stat(opts.config); err == nil && info.IsDir() {
		return config.Load(opts.config)
	}
	return config.LoadFile(opts.config)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
