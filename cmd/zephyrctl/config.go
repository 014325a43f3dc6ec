package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"zephyr/pkg"
)

// tuningFile is the shape of the --config file: a hujson (JSON with
// comments and trailing commas) document overriding a subset of the
// engine's Config fields. Fields left unset keep engine.DefaultConfig's
// value, with two exceptions: when only submission_depth is set, the
// completion depth follows it rather than keeping its default, and
// direct_io_alignment is ignored unless direct_io is true.
type tuningFile struct {
	Workers               *int    `json:"workers"`
	SubmissionDepth       *uint32 `json:"submission_depth"`
	CompletionDepth       *uint32 `json:"completion_depth"`
	FDSlotsPerWorker      *int    `json:"fd_slots_per_worker"`
	DirectIO              *bool   `json:"direct_io"`
	DirectIOAlignment     *uint64 `json:"direct_io_alignment"`
	FileSizeCacheCapacity *int    `json:"file_size_cache_capacity"`
}

// loadOptions reads path, if non-empty, as hujson and turns it into the
// pkg.Option list New needs. A missing or empty path is not an error: it
// just means "use the defaults".
func loadOptions(path string) ([]pkg.Option, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zephyrctl: reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("zephyrctl: invalid config %s: %w", path, err)
	}

	var tf tuningFile
	if err := json.Unmarshal(standardized, &tf); err != nil {
		return nil, fmt.Errorf("zephyrctl: invalid config %s: %w", path, err)
	}

	var opts []pkg.Option
	if tf.Workers != nil {
		opts = append(opts, pkg.WithWorkers(*tf.Workers))
	}
	if tf.SubmissionDepth != nil || tf.CompletionDepth != nil {
		sd, cd := depthOrZero(tf.SubmissionDepth), depthOrZero(tf.CompletionDepth)
		opts = append(opts, pkg.WithRingDepth(sd, cd))
	}
	if tf.FDSlotsPerWorker != nil {
		opts = append(opts, pkg.WithFDSlotsPerWorker(*tf.FDSlotsPerWorker))
	}
	if tf.DirectIO != nil && *tf.DirectIO {
		alignment := uint64(512)
		if tf.DirectIOAlignment != nil {
			alignment = *tf.DirectIOAlignment
		}
		opts = append(opts, pkg.WithDirectIO(alignment))
	}
	if tf.FileSizeCacheCapacity != nil {
		opts = append(opts, pkg.WithFileSizeCacheCapacity(*tf.FileSizeCacheCapacity))
	}
	return opts, nil
}

func depthOrZero(v *uint32) uint32 {
	if v == nil {
		return 0
	}
	return *v
}
