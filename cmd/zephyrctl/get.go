package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"zephyr/pkg"
)

var getHexOut bool

func init() {
	cmd := &cobra.Command{
		Use:   "get <path> <start> <end>",
		Short: "Read a single byte range out of one file",
		Long: `get opens a single-worker engine, submits one Get for the
given byte range, and prints the result.

start and end follow the engine's ByteRange convention: non-negative
values are offsets from the start of the file, negative values are
offsets from the end of the file.

Example:
  zephyrctl get /data/blob 0 4096
  zephyrctl get /data/blob -500 -1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
	cmd.Flags().BoolVar(&getHexOut, "hex", false, "print the result hex-encoded instead of raw")
	rootCmd.AddCommand(cmd)
}

func runGet(args []string) error {
	path := args[0]
	start, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("zephyrctl: invalid start %q: %w", args[1], err)
	}
	end, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("zephyrctl: invalid end %q: %w", args[2], err)
	}

	opts, err := loadOptions(configPath)
	if err != nil {
		return err
	}
	opts = append(opts, pkg.WithWorkers(1))

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	eng, err := pkg.Open(log, opts...)
	if err != nil {
		return fmt.Errorf("zephyrctl: starting engine: %w", err)
	}
	defer eng.Close()

	data, closer, err := eng.Get(path, pkg.ByteRange{Start: start, End: end})
	if err != nil {
		return fmt.Errorf("zephyrctl: get: %w", err)
	}
	defer closer.Close()

	if getHexOut {
		fmt.Println(hex.EncodeToString(data))
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}
