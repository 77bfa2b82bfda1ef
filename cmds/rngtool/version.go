package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/safing/bufrng/base/info"
	"github.com/safing/bufrng/base/rng"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and related metadata.",
	RunE:  version,
}

func version(cmd *cobra.Command, args []string) error {
	fmt.Println(info.FullVersion(
		[2]string{"entropy source", rng.OSSource{}.String()},
		[2]string{"stream", cfg.Stream},
		[2]string{"buffer words", strconv.Itoa(cfg.BufferWords)},
		[2]string{"reseed threshold", strconv.FormatUint(cfg.ReseedThreshold, 10)},
	))
	return nil
}
