package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/safing/bufrng/base/info"
	"github.com/safing/bufrng/base/log"
	"github.com/safing/bufrng/base/rng"
)

var (
	logLevel   string
	configFile string

	// cfg is the rng configuration for all commands, loaded in
	// PersistentPreRunE.
	cfg = rng.DefaultConfig()

	flagBufferWords int
	flagThreshold   uint64
	flagStream      string
)

var rootCmd = &cobra.Command{
	Use:   "rngtool",
	Short: "Generate and inspect buffered randomness",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := log.Start(logLevel, nil); err != nil {
			return err
		}
		return loadConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Shutdown()
	},
	SilenceUsage: true,
}

func init() {
	info.Set("rngtool", "", "GPLv3")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log", "warning", "set log level to [trace|debug|info|warning|error|critical]")
	flags.StringVarP(&configFile, "config", "c", "", "load the rng configuration from a yaml file")
	flags.IntVar(&flagBufferWords, "buffer-words", 0, "seed source buffer size in 64-bit words")
	flags.Uint64Var(&flagThreshold, "threshold", 0, "generator reseed threshold in bytes")
	flags.StringVar(&flagStream, "stream", "", "stream generator: chacha20, chacha8, fortuna-aes or fortuna-serpent")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the config file, if any, and then the flags on top of
// the defaults.
func loadConfig(cmd *cobra.Command) error {
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		var fileCfg rng.Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
		cfg = fileCfg.WithDefaults()
	}

	flags := cmd.Flags()
	if flags.Changed("buffer-words") {
		cfg.BufferWords = flagBufferWords
	}
	if flags.Changed("threshold") {
		cfg.ReseedThreshold = flagThreshold
	}
	if flags.Changed("stream") {
		cfg.Stream = flagStream
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Debugf("rngtool: using buffer of %d words, reseed threshold %d, stream %s", cfg.BufferWords, cfg.ReseedThreshold, cfg.Stream)
	return nil
}
