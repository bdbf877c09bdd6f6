package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/ocrbatch/internal/batch"
	"github.com/MeKo-Tech/ocrbatch/internal/config"
	"github.com/MeKo-Tech/ocrbatch/internal/engine"
	"github.com/spf13/cobra"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recognize the text of every identified image in a directory",
		Long: `Scan the input directory (non-recursively), keep the files whose stem is
listed in the identifier file and whose extension is accepted, detect text
regions, recognize each region and write the results as one JSON array.

Every processed image prints a progress line. The report is written once,
after the last image.`,
		Example: `  ocrbatch run --input ./images --ids ./ids.txt --output ./results.json
  ocrbatch run -i ./images --ids ids.txt -o out.json --engine remote --endpoint http://ocr:8080
  ocrbatch run -i ./images --ids ids.txt -o out.json --extensions .png,.jpg --workers 4 --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.config()
			applyRunFlags(cmd, cfg)
			applyEngineFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runBatch(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "directory containing the images")
	flags.String("ids", "", "file with one image identifier (file name stem) per line")
	flags.StringP("output", "o", "", "path of the JSON report (overwritten)")
	flags.Int("padding", config.DefaultConfig().Batch.Padding, "pixels added around each detected region")
	flags.StringSlice("extensions", []string{".png"}, "accepted file extensions; empty accepts any extension")
	flags.Bool("any-extension", false, "accept files of any extension (same as --extensions \"\")")
	flags.Bool("clamp-boxes", true, "clamp the padded boxes to the image bounds")
	flags.String("on-decode-error", string(batch.DecodeRecord), "undecodable images: record (empty entry) or skip")
	flags.Int("workers", 1, "number of images processed concurrently")
	flags.String("metrics-file", "", "write Prometheus metrics of the run to this file")
	flags.Bool("stats", false, "print processing statistics")
	flags.BoolP("quiet", "q", false, "do not print progress lines")
	addEngineFlags(cmd)

	return cmd
}

// addEngineFlags registers the flags shared by commands that build an engine.
func addEngineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("engine", config.EngineONNX, "OCR engine (onnx, remote, tesseract)")
	flags.String("endpoint", "", "base URL of the OCR service for the remote engine")
	flags.String("language", "", "recognition language profile, e.g. vi")
	flags.Bool("beam-search", false, "use beam search decoding in the recognizer")
	flags.Bool("gpu", false, "use GPU acceleration for ONNX inference")
}

// applyRunFlags copies explicitly set batch flags over the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Batch.InputDir, _ = flags.GetString("input")
	}
	if flags.Changed("ids") {
		cfg.Batch.IDsFile, _ = flags.GetString("ids")
	}
	if flags.Changed("output") {
		cfg.Batch.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("padding") {
		cfg.Batch.Padding, _ = flags.GetInt("padding")
	}
	if flags.Changed("extensions") {
		cfg.Batch.Extensions, _ = flags.GetStringSlice("extensions")
	}
	if anyExt, _ := flags.GetBool("any-extension"); anyExt {
		cfg.Batch.Extensions = nil
	}
	if flags.Changed("clamp-boxes") {
		cfg.Batch.ClampBoxes, _ = flags.GetBool("clamp-boxes")
	}
	if flags.Changed("on-decode-error") {
		cfg.Batch.OnDecodeError, _ = flags.GetString("on-decode-error")
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File, _ = flags.GetString("metrics-file")
	}
}

// applyEngineFlags copies explicitly set engine flags over the configuration.
func applyEngineFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("endpoint") {
		cfg.Remote.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("language") {
		cfg.Recognizer.Language, _ = flags.GetString("language")
	}
	if flags.Changed("beam-search") {
		cfg.Recognizer.BeamSearch, _ = flags.GetBool("beam-search")
	}
	if flags.Changed("gpu") {
		cfg.GPU.Enabled, _ = flags.GetBool("gpu")
	}
}

func batchOptions(cfg *config.Config) batch.Options {
	return batch.Options{
		InputDir:      cfg.Batch.InputDir,
		IDsFile:       cfg.Batch.IDsFile,
		OutputFile:    cfg.Batch.OutputFile,
		Extensions:    cfg.Batch.Extensions,
		Padding:       cfg.Batch.Padding,
		ClampBoxes:    cfg.Batch.ClampBoxes,
		OnDecodeError: batch.DecodePolicy(cfg.Batch.OnDecodeError),
		Workers:       cfg.Batch.Workers,
		MetricsFile:   cfg.Metrics.File,
	}
}

// newProgress reports progress to the debug log and, unless --quiet is set,
// prints the progress lines to stdout.
func newProgress(cmd *cobra.Command) batch.ProgressCallback {
	logged := batch.NewLogProgressCallback(slog.Default(), slog.LevelDebug)
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return logged
	}
	return batch.NewMultiProgressCallback(batch.NewConsoleProgressCallback(cmd.OutOrStdout()), logged)
}

func runBatch(cmd *cobra.Command, cfg *config.Config) error {
	opts := batchOptions(cfg)
	// Startup problems with the inputs are reported before models are loaded.
	if err := opts.Validate(); err != nil {
		return err
	}
	opts.Progress = newProgress(cmd)

	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s engine: %w", cfg.Engine, err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Warn("failed to release engine", "engine", eng.Name, "error", err)
		}
	}()

	res, err := batch.Run(cmd.Context(), opts, eng.Detector, eng.Recognizer)
	if err != nil {
		return err
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		res.Stats.Print(cmd.OutOrStdout())
	}
	return nil
}
