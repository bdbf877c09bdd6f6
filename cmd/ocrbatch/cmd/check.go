package cmd

import (
	"fmt"
	"sort"

	"github.com/MeKo-Tech/ocrbatch/internal/engine"
	"github.com/spf13/cobra"
)

func newCheckCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the selected OCR engine can be initialized",
		Long: `Check the engine without processing any image:

  onnx       model files, dictionary and ONNX Runtime library
  remote     the /healthz endpoint of the OCR service
  tesseract  the linked Tesseract library (requires -tags tesseract)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.config()
			applyEngineFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Checking %s engine...\n", cfg.Engine)
			res, err := engine.Check(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("%s engine check failed: %w", cfg.Engine, err)
			}

			keys := make([]string, 0, len(res.Details))
			for k := range res.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				_, _ = fmt.Fprintf(out, "  %s: %s\n", k, res.Details[k])
			}
			_, _ = fmt.Fprintln(out, "OK")
			return nil
		},
	}
	addEngineFlags(cmd)
	return cmd
}
