package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Model asset operations",
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every model manifest and weight shard under MODELS_PATH",
	Args:  cobra.NoArgs,
	RunE:  runModelsCheck,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsCheckCmd)
}

func runModelsCheck(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	loader, err := loadModels(cmd.Context(), e)
	if loader == nil {
		return err
	}

	status := loader.Status()
	out := cmd.OutOrStdout()
	for _, name := range status.Loaded {
		fmt.Fprintf(out, "ok      %s\n", name)
	}
	if status.Failed != "" {
		fmt.Fprintf(out, "FAILED  %s: %s\n", status.Failed, status.Error)
	}
	return err
}
