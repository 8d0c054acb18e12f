package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
	"github.com/saturnino-fabrica-de-software/facematch/internal/models"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Check an image against the registered users",
	Long: `Detect every face in the image and report the first one whose mean
distance to a registered user is below the threshold.

Examples:
  facectl match ./visitor.jpg
  facectl match ./visitor.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runMatch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := newService(cmd.Context(), e)
	if err != nil {
		return err
	}

	result, err := svc.CheckMatch(cmd.Context(), image)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, result.Status)
	if result.Found() {
		fmt.Fprintf(out, "Matched user: %s\n", result.MatchedUser)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FACE\tLABEL\tDISTANCE\tCONFIDENCE\tBOX")
	for i, f := range result.Faces {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.2f\t%s\n", i+1, f.Label, f.Distance, f.Confidence, formatBox(f.Box))
	}
	return w.Flush()
}

// newService loads the models synchronously, then builds the face service.
// The CLI has no camera.
func newService(ctx context.Context, e *env) (*service.FaceService, error) {
	loader, err := loadModels(ctx, e)
	if err != nil {
		return nil, err
	}

	detector, err := face.NewFaceDetector(e.cfg)
	if err != nil {
		return nil, err
	}

	return service.NewFaceService(e.registry, detector, nil, loader, e.logger).
		WithThreshold(e.cfg.MatchThreshold).
		WithDetectionTimeout(e.cfg.DetectionTimeout).
		WithMaxFrameDimension(e.cfg.MaxFrameDimension), nil
}

func loadModels(ctx context.Context, e *env) (*models.Loader, error) {
	specs, err := models.DefaultSpecs()
	if err != nil {
		return nil, err
	}

	loader := models.NewLoader(models.NewSource(e.cfg.ModelsPath), specs, e.logger)
	if err := loader.Load(ctx); err != nil {
		return loader, err
	}
	return loader, nil
}

// formatBox renders a box as x,y widthxheight.
func formatBox(b domain.BoundingBox) string {
	return fmt.Sprintf("%g,%g %gx%g", b.X, b.Y, b.Width, b.Height)
}
