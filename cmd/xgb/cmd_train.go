package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"xgb/internal/display"
	"xgb/internal/format"
	"xgb/internal/project"
)

var trainFlags struct {
	noProgress bool
}

var trainCmd = &cobra.Command{
	Use:   "train <project> <dataset>",
	Short: "Train the project's model on a dataset and record the run",
	Long: `Trains a gradient-boosted model with the parameters in the project's
config/params.yaml, saves it as models/<model_name>.json and appends the run
with its test-split metrics to the project's history.`,
	Args: cobra.ExactArgs(2),
	RunE: runTrain,
}

var predictFlags struct {
	output string
}

var predictCmd = &cobra.Command{
	Use:   "predict <project> <model> <dataset>",
	Short: "Apply a saved model to a dataset",
	Long: `Writes the dataset as CSV with a predicted_<target> column appended,
to stdout or to the file given with -o.`,
	Args: cobra.ExactArgs(3),
	RunE: runPredict,
}

func init() {
	trainCmd.Flags().BoolVar(&trainFlags.noProgress, "no-progress", false, "Do not draw a progress bar")
	predictCmd.Flags().StringVarP(&predictFlags.output, "output", "o", "", "Write predictions to this CSV file")
}

func runTrain(cmd *cobra.Command, args []string) error {
	projectName, dataset := args[0], args[1]

	var opts []project.TrainOption
	var bar *pb.ProgressBar
	if !trainFlags.noProgress {
		bar = pb.New(0)
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Set("prefix", "boosting ")
		if err := bar.Err(); err != nil {
			return err
		}
		opts = append(opts, project.WithProgress(func(done, total int) {
			if !bar.IsStarted() {
				bar.SetTotal(int64(total))
				bar.Start()
			}
			bar.SetCurrent(int64(done))
		}))
	}

	res, err := workspace.Train(cmd.Context(), projectName, dataset, opts...)
	if bar != nil && bar.IsStarted() {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Model performance:")
	for _, name := range res.Run.Metrics.Names() {
		fmt.Fprintf(out, "  %s: %s\n", display.MetricWithCode(name), format.FmtMetric(res.Run.Metrics.Values[name]))
	}
	fmt.Fprintf(out, "  train time: %s\n", res.Run.Metrics.TrainTime)
	if len(res.Unknown) > 0 {
		fmt.Fprintf(out, "Ignored parameters: %v\n", res.Unknown)
	}
	fmt.Fprintf(out, "XGBoost model successfully saved to %s.\n", res.ModelPath)
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	f, err := workspace.Predict(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}
	if predictFlags.output == "" {
		return writePredictions(cmd.OutOrStdout(), f.Write)
	}
	file, err := os.Create(predictFlags.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", predictFlags.output, err)
	}
	if err := writePredictions(file, f.Write); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", predictFlags.output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d predictions to %s.\n", f.Len(), predictFlags.output)
	return nil
}

func writePredictions(w io.Writer, write func(io.Writer) error) error {
	if err := write(w); err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	return nil
}
