package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xgb/internal/format"
)

var modelsCmd = &cobra.Command{
	Use:   "models <project>",
	Short: "List a project's saved models with their latest run",
	Args:  cobra.ExactArgs(1),
	RunE:  runModels,
}

var modelsRmCmd = &cobra.Command{
	Use:   "rm <project> <model>",
	Short: "Delete a saved model; its run records are kept",
	Args:  cobra.ExactArgs(2),
	RunE:  runModelsRm,
}

var championFlags struct {
	clear bool
}

var championCmd = &cobra.Command{
	Use:   "champion <project> [model]",
	Short: "Designate the project's champion model",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runChampion,
}

func init() {
	modelsCmd.AddCommand(modelsRmCmd)
	championCmd.Flags().BoolVar(&championFlags.clear, "clear", false, "Clear the champion designation")
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	names, err := workspace.Models(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "No saved models in %s.\n", args[0])
		return nil
	}
	info, err := workspace.ShowProject(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, format.Models(names, info, outputMode))
	return nil
}

func runModelsRm(cmd *cobra.Command, args []string) error {
	if err := workspace.DeleteModel(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Model %s deleted from %s.\n", args[1], args[0])
	return nil
}

func runChampion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if championFlags.clear {
		if len(args) != 1 {
			return fmt.Errorf("--clear takes no model argument")
		}
		if err := workspace.SetChampion(ctx, args[0], ""); err != nil {
			return err
		}
		fmt.Fprintf(out, "Champion of %s cleared.\n", args[0])
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("champion needs a model name (or --clear)")
	}
	if err := workspace.SetChampion(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is now the champion of %s.\n", args[1], args[0])
	return nil
}
