package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xgb/internal/format"
)

var addCmd = &cobra.Command{
	Use:   "add <path> <dataset>",
	Short: "Add a CSV file to the dataset store",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Display available datasets",
	Args:  cobra.NoArgs,
	RunE:  runData,
}

var dataShowCmd = &cobra.Command{
	Use:   "show <dataset>",
	Short: "Summarise a dataset's rows and columns",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataShow,
}

var removeCmd = &cobra.Command{
	Use:   "remove <dataset>",
	Short: "Remove a dataset from the dataset store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	dataCmd.AddCommand(dataShowCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := workspace.AddDataset(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s added.\n", args[1])
	return nil
}

func runData(cmd *cobra.Command, _ []string) error {
	names, err := workspace.ListDatasets(cmd.Context())
	if err != nil {
		return err
	}
	format.NameList(cmd.OutOrStdout(), "Datasets", names, "No datasets available.")
	return nil
}

func runDataShow(cmd *cobra.Command, args []string) error {
	s, err := workspace.DescribeDataset(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	format.Dataset(cmd.OutOrStdout(), s, outputMode)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if err := workspace.RemoveDataset(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s removed.\n", args[0])
	return nil
}
