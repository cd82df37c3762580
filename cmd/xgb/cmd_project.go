package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"xgb/internal/display"
	"xgb/internal/errs"
	"xgb/internal/format"
	"xgb/internal/ledger"
	"xgb/internal/logging"
)

var initCmd = &cobra.Command{
	Use:   "init <project> <r|c>",
	Short: "Initialize a regression (r) or classification (c) project",
	Args:  cobra.ExactArgs(2),
	RunE:  runInit,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing projects",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project with its models and run history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var showCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Display a project's metadata and run history",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var configCmd = &cobra.Command{
	Use:   "config <project>",
	Short: "Edit a project's model parameters",
	Long: `Opens the project's config/params.yaml in an editor. The editor is taken
from --editor, XGB_EDITOR or EDITOR, falling back to vi.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfig,
}

func runInit(cmd *cobra.Command, args []string) error {
	ptype, err := ledger.ParsePredictionType(args[1])
	if err != nil {
		return errs.Config("project init", args[0], "%v", err)
	}
	if err := workspace.InitProject(cmd.Context(), args[0], ptype); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s project %s created.\n", display.PredictionType(string(ptype)), args[0])
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	names, err := workspace.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	format.NameList(cmd.OutOrStdout(), "Projects", names, "No existing projects.")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := workspace.DeleteProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project %s deleted.\n", args[0])
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	info, err := workspace.ShowProject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	format.Project(cmd.OutOrStdout(), info, outputMode)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := workspace.ParamsPath(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	editor := strings.Fields(settings.Editor)
	if len(editor) == 0 {
		editor = []string{"vi"}
	}
	logging.New("cli").Debug("opening editor", "editor", editor[0], "path", path)

	c := exec.CommandContext(cmd.Context(), editor[0], append(editor[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return fmt.Errorf("edit %s: %w", path, err)
	}
	return nil
}
