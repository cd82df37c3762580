// xgb is a command-line orchestrator for training gradient-boosted tree models.
//
// Usage:
//
//	xgb init <project> <r|c>
//	xgb add <path> <dataset>
//	xgb train <project> <dataset>
//	xgb show <project>
//	xgb predict <project> <model> <dataset> [-o out.csv]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"xgb/internal/errs"
)

// Exit codes by failure kind.
const (
	exitFailure       = 1
	exitConfig        = 2
	exitNotFound      = 3
	exitAlreadyExists = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report writes err for the user and returns the process exit code. It is
// the only place command errors are formatted.
func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		fmt.Fprintln(w, "Run 'xgb list' or 'xgb data' to see what exists.")
		return exitNotFound
	case errs.KindAlreadyExists:
		fmt.Fprintln(w, "Choose another name or delete the existing one first.")
		return exitAlreadyExists
	case errs.KindConfig:
		fmt.Fprintln(w, "Edit the project's parameters with 'xgb config <project>'.")
		return exitConfig
	}
	return exitFailure
}
