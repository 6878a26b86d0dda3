package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/boshu2/taskguard/internal/config"
	"github.com/boshu2/taskguard/internal/index"
)

// errIndexStale marks an index that does not match the task root.
var errIndexStale = errors.New("task index is stale")

var (
	indexCheck bool
	indexOut   string
	indexRoot  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate the task index",
	Long: `Generate the task index consumed by downstream tooling.

Every task folder whose frontmatter parses and carries id, name and type is
listed as {"id", "name", "path"}, in folder order. The output is validated
against the embedded JSON schema before it is written.

Examples:
  taskguard index                 # Write tasks.json
  taskguard index --check         # Exit 1 if tasks.json is stale
  taskguard index --dry-run       # Print the index instead of writing it`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexCheck, "check", false, "Verify the index is current, exit 1 if stale")
	indexCmd.Flags().StringVar(&indexOut, "out", "", "Index path (default: tasks.json)")
	indexCmd.Flags().StringVar(&indexRoot, "root", "", "Task root directory (default: tasks)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	overrides := globalOverrides()
	overrides.Scan.TaskRoot = indexRoot
	overrides.Index.Output = indexOut
	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}
	return buildIndex(cmd.OutOrStdout(), cfg, indexCheck, GetDryRun(), newLogger(cfg).Named("index"))
}

func buildIndex(w io.Writer, cfg *config.Config, check, dry bool, log hclog.Logger) error {
	ix, skipped, err := index.Build(cfg.Scan.TaskRoot)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		log.Warn("task not indexed", "folder", s.Folder, "reason", s.Reason)
	}

	path := cfg.Index.Output
	if check {
		current, msg, err := index.Check(path, ix)
		if err != nil {
			return err
		}
		if !current {
			fmt.Fprintln(w, msg)
			return fmt.Errorf("%w: run taskguard index", errIndexStale)
		}
		fmt.Fprintf(w, "OK %s: %d tasks\n", path, len(ix.Tasks))
		return nil
	}

	data, err := index.Write(path, ix, dry)
	if err != nil {
		return err
	}
	if dry {
		_, err := w.Write(data)
		return err
	}
	fmt.Fprintf(w, "Wrote %s: %d tasks\n", path, len(ix.Tasks))
	return nil
}
