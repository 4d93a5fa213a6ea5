// Command aresctl is the operator-facing CLI over the ingestion core: it
// appends documents to a persisted graph, inspects graph state, watches an
// inbox directory for new documents, and replays manual corrections. Every
// invocation is a fresh process, so the graph, pattern library, and every
// identity registry round-trip through their own JSON files between runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "aresctl: %v\n", err)
		os.Exit(1)
	}
}

// paths bundles the on-disk locations every subcommand needs to load and
// persist process state across invocations.
type paths struct {
	configPath    string
	graphPath     string
	patternsPath  string
	registriesDir string
}

func newRootCmd() *cobra.Command {
	p := &paths{}

	root := &cobra.Command{
		Use:     "aresctl",
		Short:   "Operate an ARES knowledge-graph ingestion store",
		Version: Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&p.configPath, "config", "ares.yaml", "process config YAML (missing file uses defaults)")
	root.PersistentFlags().StringVar(&p.graphPath, "graph", "ares-graph.json", "persisted graph snapshot path")
	root.PersistentFlags().StringVar(&p.patternsPath, "patterns", "ares-patterns.json", "persisted pattern library path")
	root.PersistentFlags().StringVar(&p.registriesDir, "registries-dir", "ares-registries", "directory holding eid.json/aid.json/sense.json")

	root.AddCommand(newAppendCmd(p))
	root.AddCommand(newShowCmd(p))
	root.AddCommand(newWatchCmd(p))
	root.AddCommand(newCorrectCmd(p))

	return root
}
