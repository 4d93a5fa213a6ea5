package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/ares/pkg/orchestrator"
)

func newAppendCmd(p *paths) *cobra.Command {
	var (
		docURI     string
		version    int
		showOutput bool
	)

	cmd := &cobra.Command{
		Use:   "append <file>",
		Short: "Append a document to the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			if docURI == "" {
				docURI = "file://" + args[0]
			}

			o, err := buildOrchestrator(p)
			if err != nil {
				return fmt.Errorf("build orchestrator: %w", err)
			}
			snapshot, err := loadOrCreateGraph(p.graphPath)
			if err != nil {
				return fmt.Errorf("load graph: %w", err)
			}
			o.Profiles.Seed(snapshot.Profiles)

			res, err := o.AppendDoc(cmd.Context(), snapshot, p.graphPath, docURI, string(text), orchestrator.Options{
				Version:               version,
				IncludeAnalyzerOutput: showOutput,
			})
			if err != nil {
				return fmt.Errorf("append_doc: %w", err)
			}
			if err := persistRegistries(p, o); err != nil {
				return fmt.Errorf("persist registries: %w", err)
			}

			return printResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&docURI, "doc", "", "document URI (default: file://<path>)")
	cmd.Flags().IntVar(&version, "version", 1, "document version, for re-ingesting an edited document")
	cmd.Flags().BoolVar(&showOutput, "analyzer-output", false, "include the raw analyzer response in the result")

	return cmd
}

func printResult(cmd *cobra.Command, res *orchestrator.Result) error {
	data, err := json.MarshalIndent(struct {
		Entities      int `json:"entities"`
		Relations     int `json:"relations"`
		Conflicts     int `json:"conflicts"`
		MergeCount    int `json:"merge_count"`
		LocalEntities int `json:"local_entities"`
	}{
		Entities:      len(res.Entities),
		Relations:     len(res.Relations),
		Conflicts:     len(res.Conflicts),
		MergeCount:    res.MergeCount,
		LocalEntities: len(res.LocalEntities),
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
