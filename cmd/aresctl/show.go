package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/hert"
)

func newShowCmd(p *paths) *cobra.Command {
	var full bool
	var showRefs bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print graph summary, or the full entity/relation list with --full",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := loadOrCreateGraph(p.graphPath)
			if err != nil {
				return fmt.Errorf("load graph: %w", err)
			}

			var out any
			switch {
			case showRefs:
				out = mentionRefs(snapshot)
			case full:
				out = snapshot
			default:
				out = struct {
					Documents   int `json:"documents"`
					Entities    int `json:"entities"`
					Relations   int `json:"relations"`
					Conflicts   int `json:"conflicts"`
					Corrections int `json:"corrections"`
				}{
					Documents:   len(snapshot.DocIDs),
					Entities:    len(snapshot.Entities),
					Relations:   len(snapshot.Relations),
					Conflicts:   len(snapshot.Conflicts),
					Corrections: len(snapshot.Corrections),
				}
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "print the entire graph snapshot")
	cmd.Flags().BoolVar(&showRefs, "refs", false, "print every relation's evidence as packed mention references instead")
	return cmd
}

// mentionRef is one relation-evidence occurrence rendered as its portable
// HERT textual form, for compact cross-referencing back into a document.
type mentionRef struct {
	RelationID string `json:"relation_id"`
	Subject    string `json:"subject"`
	Ref        string `json:"ref"`
}

func mentionRefs(snapshot *graph.Snapshot) []mentionRef {
	var refs []mentionRef
	for _, r := range snapshot.Relations {
		subject := snapshot.EntityByID(r.Subject)
		if subject == nil || subject.EID == nil {
			continue
		}
		for _, ev := range r.Evidence {
			h := hert.HERT{
				DID:       ev.DocID,
				EID:       *subject.EID,
				SensePath: subject.SensePath,
				Location: hert.Location{
					Paragraph:   ev.Paragraph,
					TokenStart:  ev.TokenStart,
					TokenLength: ev.TokenLength,
				},
			}
			refs = append(refs, mentionRef{
				RelationID: r.ID,
				Subject:    subject.Canonical,
				Ref:        hert.EncodeText(h),
			})
		}
	}
	return refs
}
