package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kittclouds/ares/pkg/conflict"
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/override"
)

// correctionFile is the on-disk shape a correct invocation reads: a kind
// name matching one of graph's CorrectionKind values plus its kind-specific
// payload, passed through untouched to the override applier.
type correctionFile struct {
	Kind    graph.CorrectionKind `json:"kind"`
	Payload json.RawMessage      `json:"payload"`
	Author  string               `json:"author,omitempty"`
	Reason  string               `json:"reason,omitempty"`
}

func newCorrectCmd(p *paths) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct <correction.json>",
		Short: "Apply a manual correction and replay the full correction log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read correction: %w", err)
			}
			var cf correctionFile
			if err := json.Unmarshal(data, &cf); err != nil {
				return fmt.Errorf("decode correction: %w", err)
			}

			snapshot, err := loadOrCreateGraph(p.graphPath)
			if err != nil {
				return fmt.Errorf("load graph: %w", err)
			}

			snapshot.Corrections = append(snapshot.Corrections, &graph.Correction{
				ID:        uuid.NewString(),
				Kind:      cf.Kind,
				After:     cf.Payload,
				Timestamp: time.Now(),
				Author:    cf.Author,
				Reason:    cf.Reason,
			})

			// Corrections are idempotent (pkg/override), so replaying the
			// whole log after appending one more entry converges to the
			// same state a full re-derivation would reach.
			snapshot.Conflicts = conflict.Detect(snapshot.Relations)
			result := override.Replay(snapshot, snapshot.Corrections)
			snapshot.Conflicts = conflict.Detect(snapshot.Relations)

			for _, r := range snapshot.Relations {
				if snapshot.EntityByID(r.Subject) == nil || snapshot.EntityByID(r.Object) == nil {
					return fmt.Errorf("apply correction: %w", graph.ErrInvariantViolation)
				}
			}

			snapshot.UpdatedAt = time.Now()
			if err := snapshot.Save(p.graphPath); err != nil {
				return fmt.Errorf("save graph: %w", err)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	return cmd
}
