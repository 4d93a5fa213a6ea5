package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/orchestrator"
	"github.com/kittclouds/ares/pkg/patternlib"
)

// newWatchCmd watches an inbox directory for new .txt documents and appends
// each one as it lands, reloading the pattern library in place whenever it
// changes on disk. It runs until interrupted.
func newWatchCmd(p *paths) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <inbox-dir>",
		Short: "Watch a directory and append every .txt document that appears in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), p, args[0])
		},
	}
	return cmd
}

func runWatch(ctx context.Context, p *paths, inbox string) error {
	o, err := buildOrchestrator(p)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}
	snapshot, err := loadOrCreateGraph(p.graphPath)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	o.Profiles.Seed(snapshot.Profiles)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(inbox); err != nil {
		return fmt.Errorf("watch inbox %s: %w", inbox, err)
	}
	if err := watcher.Add(filepath.Dir(p.patternsPath)); err != nil {
		return fmt.Errorf("watch pattern library dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "aresctl: watch error: %v\n", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name == p.patternsPath && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				reloadPatterns(o, p.patternsPath)
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".txt") {
				continue
			}
			if err := ingestInboxFile(ctx, o, p, snapshot, ev.Name); err != nil {
				fmt.Fprintf(os.Stderr, "aresctl: %s: %v\n", ev.Name, err)
			}
		}
	}
}

func reloadPatterns(o *orchestrator.Orchestrator, path string) {
	lib, err := patternlib.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aresctl: reload pattern library: %v\n", err)
		return
	}
	o.Extractor.Patterns = lib
	fmt.Fprintf(os.Stderr, "aresctl: reloaded pattern library from %s\n", path)
}

func ingestInboxFile(ctx context.Context, o *orchestrator.Orchestrator, p *paths, snapshot *graph.Snapshot, path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	res, err := o.AppendDoc(ctx, snapshot, p.graphPath, "file://"+path, string(text), orchestrator.Options{Version: 1})
	if errors.Is(err, graph.ErrDuplicateDocument) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("append_doc: %w", err)
	}
	if err := persistRegistries(p, o); err != nil {
		return fmt.Errorf("persist registries: %w", err)
	}
	fmt.Fprintf(os.Stderr, "aresctl: ingested %s: %d entities, %d relations, %d conflicts\n",
		path, len(res.Entities), len(res.Relations), len(res.Conflicts))
	return nil
}
