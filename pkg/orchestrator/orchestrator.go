// Package orchestrator implements append_doc (spec.md §4.10): the single
// entry point that turns raw document text into entities, relations,
// conflicts, and a persisted graph snapshot. It generalizes
// scanner/conductor/conductor.go's Conductor.Scan staged pipeline — syntax
// pass, chunker pass, harvest, narrative pass, resolver pass — to the full
// ingestion lifecycle: chunked analyzer dispatch, local canonicalization,
// coreference, relation extraction, cross-document merge, conflict
// detection, and override replay.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/ares/internal/config"
	"github.com/kittclouds/ares/internal/metrics"
	"github.com/kittclouds/ares/pkg/canonical"
	"github.com/kittclouds/ares/pkg/conflict"
	"github.com/kittclouds/ares/pkg/coref"
	"github.com/kittclouds/ares/pkg/entityextractor"
	"github.com/kittclouds/ares/pkg/graph"
	"github.com/kittclouds/ares/pkg/ids"
	"github.com/kittclouds/ares/pkg/mention"
	"github.com/kittclouds/ares/pkg/merge"
	"github.com/kittclouds/ares/pkg/normalizer"
	"github.com/kittclouds/ares/pkg/override"
	"github.com/kittclouds/ares/pkg/parserclient"
	"github.com/kittclouds/ares/pkg/profile"
	"github.com/kittclouds/ares/pkg/registry"
	"github.com/kittclouds/ares/pkg/relationextractor"
	"github.com/kittclouds/ares/pkg/segmenter"
)

// Analyzer is the syntactic/NER parser append_doc dispatches chunks to.
// *parserclient.Client and *parserclient.BookNLPClient both satisfy it
// unmodified, so config.Mode selects the implementation at wiring time,
// not here.
type Analyzer interface {
	Parse(ctx context.Context, text, docID string, options map[string]any) (*parserclient.Response, error)
}

// Options configures a single append_doc call.
type Options struct {
	// Version is the document version number fed into ids.NewDID.
	// Defaults to 1.
	Version int
	// IncludeAnalyzerOutput requests the raw analyzer response be carried
	// through on Result.AnalyzerOutput.
	IncludeAnalyzerOutput bool
}

// Result is append_doc's return value (spec.md §4.10).
type Result struct {
	Entities       []*graph.Entity
	Relations      []*graph.Relation
	Conflicts      []*graph.Conflict
	MergeCount     int
	LocalEntities  []canonical.Entity
	Spans          []entityextractor.Span
	AnalyzerOutput *parserclient.Response
}

// Orchestrator wires every ingestion-pipeline component to one shared
// analyzer, the three identity registries, and the ambient logging/metrics
// layer. One Orchestrator serves every append_doc call against a given
// graph file; callers hold the *graph.Snapshot themselves (conductor.go's
// "own every sub-scanner, loop the caller's text through them" shape,
// generalized so the caller owns persistence of the thing being built).
type Orchestrator struct {
	Analyzer   Analyzer
	Extractor  *entityextractor.Extractor
	Relations  *relationextractor.Extractor
	Profiles   *profile.Arena
	EIDs       *registry.EIDRegistry
	AIDs       *registry.AIDRegistry
	Senses     *registry.SenseRegistry
	Config     config.Config
	Metrics    *metrics.Registry
	Logger     *zap.Logger
}

// New returns a ready-to-use Orchestrator.
func New(analyzer Analyzer, extractor *entityextractor.Extractor, relations *relationextractor.Extractor, cfg config.Config, reg *metrics.Registry, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Analyzer:  analyzer,
		Extractor: extractor,
		Relations: relations,
		Profiles:  profile.NewArena(),
		EIDs:      registry.NewEIDRegistry(),
		AIDs:      registry.NewAIDRegistry(),
		Senses:    registry.NewSenseRegistry(),
		Config:    cfg,
		Metrics:   reg,
		Logger:    logger,
	}
}

// AppendDoc runs the full append_doc pipeline against snapshot, persisting
// the result to snapshotPath on success. On any fatal error, snapshot is
// left completely untouched — the in-memory working copy this call built
// is discarded (spec.md §7).
func (o *Orchestrator) AppendDoc(ctx context.Context, snapshot *graph.Snapshot, snapshotPath, docID, text string, opts Options) (*Result, error) {
	start := time.Now()
	result, err := o.appendDoc(ctx, snapshot, snapshotPath, docID, text, opts)
	seconds := time.Since(start).Seconds()
	o.Metrics.ObserveAppend(seconds, failureKind(err))
	if err == nil {
		o.Metrics.ConflictsTotal.Set(float64(len(result.Conflicts)))
		o.Metrics.EIDRegistrySize.Set(float64(o.EIDs.Stats().Count))
		o.Metrics.AIDRegistrySize.Set(float64(o.AIDs.Stats().Count))
	}
	return result, err
}

func failureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, graph.ErrDuplicateDocument):
		return "duplicate_document"
	case errors.Is(err, graph.ErrAnalyzerUnavailable):
		return "analyzer_unavailable"
	case errors.Is(err, graph.ErrAnalyzerTimeout):
		return "analyzer_timeout"
	case errors.Is(err, graph.ErrIDSpaceExhausted):
		return "id_space_exhausted"
	case errors.Is(err, graph.ErrInvariantViolation):
		return "invariant_violation"
	default:
		return "other"
	}
}

func (o *Orchestrator) appendDoc(ctx context.Context, snapshot *graph.Snapshot, snapshotPath, docID, text string, opts Options) (*Result, error) {
	version := opts.Version
	if version == 0 {
		version = 1
	}
	did := ids.NewDID(docID, []byte(text), version)

	if snapshot.HasDoc(did) {
		return nil, fmt.Errorf("orchestrator: append %q: %w", docID, graph.ErrDuplicateDocument)
	}

	clone, err := cloneSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: clone snapshot: %w", err)
	}

	allMentions, allParagraphs, analyzerOutput, err := o.parseAndExtract(ctx, did, text, opts)
	if err != nil {
		return nil, err
	}

	localEntities := canonical.Canonicalize(allMentions)
	spanIndex := buildSpanIndex(localEntities)

	relationCandidates := o.walkSentences(did, allParagraphs, allMentions, spanIndex, localEntities)

	now := time.Now()
	for _, ent := range localEntities {
		namespaced := docLocalKey(did, ent.LocalID)
		for _, m := range ent.Mentions {
			sentence := coveringSentenceText(allParagraphs, m.Span.Paragraph, m.Span.TokenStart)
			if sentence == "" {
				continue
			}
			o.Profiles.Observe(namespaced, profile.Observation{Context: sentence, At: now})
		}
	}

	mergeResult, err := o.runMerge(clone, did, localEntities)
	if err != nil {
		return nil, err
	}
	o.Metrics.MergeClusters.Observe(float64(mergeResult.Stats.MergedClusters))

	localToGlobal := map[string]string{}
	for _, ent := range localEntities {
		localToGlobal[ent.LocalID] = mergeResult.IDMap[docLocalKey(did, ent.LocalID)]
	}

	newRelations, err := o.buildRelations(did, relationCandidates, localToGlobal, spanIndex, clone.Relations)
	if err != nil {
		return nil, err
	}
	clone.Relations = append(clone.Relations, newRelations...)

	o.reconcileEntities(clone, mergeResult)
	if err := o.assignIdentity(clone, mergeResult, localEntities, did); err != nil {
		return nil, err
	}
	o.writeProvenance(clone, mergeResult, localEntities, did, now)
	o.persistProfiles(clone)

	clone.Conflicts = conflict.Detect(clone.Relations)
	replayResult := override.Replay(clone, clone.Corrections)
	for _, c := range replayResult.Conflicts {
		o.Logger.Warn("override conflict skipped", zap.String("detail", c))
	}
	clone.Conflicts = conflict.Detect(clone.Relations)

	if err := checkInvariants(clone); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	clone.DocIDs = append(clone.DocIDs, did)
	clone.Versions = append(clone.Versions, &graph.VersionSnapshot{
		ID:            uuid.NewString(),
		Timestamp:     now,
		EntityCount:   len(clone.Entities),
		RelationCount: len(clone.Relations),
	})
	clone.UpdatedAt = now

	if err := clone.Save(snapshotPath); err != nil {
		return nil, fmt.Errorf("orchestrator: save snapshot: %w", err)
	}
	*snapshot = *clone

	var spans []entityextractor.Span
	for _, m := range allMentions {
		spans = append(spans, m.Span)
	}

	res := &Result{
		Entities:      snapshot.Entities,
		Relations:     snapshot.Relations,
		Conflicts:     snapshot.Conflicts,
		MergeCount:    mergeResult.Stats.MergedClusters,
		LocalEntities: localEntities,
		Spans:         spans,
	}
	if opts.IncludeAnalyzerOutput {
		res.AnalyzerOutput = analyzerOutput
	}
	return res, nil
}

// cloneSnapshot deep-copies a snapshot via a JSON marshal/unmarshal round
// trip so every mutation this call makes lands on an independent copy
// until the pipeline fully succeeds (spec.md §7: a fatal error must leave
// the caller's graph untouched).
func cloneSnapshot(s *graph.Snapshot) (*graph.Snapshot, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	clone := &graph.Snapshot{}
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// --- chunking + analyzer dispatch -----------------------------------------

type chunkOutcome struct {
	resp *parserclient.Response
	err  error
}

// parseAndExtract splits text into paragraph-group chunks, parses each on
// a bounded worker pool, and reduces the results into one document-global
// mention list and paragraph list in stable chunk order (spec.md §5).
func (o *Orchestrator) parseAndExtract(ctx context.Context, did ids.DID, text string, opts Options) ([]entityextractor.Mention, []parserclient.ParagraphResult, *parserclient.Response, error) {
	doc := segmenter.Segment(text)
	if len(doc.Paragraphs) == 0 {
		return nil, nil, &parserclient.Response{}, nil
	}

	limit := o.Config.ChunkParagraphLimit
	if limit <= 0 {
		limit = 20
	}
	var chunkTexts []string
	for i := 0; i < len(doc.Paragraphs); i += limit {
		end := i + limit
		if end > len(doc.Paragraphs) {
			end = len(doc.Paragraphs)
		}
		var parts []string
		for _, p := range doc.Paragraphs[i:end] {
			parts = append(parts, p.Text)
		}
		chunkTexts = append(chunkTexts, strings.Join(parts, "\n\n"))
	}

	outcomes := make([]chunkOutcome, len(chunkTexts))
	workers := o.Config.ChunkWorkerLimit
	if workers <= 0 {
		workers = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, chunkText := range chunkTexts {
		i, chunkText := i, chunkText
		g.Go(func() error {
			resp, err := o.parseChunkWithRetry(gctx, chunkText, did.String())
			outcomes[i] = chunkOutcome{resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	successes := 0
	var lastErr error
	for _, outc := range outcomes {
		if outc.err == nil {
			successes++
		} else {
			lastErr = outc.err
		}
	}
	if len(chunkTexts) > 0 && successes == 0 {
		if errors.Is(lastErr, graph.ErrAnalyzerTimeout) {
			return nil, nil, nil, fmt.Errorf("orchestrator: parse %q: %w", did, graph.ErrAnalyzerTimeout)
		}
		return nil, nil, nil, fmt.Errorf("orchestrator: parse %q: %w", did, graph.ErrAnalyzerUnavailable)
	}

	var allMentions []entityextractor.Mention
	var allParagraphs []parserclient.ParagraphResult
	combined := &parserclient.Response{}
	paragraphOffset := 0
	for i, outcome := range outcomes {
		if outcome.err != nil || outcome.resp == nil {
			o.Logger.Warn("chunk dropped after retry", zap.Int("chunk", i), zap.Error(outcome.err))
			continue
		}
		resp := outcome.resp
		mentions := o.Extractor.Extract(resp)
		for i := range mentions {
			mentions[i].Span.Paragraph += paragraphOffset
		}
		allMentions = append(allMentions, mentions...)
		allParagraphs = append(allParagraphs, resp.Paragraphs...)
		if opts.IncludeAnalyzerOutput {
			combined.Paragraphs = append(combined.Paragraphs, resp.Paragraphs...)
			combined.Characters = append(combined.Characters, resp.Characters...)
			combined.Quotes = append(combined.Quotes, resp.Quotes...)
			combined.Mentions = append(combined.Mentions, resp.Mentions...)
			combined.CorefLinks = append(combined.CorefLinks, resp.CorefLinks...)
		}
		paragraphOffset += len(resp.Paragraphs)
	}
	return allMentions, allParagraphs, combined, nil
}

// parseChunkWithRetry applies the per-chunk timeout and single-retry policy
// (spec.md §7): a timed-out or failed chunk is retried once, then dropped
// with a logged warning rather than failing the whole call, unless every
// chunk fails.
func (o *Orchestrator) parseChunkWithRetry(ctx context.Context, text, docID string) (*parserclient.Response, error) {
	timeout := o.Config.AnalyzerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := o.Analyzer.Parse(cctx, text, docID, nil)
	cancel()
	if err == nil {
		return resp, nil
	}
	o.Logger.Warn("chunk parse failed, retrying once", zap.Error(err))

	cctx2, cancel2 := context.WithTimeout(ctx, timeout)
	resp2, err2 := o.Analyzer.Parse(cctx2, text, docID, nil)
	cancel2()
	if err2 != nil {
		o.Logger.Warn("chunk parse abandoned after retry", zap.Error(err2))
		return nil, err2
	}
	return resp2, nil
}

// --- local canonicalization helpers ---------------------------------------

type spanKey struct {
	paragraph, tokenStart, tokenLength int
}

func spanKeyOf(m entityextractor.Mention) spanKey {
	return spanKey{m.Span.Paragraph, m.Span.TokenStart, m.Span.TokenLength}
}

// buildSpanIndex maps a mention's exact span to the local entity id
// canonical.Canonicalize grouped it under.
func buildSpanIndex(entities []canonical.Entity) map[spanKey]string {
	idx := map[spanKey]string{}
	for _, ent := range entities {
		for _, m := range ent.Mentions {
			idx[spanKeyOf(m)] = ent.LocalID
		}
	}
	return idx
}

// resolveLocalID maps a mention back to its canonicalized local entity id,
// falling back to the mention's own hint for synthetic coreference
// mentions (which carry no real span, only an already-resolved hint).
func resolveLocalID(m entityextractor.Mention, idx map[spanKey]string) string {
	if id, ok := idx[spanKeyOf(m)]; ok {
		return id
	}
	return m.LocalIDHint
}

func docLocalKey(did ids.DID, localID string) string {
	return did.String() + ":" + localID
}

func eidProfileKey(eid ids.EID) string {
	return strconv.FormatUint(uint64(eid), 10)
}

func typeOfLocalID(localID string, entities []canonical.Entity) graph.EntityType {
	for _, ent := range entities {
		if ent.LocalID == localID {
			return ent.Type
		}
	}
	return graph.TypeMisc
}

// --- sentence walk: coreference + relation extraction ---------------------

func mentionsInRange(mentions []entityextractor.Mention, paragraph, start, end int) []entityextractor.Mention {
	var out []entityextractor.Mention
	for _, m := range mentions {
		if m.Span.Paragraph != paragraph {
			continue
		}
		mStart := m.Span.TokenStart
		mEnd := m.Span.TokenStart + m.Span.TokenLength
		if mStart < end && mEnd > start {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.TokenStart < out[j].Span.TokenStart })
	return out
}

func joinSentenceTokens(tokens []parserclient.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// coveringSentenceText finds the sentence text containing the token at
// (paragraph, tokenIdx), used for profile context observation.
func coveringSentenceText(paragraphs []parserclient.ParagraphResult, paragraph, tokenIdx int) string {
	if paragraph < 0 || paragraph >= len(paragraphs) {
		return ""
	}
	offset := 0
	for _, sent := range paragraphs[paragraph].Sentences {
		if tokenIdx >= offset && tokenIdx < offset+len(sent.Tokens) {
			return joinSentenceTokens(sent.Tokens)
		}
		offset += len(sent.Tokens)
	}
	return ""
}

// walkSentences drives coreference resolution and relation extraction
// together, sentence by sentence in document order: the first mention in
// a sentence is the sentence-subject role candidate (spec.md §4.4's
// simplification vs. true appositive detection), pronouns are resolved
// against the running Resolver and synthesized into fallback mentions so
// relationextractor's nearest-mention logic can bind them as subjects or
// objects without ever feeding a pronoun into canonicalization.
func (o *Orchestrator) walkSentences(did ids.DID, paragraphs []parserclient.ParagraphResult, allMentions []entityextractor.Mention, spanIndex map[spanKey]string, localEntities []canonical.Entity) []relationextractor.Candidate {
	resolver := coref.New()
	var candidates []relationextractor.Candidate
	sentenceIndex := 0

	for paragraph, para := range paragraphs {
		tokenOffset := 0
		for _, sent := range para.Sentences {
			start, end := tokenOffset, tokenOffset+len(sent.Tokens)
			inSentence := mentionsInRange(allMentions, paragraph, start, end)
			sentenceMentions := append([]entityextractor.Mention(nil), inSentence...)

			// Walk tokens left to right, observing each real mention into
			// coref history the moment its span starts and resolving any
			// pronoun against only the history accumulated so far — so a
			// mention occurring later in the same sentence (e.g. the verb's
			// object) can never masquerade as a pronoun's antecedent.
			mentionIdx := 0
			for ti, tok := range sent.Tokens {
				globalTokenIdx := start + ti
				for mentionIdx < len(inSentence) && inSentence[mentionIdx].Span.TokenStart <= globalTokenIdx {
					localID := resolveLocalID(inSentence[mentionIdx], spanIndex)
					role := coref.RoleOther
					if mentionIdx == 0 {
						role = coref.RoleSubject
					}
					resolver.ObserveMention(localID, sentenceIndex, role)
					mentionIdx++
				}

				if !coref.IsPronoun(tok.Text) {
					continue
				}
				link, ok := resolver.ResolvePronoun(sentenceIndex)
				if !ok {
					continue
				}
				synth := entityextractor.Mention{
					SurfaceForm: tok.Text,
					Type:        typeOfLocalID(link.EntityID, localEntities),
					Span: entityextractor.Span{
						Start: tok.Offset, End: tok.Offset + tok.Length,
						Paragraph: paragraph, TokenStart: globalTokenIdx, TokenLength: 1,
					},
					Source:      mention.Fallback,
					LocalIDHint: link.EntityID,
					Confidence:  link.Confidence,
				}
				sentenceMentions = append(sentenceMentions, synth)
			}
			for ; mentionIdx < len(inSentence); mentionIdx++ {
				localID := resolveLocalID(inSentence[mentionIdx], spanIndex)
				role := coref.RoleOther
				if mentionIdx == 0 {
					role = coref.RoleSubject
				}
				resolver.ObserveMention(localID, sentenceIndex, role)
			}

			sentenceText := joinSentenceTokens(sent.Tokens)
			candidates = append(candidates, o.Relations.Extract(did, paragraph, sent, start, sentenceText, sentenceMentions)...)

			tokenOffset = end
			sentenceIndex++
		}
	}
	return candidates
}

// --- cross-document merge --------------------------------------------------

// runMerge reconstructs prior global entities from snapshot.Entities (an
// Open Question resolution: see DESIGN.md for why this is equivalent to
// re-deriving per-document inputs from Provenance, and simpler), excludes
// rejected entities from re-clustering, and merges them together with this
// document's freshly canonicalized local entities.
func (o *Orchestrator) runMerge(snapshot *graph.Snapshot, did ids.DID, localEntities []canonical.Entity) (merge.Result, error) {
	var inputs []merge.Input

	for _, e := range snapshot.Entities {
		if e.Rejected {
			continue
		}
		var key string
		var prof *graph.EntityProfile
		if e.EID != nil {
			key = eidProfileKey(*e.EID)
			prof = o.Profiles.Get(key)
		} else {
			key = e.ID
		}
		inputs = append(inputs, merge.Input{
			LocalID:       key,
			Type:          e.Type,
			Canonical:     normalizer.NormalizeForAliasing(e.Canonical),
			Surface:       e.Canonical,
			Aliases:       e.Aliases,
			Profile:       prof,
			PriorGlobalID: e.ID,
		})
	}

	for _, ent := range localEntities {
		namespaced := docLocalKey(did, ent.LocalID)
		inputs = append(inputs, merge.Input{
			LocalID:   namespaced,
			Type:      ent.Type,
			Canonical: normalizer.NormalizeForAliasing(ent.Canonical),
			Surface:   ent.Canonical,
			Aliases:   ent.Aliases,
			Profile:   o.Profiles.Get(namespaced),
		})
	}

	return merge.Merge(inputs), nil
}

// reconcileEntities replaces snapshot.Entities with the merge's freshly
// computed global list, carrying over the bookkeeping fields merge.Merge
// never touches (EID, sense path, manual-override/rejected flags, creation
// time) for every entity that already existed, and re-appending rejected
// entities untouched since they were excluded from clustering.
func (o *Orchestrator) reconcileEntities(snapshot *graph.Snapshot, result merge.Result) {
	oldByID := map[string]*graph.Entity{}
	var rejected []*graph.Entity
	for _, e := range snapshot.Entities {
		if e.Rejected {
			rejected = append(rejected, e)
			continue
		}
		oldByID[e.ID] = e
	}

	entities := make([]*graph.Entity, 0, len(result.Globals)+len(rejected))
	for _, g := range result.Globals {
		if old, ok := oldByID[g.ID]; ok {
			g.EID = old.EID
			g.SensePath = old.SensePath
			g.ManualOverride = old.ManualOverride
			g.BookNLPID = old.BookNLPID
			g.Source = old.Source
			g.CreatedAt = old.CreatedAt
		}
		entities = append(entities, g)
	}
	entities = append(entities, rejected...)
	snapshot.Entities = entities
}

// assignIdentity allocates an EID (and, where no prior matching sense
// exists, a sense path) for every brand-new global entity, registers an
// AID for every surface form its member mentions contributed, and rekeys
// each contributing local entity's accumulated profile onto the eid-keyed
// slot future append_doc calls will reconstruct it from.
func (o *Orchestrator) assignIdentity(snapshot *graph.Snapshot, result merge.Result, localEntities []canonical.Entity, did ids.DID) error {
	members := map[string][]string{}
	for localID, globalID := range result.IDMap {
		members[globalID] = append(members[globalID], localID)
	}

	for _, g := range snapshot.Entities {
		if g.Rejected {
			continue
		}
		if g.EID == nil {
			memberKeys := members[g.ID]
			var prof *graph.EntityProfile
			if len(memberKeys) > 0 {
				prof = o.Profiles.Get(memberKeys[0])
			}
			if existing, ok := o.Senses.FindMatchingSense(g.Canonical, g.Type, prof); ok {
				eid := existing.EID
				g.EID = &eid
				g.SensePath = existing.SensePath
			} else {
				eid, err := o.EIDs.GetOrCreate(g.Canonical, g.Type)
				if err != nil {
					return fmt.Errorf("orchestrator: allocate eid for %q: %w", g.Canonical, err)
				}
				g.EID = &eid
				g.SensePath = o.Senses.Allocate(g.Canonical, g.Type, eid, prof)
			}
		}
	}

	for _, ent := range localEntities {
		globalID := result.IDMap[docLocalKey(did, ent.LocalID)]
		if globalID == "" {
			continue
		}
		g := snapshot.EntityByID(globalID)
		if g == nil || g.EID == nil {
			continue
		}
		for _, m := range ent.Mentions {
			if _, err := o.AIDs.Register(m.SurfaceForm, *g.EID, m.Confidence, ent.Type, "", ""); err != nil {
				return fmt.Errorf("orchestrator: register alias %q: %w", m.SurfaceForm, err)
			}
		}
		o.Profiles.Rekey(docLocalKey(did, ent.LocalID), eidProfileKey(*g.EID))
	}
	return nil
}

// writeProvenance records this document's local-entity-to-global-entity
// mapping for audit (spec.md §3).
func (o *Orchestrator) writeProvenance(snapshot *graph.Snapshot, result merge.Result, localEntities []canonical.Entity, did ids.DID, now time.Time) {
	for _, ent := range localEntities {
		namespaced := docLocalKey(did, ent.LocalID)
		globalID := result.IDMap[namespaced]
		if globalID == "" {
			continue
		}
		snapshot.Provenance[namespaced] = &graph.ProvenanceEntry{
			GlobalID:       globalID,
			DocID:          did,
			MergedAt:       now,
			LocalCanonical: ent.Canonical,
		}
	}
}

// persistProfiles copies every EID-keyed profile out of the in-memory
// arena into the snapshot's own Profiles map, the persisted form of the
// same data (spec.md §3: Profiles is keyed by EID in Snapshot).
func (o *Orchestrator) persistProfiles(snapshot *graph.Snapshot) {
	for _, e := range snapshot.Entities {
		if e.EID == nil {
			continue
		}
		key := eidProfileKey(*e.EID)
		if p := o.Profiles.Get(key); p != nil {
			snapshot.Profiles[key] = p
		}
	}
}

// --- relation rewiring ------------------------------------------------------

// relationKey identifies a stored relation for dedup purposes: subject,
// predicate and object after symmetric-predicate canonicalization, so both
// directions a symmetric predicate's extractor emits for the same sentence
// collapse onto the same key.
type relationKey struct {
	subject   string
	predicate graph.Predicate
	object    string
}

// buildRelations turns this document's relation candidates into global
// Relation records, reorders symmetric-predicate pairs onto their
// lexicographically-smaller-subject canonical direction (spec.md §4.3: only
// one direction is stored for a symmetric predicate), and folds a candidate
// into an already-seen relation's evidence instead of appending a mirrored
// duplicate — both against the other candidates from this same document and
// against relations already present in the snapshot.
func (o *Orchestrator) buildRelations(did ids.DID, candidates []relationextractor.Candidate, localToGlobal map[string]string, spanIndex map[spanKey]string, existing []*graph.Relation) ([]*graph.Relation, error) {
	var out []*graph.Relation
	seen := map[relationKey]*graph.Relation{}
	for _, r := range existing {
		key := relationKey{subject: r.Subject, predicate: r.Predicate, object: r.Object}
		seen[key] = r
	}

	for _, c := range candidates {
		if c.Subject == nil || c.Object == nil {
			continue
		}
		subjectLocal := resolveLocalID(*c.Subject, spanIndex)
		objectLocal := resolveLocalID(*c.Object, spanIndex)
		subjectGlobal := localToGlobal[subjectLocal]
		objectGlobal := localToGlobal[objectLocal]
		if subjectGlobal == "" || objectGlobal == "" {
			o.Logger.Warn("relation candidate dropped: unmapped local entity",
				zap.String("subject_local", subjectLocal), zap.String("object_local", objectLocal))
			continue
		}
		subjectGlobal, objectGlobal = c.Predicate.CanonicalDirection(subjectGlobal, objectGlobal)

		key := relationKey{subject: subjectGlobal, predicate: c.Predicate, object: objectGlobal}
		if existingRel, ok := seen[key]; ok {
			existingRel.Evidence = append(existingRel.Evidence, c.Evidence)
			if c.Confidence > existingRel.Confidence {
				existingRel.Confidence = c.Confidence
			}
			continue
		}

		rel := &graph.Relation{
			ID:           uuid.NewString(),
			Subject:      subjectGlobal,
			Object:       objectGlobal,
			Predicate:    c.Predicate,
			Confidence:   c.Confidence,
			Evidence:     []graph.Evidence{c.Evidence},
			Qualifiers:   c.Qualifiers,
			ExtractorTag: mention.Dep,
		}
		seen[key] = rel
		out = append(out, rel)
	}
	return out, nil
}

// checkInvariants returns graph.ErrInvariantViolation if any relation
// references an entity id absent from the entity set (spec.md §8).
func checkInvariants(snapshot *graph.Snapshot) error {
	for _, r := range snapshot.Relations {
		if snapshot.EntityByID(r.Subject) == nil || snapshot.EntityByID(r.Object) == nil {
			return graph.ErrInvariantViolation
		}
	}
	return nil
}
