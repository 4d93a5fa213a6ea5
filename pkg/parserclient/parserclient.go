// Package parserclient implements the JSON-over-HTTP contract to the
// external syntactic/NER analyzer. It adapts pkg/batch's request/response
// struct and error-wrapping style from the teacher's WASM fetch shim to a
// plain net/http.Client call, since this module runs as a server process
// rather than inside a browser WASM target.
package parserclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kittclouds/ares/pkg/graph"
)

// ErrUnavailable wraps graph.ErrAnalyzerUnavailable for every network-level
// failure reaching the analyzer (connection refused, DNS, non-2xx status).
var ErrUnavailable = graph.ErrAnalyzerUnavailable

// ErrTimeout wraps graph.ErrAnalyzerTimeout for context-deadline failures.
var ErrTimeout = graph.ErrAnalyzerTimeout

// Token is one analyzed token in the parser's response.
type Token struct {
	Text   string `json:"text"`
	Lemma  string `json:"lemma"`
	POS    string `json:"pos"`
	Tag    string `json:"tag"`
	Dep    string `json:"dep"`
	Head   int    `json:"head"`
	NER    string `json:"ner,omitempty"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// SpanTag is a labeled span over the sentence's tokens.
type SpanTag struct {
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentence is one analyzed sentence.
type Sentence struct {
	Tokens    []Token   `json:"tokens"`
	Spans     []SpanTag `json:"spans"`
	RootIndex int       `json:"root_index"`
}

// ParagraphResult is one analyzed paragraph.
type ParagraphResult struct {
	Sentences []Sentence `json:"sentences"`
}

// Character is a BookNLP-style detected character.
type Character struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Gender  string   `json:"gender,omitempty"`
}

// Quote is a BookNLP-style attributed quotation.
type Quote struct {
	SpeakerID string `json:"speakerId,omitempty"`
	Text      string `json:"text"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// MentionRef is a BookNLP-style character mention.
type MentionRef struct {
	CharacterID string `json:"characterId"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Text        string `json:"text"`
}

// CorefLink is a BookNLP-style coreference link between two mentions.
type CorefLink struct {
	FromStart int `json:"fromStart"`
	FromEnd   int `json:"fromEnd"`
	ToStart   int `json:"toStart"`
	ToEnd     int `json:"toEnd"`
}

// Response is the full parser analysis for one request. Characters/Quotes/
// Mentions/CorefLinks are populated only by the BookNLP-style analyzer.
type Response struct {
	Paragraphs []ParagraphResult `json:"paragraphs"`

	Characters []Character  `json:"characters,omitempty"`
	Quotes     []Quote      `json:"quotes,omitempty"`
	Mentions   []MentionRef `json:"mentions,omitempty"`
	CorefLinks []CorefLink  `json:"corefLinks,omitempty"`
}

// Request is the JSON body sent to the analyzer.
type Request struct {
	Text    string         `json:"text"`
	DocID   string         `json:"docId,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Client talks to one analyzer endpoint over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client pointed at baseURL, with timeout as the HTTP client's
// per-request deadline, applied in addition to any deadline on the caller's
// context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: timeout}}
}

// Parse sends text to the analyzer and returns its parse. A non-2xx status
// or transport failure is wrapped in ErrUnavailable; a context deadline is
// wrapped in ErrTimeout. The caller is responsible for the single retry
// spec.md's orchestrator timeout policy requires.
func (c *Client) Parse(ctx context.Context, text, docID string, options map[string]any) (*Response, error) {
	reqBody, err := json.Marshal(Request{Text: text, DocID: docID, Options: options})
	if err != nil {
		return nil, fmt.Errorf("parserclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("parserclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("parserclient: %w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("parserclient: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parserclient: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("parserclient: %w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parserclient: unmarshal response: %w", err)
	}
	return &out, nil
}
