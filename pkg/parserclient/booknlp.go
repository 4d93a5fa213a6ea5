package parserclient

import "context"

// Mode selects which analyzer backend a Client talks to. booknlp and hybrid
// populate Response.Characters/Quotes/Mentions/CorefLinks in addition to the
// base Paragraphs parse; plain mode leaves them empty.
type Mode string

const (
	ModePlain   Mode = "plain"
	ModeBookNLP Mode = "booknlp"
	ModeHybrid  Mode = "hybrid"
)

// BookNLPClient wraps a Client with the analyzer mode fixed, so callers
// don't need to thread options["mode"] through every Parse call.
type BookNLPClient struct {
	*Client
	Mode Mode
}

// NewBookNLP returns a BookNLPClient using mode, defaulting to ModeBookNLP
// when mode is empty.
func NewBookNLP(c *Client, mode Mode) *BookNLPClient {
	if mode == "" {
		mode = ModeBookNLP
	}
	return &BookNLPClient{Client: c, Mode: mode}
}

// Parse delegates to Client.Parse with options["mode"] set, so the analyzer
// knows to populate the BookNLP-specific response fields.
func (b *BookNLPClient) Parse(ctx context.Context, text, docID string, options map[string]any) (*Response, error) {
	merged := make(map[string]any, len(options)+1)
	for k, v := range options {
		merged[k] = v
	}
	merged["mode"] = string(b.Mode)
	return b.Client.Parse(ctx, text, docID, merged)
}
