package parserclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBookNLPClientSetsModeOption(t *testing.T) {
	var gotMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMode, _ = req.Options["mode"].(string)

		resp := Response{
			Characters: []Character{{ID: "c1", Name: "Gandalf"}},
			Quotes:     []Quote{{SpeakerID: "c1", Text: "You shall not pass!", Start: 0, End: 20}},
			Mentions:   []MentionRef{{CharacterID: "c1", Start: 0, End: 7, Text: "Gandalf"}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	b := NewBookNLP(New(srv.URL, 2*time.Second), ModeBookNLP)
	resp, err := b.Parse(context.Background(), "Gandalf spoke.", "doc-1", nil)
	require.NoError(t, err)
	require.Equal(t, "booknlp", gotMode)
	require.Len(t, resp.Characters, 1)
	require.Equal(t, "Gandalf", resp.Characters[0].Name)
	require.Len(t, resp.Quotes, 1)
	require.Len(t, resp.Mentions, 1)
}

func TestBookNLPClientDefaultsModeWhenEmpty(t *testing.T) {
	b := NewBookNLP(New("http://example.invalid", time.Second), "")
	require.Equal(t, ModeBookNLP, b.Mode)
}

func TestBookNLPClientPreservesCallerOptions(t *testing.T) {
	var gotDepth float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotDepth, _ = req.Options["corefDepth"].(float64)
		json.NewEncoder(w).Encode(Response{})
	}))
	defer srv.Close()

	b := NewBookNLP(New(srv.URL, 2*time.Second), ModeHybrid)
	_, err := b.Parse(context.Background(), "text", "doc-1", map[string]any{"corefDepth": 3})
	require.NoError(t, err)
	require.Equal(t, float64(3), gotDepth)
}
