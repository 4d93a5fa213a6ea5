package parserclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Gandalf arrived.", req.Text)
		require.Equal(t, "doc-1", req.DocID)

		resp := Response{Paragraphs: []ParagraphResult{{
			Sentences: []Sentence{{
				Tokens: []Token{
					{Text: "Gandalf", Lemma: "Gandalf", POS: "PROPN", Offset: 0, Length: 7},
					{Text: "arrived", Lemma: "arrive", POS: "VERB", Offset: 8, Length: 7},
				},
				RootIndex: 1,
			}},
		}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	resp, err := c.Parse(context.Background(), "Gandalf arrived.", "doc-1", nil)
	require.NoError(t, err)
	require.Len(t, resp.Paragraphs, 1)
	require.Len(t, resp.Paragraphs[0].Sentences[0].Tokens, 2)
	require.Equal(t, 1, resp.Paragraphs[0].Sentences[0].RootIndex)
}

func TestParseNonTwoXXStatusWrapsErrUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("analyzer crashed"))
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	_, err := c.Parse(context.Background(), "text", "doc-1", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnavailable))
}

func TestParseContextDeadlineWrapsErrTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := c.Parse(ctx, "text", "doc-1", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTimeout))
}

func TestParseRepeatedCallsAreIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Paragraphs: []ParagraphResult{{
			Sentences: []Sentence{{Tokens: []Token{{Text: "Rivendell", Offset: 0, Length: 9}}}},
		}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	r1, err := c.Parse(context.Background(), "Rivendell", "doc-1", nil)
	require.NoError(t, err)
	r2, err := c.Parse(context.Background(), "Rivendell", "doc-1", nil)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}
