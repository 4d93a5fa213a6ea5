package patternlib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanFindsRegisteredPattern(t *testing.T) {
	l := New("test-lib", "fantasy")
	l.Add("PERSON", "Gandalf the Grey", 0.9)
	require.NoError(t, l.Compile())

	matches := l.Scan("Gandalf the Grey arrived at the gate.")
	require.Len(t, matches, 1)
	require.Equal(t, "PERSON", matches[0].EntityType)
	require.InDelta(t, 0.9, matches[0].Confidence, 0.001)
}

func TestScanTracksUsageCount(t *testing.T) {
	l := New("test-lib", "fantasy")
	l.Add("PLACE", "Rivendell", 0.8)
	require.NoError(t, l.Compile())

	l.Scan("They traveled to Rivendell.")
	l.Scan("Rivendell was peaceful.")

	tmpls := l.Templates("PLACE")
	require.Len(t, tmpls, 1)
	require.Equal(t, 2, tmpls[0].UsageCount)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := New("test-lib", "fantasy")
	l.Add("PERSON", "Gandalf the Grey", 0.9)
	l.Add("PLACE", "Rivendell", 0.8)
	require.NoError(t, l.Compile())

	path := filepath.Join(t.TempDir(), "lib.json")
	require.NoError(t, l.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test-lib", loaded.Name)

	matches := loaded.Scan("Gandalf the Grey met a friend in Rivendell.")
	require.Len(t, matches, 2)
}

func TestScanWithNoPatternsReturnsEmpty(t *testing.T) {
	l := New("empty", "none")
	require.Empty(t, l.Scan("anything at all"))
}
