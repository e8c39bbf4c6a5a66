package state

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadState_Missing(t *testing.T) {
	st := LoadState(Path(t.TempDir()))
	_, ok := st.Last()
	assert.False(t, ok)
}

func TestSaveAndLoad(t *testing.T) {
	path := Path(t.TempDir())
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	st := LoadState(path)
	st.Record(Entry{Operation: "update", Action: "update", From: "1.0.0", To: "2.0.0", Stage: "extract", Result: "failed", Error: "corrupt", At: at})
	SaveState(path, st)

	got := LoadState(path)
	last, ok := got.Last()
	require.True(t, ok)
	assert.Equal(t, "extract", last.Stage)
	assert.Equal(t, "corrupt", last.Error)
	assert.True(t, at.Equal(last.At))
}

func TestRecord_BoundsHistory(t *testing.T) {
	st := &State{}
	for i := 0; i < maxHistory+5; i++ {
		st.Record(Entry{To: string(rune('a' + i))})
	}
	assert.Len(t, st.History, maxHistory)
	assert.Equal(t, string(rune('a'+5)), st.History[0].To)
}

func TestLoadState_Corrupt(t *testing.T) {
	path := Path(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, LoadState(path).History)
}
