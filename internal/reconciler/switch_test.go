package reconciler_test

import (
	"encoding/json"
	"testing"

	"github.com/luminacoach/sessionsync/internal/api"
	"github.com/luminacoach/sessionsync/internal/localcache"
	"github.com/luminacoach/sessionsync/internal/reconciler"
	"github.com/stretchr/testify/require"
)

func TestSwitchClearsAndReseeds(t *testing.T) {
	cache, err := localcache.New(t.TempDir(), "voiceflow-session", nil)
	require.NoError(t, err)

	// Stale entries under two project namespaces.
	require.NoError(t, cache.Set("voiceflow-session-p1", `{"userID":"old1"}`))
	require.NoError(t, cache.Set("voiceflow-session-p2", `{"userID":"old2"}`))

	var restartedWith string
	sw := reconciler.NewSwitcher(cache, "default", func(resumePath string) error {
		restartedWith = resumePath
		return nil
	}, nil)

	rec := api.SessionRecord{
		ExternalSessionID: "u9",
		ProjectID:         "p2",
		Value:             json.RawMessage(`{"userID":"u9","turns":[{"t":1}]}`),
	}
	require.NoError(t, sw.SwitchTo("u9", rec))

	entries, err := cache.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the seeded entry remains")
	require.Equal(t, "voiceflow-session-p2", entries[0].Key)
	require.JSONEq(t, `{"userID":"u9","turns":[{"t":1}]}`, entries[0].Value)

	require.Equal(t, "/sessions/u9", restartedWith)
}

func TestSwitchFallsBackToDefaultProject(t *testing.T) {
	cache, err := localcache.New(t.TempDir(), "voiceflow-session", nil)
	require.NoError(t, err)

	sw := reconciler.NewSwitcher(cache, "default", nil, nil)
	rec := api.SessionRecord{
		ExternalSessionID: "u1",
		Value:             json.RawMessage(`{"userID":"u1"}`),
	}
	require.NoError(t, sw.SwitchTo("u1", rec))

	_, found, err := cache.Get("voiceflow-session-default")
	require.NoError(t, err)
	require.True(t, found)
}

func TestSwitchRejectsEmptyRecord(t *testing.T) {
	cache, err := localcache.New(t.TempDir(), "voiceflow-session", nil)
	require.NoError(t, err)

	sw := reconciler.NewSwitcher(cache, "default", nil, nil)
	require.Error(t, sw.SwitchTo("", api.SessionRecord{Value: json.RawMessage(`{}`)}))
	require.Error(t, sw.SwitchTo("u1", api.SessionRecord{}))
}
