package client_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/luminacoach/sessionsync/internal/api"
	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/luminacoach/sessionsync/internal/testserver"
	"github.com/stretchr/testify/require"
)

func TestClientRoundTrip(t *testing.T) {
	ts := testserver.New(t, "token1", "owner1")
	c := client.New(ts.Server.URL, ts.Token)
	ctx := context.Background()

	exists, err := c.Check(ctx, "p1", "u1")
	require.NoError(t, err)
	require.False(t, exists)

	data := api.SessionData{
		VoiceflowUserID: "u1",
		LastTurn:        json.RawMessage(`{"userID":"u1","turns":[{"t":1}],"status":"ACTIVE"}`),
		Source:          "localStorage_sync",
	}
	require.NoError(t, c.Register(ctx, "p1", data, "Kickoff chat"))

	exists, err = c.Check(ctx, "p1", "u1")
	require.NoError(t, err)
	require.True(t, exists)

	data.LastTurn = json.RawMessage(`{"userID":"u1","turns":[{"t":1},{"t":2}],"status":"CHATTING"}`)
	require.NoError(t, c.Update(ctx, "p1", data))

	sessions, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "Kickoff chat", sessions["u1"].Name)
	require.JSONEq(t, string(data.LastTurn), string(sessions["u1"].Value))

	require.NoError(t, c.SubmitFeedback(ctx, "u1", "positive", "good flow"))

	entries, err := c.ListFeedback(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "positive", entries[0].Rating)
	require.Equal(t, "good flow", entries[0].Comment)
}

func TestClientUnauthenticated(t *testing.T) {
	ts := testserver.New(t, "token1", "owner1")
	c := client.New(ts.Server.URL, "wrong-token")
	ctx := context.Background()

	_, err := c.Check(ctx, "p1", "u1")
	require.ErrorIs(t, err, client.ErrUnauthenticated)

	err = c.Update(ctx, "p1", api.SessionData{LastTurn: json.RawMessage(`{"userID":"u1"}`)})
	require.ErrorIs(t, err, client.ErrUnauthenticated)
}

func TestClientUpdateUnknownSession(t *testing.T) {
	ts := testserver.New(t, "token1", "owner1")
	c := client.New(ts.Server.URL, ts.Token)

	err := c.Update(context.Background(), "p1", api.SessionData{
		VoiceflowUserID: "ghost",
		LastTurn:        json.RawMessage(`{"userID":"ghost"}`),
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, client.ErrUnauthenticated)
}
