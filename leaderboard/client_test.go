package leaderboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"arenabot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetLeaderboardEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes entries and sends auth header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/leaderboards/weekly-score/entries", r.URL.Path)
			assert.Equal(t, "0", r.URL.Query().Get("offset"))
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"entries": [
				{"user_identifier": "alice", "raw_score": 512.5, "formatted_score": "512.5 pts"},
				{"user_identifier": "bob", "raw_score": 300, "formatted_score": "300 pts"}
			]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "secret")
		entries, err := client.GetLeaderboardEntries(ctx, "weekly-score", 0, 100)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "alice", entries[0].UserIdentifier)
		assert.Equal(t, 512.5, entries[0].RawScore)
	})

	t.Run("paginates with offset", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "200", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"entries": []}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		entries, err := client.GetLeaderboardEntries(ctx, "weekly-score", 200, 100)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("server error is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		_, err := client.GetLeaderboardEntries(ctx, "weekly-score", 0, 100)
		assert.ErrorIs(t, err, service.ErrSourceUnavailable)
	})

	t.Run("unreachable host is retryable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "")
		_, err := client.GetLeaderboardEntries(ctx, "weekly-score", 0, 100)
		assert.ErrorIs(t, err, service.ErrSourceUnavailable)
	})

	t.Run("unknown leaderboard yields no entries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		entries, err := client.GetLeaderboardEntries(ctx, "missing", 0, 100)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("client error is permanent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		_, err := client.GetLeaderboardEntries(ctx, "weekly-score", 0, 100)
		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrSourceUnavailable)
	})

	t.Run("malformed body is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"entries": [`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		_, err := client.GetLeaderboardEntries(ctx, "weekly-score", 0, 100)
		assert.ErrorIs(t, err, service.ErrSourceUnavailable)
	})
}
