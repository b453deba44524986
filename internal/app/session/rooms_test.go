package session

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/classifier"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/tags"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

func queueGenres(st room.State) []string {
	genres := make([]string, 0, len(st.Queue))
	for _, t := range st.Queue {
		genres = append(genres, t.Genre)
	}
	return genres
}

func queueNames(st room.State) []string {
	names := make([]string, 0, len(st.Queue))
	for _, t := range st.Queue {
		names = append(names, t.Name)
	}
	return names
}

func TestManager_JoinRoom(t *testing.T) {
	env := newTestEnv(t, nil)

	state, err := env.m.JoinRoom("Party")
	require.NoError(t, err)
	assert.Equal(t, "Party", state.RoomID)
	assert.Equal(t, room.NoGenre, state.CurrentPlayingGenre)
	assert.Equal(t, 3, state.RTVThreshold)
	assert.Empty(t, state.Queue)

	_, err = env.m.JoinRoom("party")
	require.NoError(t, err)
	assert.Equal(t, 2, env.m.Stats().ActiveRooms, "room ids are case sensitive")

	_, err = env.m.JoinRoom("")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestManager_AddTrackClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown artist without credential", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)

		added, err := env.m.AddTrack(ctx, "a", desc("spotify:track:1", "Song", "Nobody", "x"))
		require.NoError(t, err)
		require.NotNil(t, added)
		assert.Equal(t, classifier.UnknownGenre, added.Genre)

		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		assert.Empty(t, state.PendingSuggestions)
		assert.Equal(t, room.NoGenre, state.CurrentPlayingGenre, "only dequeue or a genre change sets the playing genre")
	})

	t.Run("sibling room knowledge is provisional", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		_, err = env.m.JoinRoom("b")
		require.NoError(t, err)
		require.NoError(t, env.m.UpdateTrackGenre(ctx, "b", "x", "Techno", nil, "DJ"))

		added, err := env.m.AddTrack(ctx, "a", desc("spotify:track:1", "Song", "DJ", "x"))
		require.NoError(t, err)
		assert.Equal(t, "Techno", added.Genre)

		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		require.Len(t, state.PendingSuggestions, 1)
		assert.Equal(t, "Techno", state.PendingSuggestions[0].SuggestedGenre)
		assert.Equal(t, "x", state.PendingSuggestions[0].ArtistID)
		assert.Empty(t, state.DB.Artists, "provisional genres are not learned")

		_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:2", "Other", "DJ", "x"))
		require.NoError(t, err)
		state, err = env.m.JoinRoom("a")
		require.NoError(t, err)
		assert.Len(t, state.PendingSuggestions, 1, "one suggestion per artist")
	})

	t.Run("known artist joins its bucket", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "rock-artist", "Rock", nil, "Rocker"))
		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "pop-artist", "Pop", nil, "Popper"))

		_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:1", "1", "Rocker", "rock-artist"))
		require.NoError(t, err)
		_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:2", "2", "Popper", "pop-artist"))
		require.NoError(t, err)
		_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:3", "new", "Rocker", "rock-artist"))
		require.NoError(t, err)

		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"Rock", "Rock", "Pop"}, queueGenres(state))
		assert.Equal(t, []string{"1", "new", "2"}, queueNames(state))
	})

	t.Run("fetched tags resolve through global raw tags", func(t *testing.T) {
		env := newTestEnv(t, func(context.Context, tags.Query) []string {
			return []string{"deep house"}
		})
		require.NoError(t, env.m.SaveRawTag(RawTagInput{Tag: "deep house", Genre: "House"}))
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)

		added, err := env.m.AddTrack(ctx, "a", desc("spotify:track:1", "Song", "DJ", "x"))
		require.NoError(t, err)
		assert.Equal(t, "House", added.Genre)

		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		require.Len(t, state.PendingSuggestions, 1)
		assert.Equal(t, []string{"deep house"}, state.PendingSuggestions[0].RawGenres)
	})
}

func TestManager_AddTrackMissingRoom(t *testing.T) {
	env := newTestEnv(t, nil)

	added, err := env.m.AddTrack(context.Background(), "ghost", desc("spotify:track:1", "Song", "A", "a"))
	assert.NoError(t, err)
	assert.Nil(t, added)
	assert.Equal(t, 0, env.m.Stats().ActiveRooms, "client events never create rooms")
}

func TestManager_AddTrackRoomClosedDuringFetch(t *testing.T) {
	var env *testEnv
	env = newTestEnv(t, func(context.Context, tags.Query) []string {
		_, err := env.m.CloseRoom("a", CloseReasonHost)
		require.NoError(t, err)
		return []string{"rock"}
	})
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)

	added, err := env.m.AddTrack(context.Background(), "a", desc("spotify:track:1", "Song", "A", "a"))
	assert.NoError(t, err)
	assert.Nil(t, added)

	_, err = env.m.rooms.Get("a")
	assert.True(t, errors.Is(err, ErrRoomNotFound), "the discarded result must not resurrect the room")
}

func TestManager_AddTrackHostConfirmsDuringFetch(t *testing.T) {
	var env *testEnv
	env = newTestEnv(t, func(ctx context.Context, q tags.Query) []string {
		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", q.ArtistID, "Jazz", nil, "Trio"))
		return []string{}
	})
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)

	added, err := env.m.AddTrack(context.Background(), "a", desc("spotify:track:1", "Song", "Trio", "x"))
	require.NoError(t, err)
	assert.Equal(t, "Jazz", added.Genre)

	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Empty(t, state.PendingSuggestions)
}

func TestManager_AddTrackRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)

	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:1", "Song", "A", "a"))
	require.NoError(t, err)

	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:1", "Song", "A", "a"))
	assert.True(t, errors.Is(err, ErrTrackRejected))

	_, err = env.m.AddTrack(ctx, "a", desc("", "Song", "A", "a"))
	assert.True(t, errors.Is(err, ErrTrackRejected))

	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Len(t, state.Queue, 1)
}

func TestManager_ClientEventsOnMissingRoom(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	assert.NoError(t, env.m.UpvoteTrack("ghost", "u", "d"))
	assert.NoError(t, env.m.VoteGenre("ghost", "Rock", "d"))
	assert.NoError(t, env.m.VoteRtv("ghost", "d"))
	assert.NoError(t, env.m.UpdateTrackGenre(ctx, "ghost", "x", "Rock", nil, "A"))
	assert.NoError(t, env.m.RemoveSuggestion("ghost", "x"))
	assert.NoError(t, env.m.ClearSuggestions("ghost"))
	assert.NoError(t, env.m.Logout("ghost"))
	assert.NoError(t, env.m.Skip("ghost"))
	assert.NoError(t, env.m.ApplyPartialUpdate("ghost", map[string]any{"showQr": true}))
	assert.Equal(t, 0, env.m.Stats().ActiveRooms)
}

func TestManager_VotingReordersBuckets(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	for _, a := range []struct{ id, genre string }{{"r", "Rock"}, {"p", "Pop"}, {"j", "Jazz"}} {
		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", a.id, a.genre, nil, a.genre+" Artist"))
		_, err := env.m.AddTrack(ctx, "a", desc("spotify:track:"+a.id, a.genre+" Song", a.genre+" Artist", a.id))
		require.NoError(t, err)
	}

	require.NoError(t, env.m.VoteGenre("a", "Jazz", "d1"))
	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rock", "Jazz", "Pop"}, queueGenres(state))
	assert.Equal(t, []string{"d1"}, state.GenreVotedBy["Jazz"])

	require.NoError(t, env.m.VoteRtv("a", "d1"))
	require.NoError(t, env.m.VoteRtv("a", "d1"))
	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, state.RTVVotedBy, "repeated votes count once")

	require.NoError(t, env.m.VoteRtv("a", "d2"))
	require.NoError(t, env.m.VoteRtv("a", "d3"))
	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jazz", "Rock", "Pop"}, queueGenres(state))
	assert.Equal(t, "Jazz", state.CurrentPlayingGenre)
	assert.Empty(t, state.RTVVotedBy)
	assert.Empty(t, state.GenreVotedBy)
}

func TestManager_ApplyPartialUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "r", "Rock", nil, "R"))
	require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "p", "Pop", nil, "P"))
	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:r", "R1", "R", "r"))
	require.NoError(t, err)
	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:p", "P1", "P", "p"))
	require.NoError(t, err)

	require.NoError(t, env.m.VoteRtv("a", "d1"))
	require.NoError(t, env.m.ApplyPartialUpdate("a", map[string]any{
		"rtvThreshold": 1,
		"showQr":       true,
	}))

	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, 1, state.RTVThreshold)
	assert.True(t, state.ShowQR)
	assert.Equal(t, []string{"Pop", "Rock"}, queueGenres(state), "lowering the threshold fires the pending vote")
	assert.Empty(t, state.RTVVotedBy)

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"unknown field", map[string]any{"queue": []any{}}},
		{"wrong type", map[string]any{"showQr": map[string]any{}}},
		{"threshold below one", map[string]any{"rtvThreshold": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.m.ApplyPartialUpdate("a", tt.fields)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestManager_HostSecret(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)

	ok, err := env.m.VerifyHost("a", "anything")
	require.NoError(t, err)
	assert.True(t, ok, "a room without a secret accepts anyone")

	require.NoError(t, env.m.ApplyPartialUpdate("a", map[string]any{"hostPasswordHash": "h1"}))
	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.True(t, state.HostLocked)

	ok, err = env.m.VerifyHost("a", "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.m.VerifyHost("a", "h2")
	require.NoError(t, err)
	assert.False(t, ok)

	err = env.m.ApplyPartialUpdate("a", map[string]any{"hostPasswordHash": "h2"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = env.m.VerifyHost("ghost", "h1")
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestManager_HostQueueOperations(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "r", "Rock", nil, "R"))
	require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "p", "Pop", nil, "P"))

	first, err := env.m.AddTrack(ctx, "a", desc("spotify:track:1", "R1", "R", "r"))
	require.NoError(t, err)
	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:2", "P1", "P", "p"))
	require.NoError(t, err)
	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:3", "R2", "R", "r"))
	require.NoError(t, err)

	require.NoError(t, env.m.UpvoteTrack("a", "spotify:track:3", "d1"))
	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"R2", "R1", "P1"}, queueNames(state))

	require.NoError(t, env.m.MoveBucket("a", 2))
	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pop", "Rock", "Rock"}, queueGenres(state))

	require.NoError(t, env.m.Skip("a"))
	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	require.Len(t, state.HistoryQueue, 1)
	assert.Equal(t, "P1", state.HistoryQueue[0].Name)
	assert.Equal(t, "Rock", state.CurrentPlayingGenre)

	require.NoError(t, env.m.RemoveTrack("a", first.UniqueID))
	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"R2"}, queueNames(state))

	require.NoError(t, env.m.ClearQueue("a"))
	require.NoError(t, env.m.ClearHistory("a"))
	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Empty(t, state.Queue)
	assert.Empty(t, state.HistoryQueue)
	assert.Equal(t, room.NoGenre, state.CurrentPlayingGenre)
}

func TestManager_UpdateTrackGenreCorrectsJoinedNames(t *testing.T) {
	ctx := context.Background()

	t.Run("spotify name wins", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.spotify.names["x"] = "Simon"
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		require.NoError(t, env.m.ApplyPartialUpdate("a", map[string]any{"accessToken": "tok"}))

		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "x", "Folk", []string{"folk"}, "Simon, Garfunkel"))
		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		assert.Equal(t, "Simon", state.DB.ArtistNames["x"])
		assert.Equal(t, "Folk", state.DB.RawTags["folk"])
	})

	t.Run("queued track name without spotify", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:1", "Song", "Simon", "x"))
		require.NoError(t, err)

		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "x", "Folk", nil, "Simon, Garfunkel"))
		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		assert.Equal(t, "Simon", state.DB.ArtistNames["x"])
		assert.Equal(t, []string{"Folk"}, queueGenres(state))
	})

	t.Run("no clean name available", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, err := env.m.JoinRoom("a")
		require.NoError(t, err)

		require.NoError(t, env.m.UpdateTrackGenre(ctx, "a", "x", "Folk", nil, "Simon, Garfunkel"))
		state, err := env.m.JoinRoom("a")
		require.NoError(t, err)
		assert.Equal(t, "Folk", state.DB.Artists["x"])
		assert.NotContains(t, state.DB.ArtistNames, "x")
	})

	t.Run("missing genre", func(t *testing.T) {
		env := newTestEnv(t, nil)
		err := env.m.UpdateTrackGenre(ctx, "a", "x", "", nil, "Simon")
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestManager_SuggestionsAndLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	_, err = env.m.JoinRoom("b")
	require.NoError(t, err)
	require.NoError(t, env.m.UpdateTrackGenre(ctx, "b", "x", "Techno", nil, "X"))
	require.NoError(t, env.m.UpdateTrackGenre(ctx, "b", "y", "House", nil, "Y"))

	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:1", "S1", "X", "x"))
	require.NoError(t, err)
	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:2", "S2", "Y", "y"))
	require.NoError(t, err)

	require.NoError(t, env.m.RemoveSuggestion("a", "x"))
	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	require.Len(t, state.PendingSuggestions, 1)
	assert.Equal(t, "y", state.PendingSuggestions[0].ArtistID)

	require.NoError(t, env.m.ClearSuggestions("a"))
	require.NoError(t, env.m.ApplyPartialUpdate("a", map[string]any{"accessToken": "tok", "refreshToken": "ref"}))
	require.NoError(t, env.m.Logout("a"))

	state, err = env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Empty(t, state.PendingSuggestions)
	assert.Empty(t, state.AccessToken)
}

func TestManager_Login(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)

	err = env.m.CompleteLogin(ctx, "a", "code")
	assert.True(t, errors.Is(err, ErrLoginNotPending))

	err = env.m.CompleteLogin(ctx, "ghost", "code")
	assert.True(t, errors.Is(err, ErrRoomNotFound))

	_, err = env.m.BeginLogin("a")
	require.NoError(t, err)
	require.NoError(t, env.m.CompleteLogin(ctx, "a", "code"))
	assert.Equal(t, []string{"code/verifier-a"}, env.spotify.exchanged)

	state, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	assert.Equal(t, "access-code", state.AccessToken)

	summaries := env.m.ListRooms()
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].LoggedIn)

	err = env.m.CompleteLogin(ctx, "a", "again")
	assert.True(t, errors.Is(err, ErrLoginNotPending), "the verifier is single use")
}

func TestManager_LoginUnavailableWithoutSpotify(t *testing.T) {
	m, err := NewManager(testConfig(), Dependencies{Tags: fetcherFunc(noTags)})
	require.NoError(t, err)

	_, err = m.BeginLogin("a")
	assert.True(t, errors.Is(err, ErrLoginUnavailable))
	assert.Equal(t, 0, m.RefreshTokens(context.Background()))
}

func TestManager_SubscribeDeliversCurrentStateFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.m.JoinRoom("a")
	require.NoError(t, err)
	_, err = env.m.AddTrack(ctx, "a", desc("spotify:track:1", "S", "A", "a"))
	require.NoError(t, err)

	rec := &eventRecorder{}
	id, err := env.m.Subscribe("a", rec)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.snapshot()[0].State.Queue, 1)

	env.m.Unsubscribe(id)
	require.NoError(t, env.m.Skip("a"))
	assert.Never(t, func() bool { return len(rec.snapshot()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}
