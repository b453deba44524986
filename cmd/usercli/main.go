// Package main provides the user CLI entry point for testing.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	jukeboxv1 "github.com/KuotenoAshiato/spotify-jukebox/internal/api/jukeboxv1"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/track"
)

var (
	app    = kingpin.New("jukebox-usercli", "Jukebox guest and host client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	device = app.Flag("device", "Device ID used for votes (default: random)").Envar("JUKEBOX_DEVICE_ID").String()

	// join command
	joinCmd  = app.Command("join", "Join a room and print its state")
	joinRoom = joinCmd.Arg("room-id", "Room ID").Required().String()

	// add command
	addCmd      = app.Command("add", "Add a track to a room")
	addRoom     = addCmd.Arg("room-id", "Room ID").Required().String()
	addURI      = addCmd.Arg("uri", "Spotify track URI").Required().String()
	addName     = addCmd.Arg("name", "Track name").Required().String()
	addArtist   = addCmd.Flag("artist", "Artist display name").String()
	addArtistID = addCmd.Flag("artist-id", "Spotify artist ID").String()

	// upvote command
	upvoteCmd   = app.Command("upvote", "Upvote a queued track")
	upvoteRoom  = upvoteCmd.Arg("room-id", "Room ID").Required().String()
	upvoteTrack = upvoteCmd.Arg("unique-id", "Queue entry ID").Required().String()

	// vote-genre command
	voteGenreCmd  = app.Command("vote-genre", "Vote for a genre")
	voteGenreRoom = voteGenreCmd.Arg("room-id", "Room ID").Required().String()
	voteGenreName = voteGenreCmd.Arg("genre", "Genre").Required().String()

	// vote-rtv command
	voteRtvCmd  = app.Command("vote-rtv", "Vote to rock the vote")
	voteRtvRoom = voteRtvCmd.Arg("room-id", "Room ID").Required().String()

	// skip command
	skipCmd  = app.Command("skip", "Skip the head track")
	skipRoom = skipCmd.Arg("room-id", "Room ID").Required().String()

	// watch command
	watchCmd  = app.Command("watch", "Stream room updates")
	watchRoom = watchCmd.Arg("room-id", "Room ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *device == "" {
		*device = uuid.NewString()
	}

	// Create client
	client := jukeboxv1.NewRoomServiceClient(http.DefaultClient, *server)

	ctx := context.Background()

	// Execute command
	var err error
	switch command {
	case joinCmd.FullCommand():
		err = join(ctx, client, *joinRoom)
	case addCmd.FullCommand():
		err = addTrack(ctx, client)
	case upvoteCmd.FullCommand():
		_, err = client.UpvoteTrack(ctx, connect.NewRequest(&jukeboxv1.UpvoteTrackRequest{
			RoomID: *upvoteRoom, UniqueID: *upvoteTrack, DeviceID: *device,
		}))
		done(err, "Upvote toggled")
	case voteGenreCmd.FullCommand():
		_, err = client.VoteGenre(ctx, connect.NewRequest(&jukeboxv1.VoteGenreRequest{
			RoomID: *voteGenreRoom, Genre: *voteGenreName, DeviceID: *device,
		}))
		done(err, "Genre vote recorded")
	case voteRtvCmd.FullCommand():
		_, err = client.VoteRtv(ctx, connect.NewRequest(&jukeboxv1.VoteRtvRequest{
			RoomID: *voteRtvRoom, DeviceID: *device,
		}))
		done(err, "Rock-the-vote recorded")
	case skipCmd.FullCommand():
		_, err = client.Skip(ctx, connect.NewRequest(&jukeboxv1.RoomRef{RoomID: *skipRoom}))
		done(err, "Skipped")
	case watchCmd.FullCommand():
		err = watch(ctx, client, *watchRoom)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func done(err error, msg string) {
	if err == nil {
		fmt.Println(msg)
	}
}

func join(ctx context.Context, client *jukeboxv1.RoomServiceClient, roomID string) error {
	resp, err := client.JoinRoom(ctx, connect.NewRequest(&jukeboxv1.RoomRef{RoomID: roomID}))
	if err != nil {
		return err
	}
	printState(resp.Msg.State)
	return nil
}

func addTrack(ctx context.Context, client *jukeboxv1.RoomServiceClient) error {
	resp, err := client.AddTrack(ctx, connect.NewRequest(&jukeboxv1.AddTrackRequest{
		RoomID: *addRoom,
		Track: track.Descriptor{
			URI:      *addURI,
			Name:     *addName,
			Artist:   *addArtist,
			ArtistID: *addArtistID,
		},
	}))
	if err != nil {
		return err
	}
	if !resp.Msg.Added {
		fmt.Println("Room is gone, track was not queued")
		return nil
	}
	t := resp.Msg.Track
	fmt.Printf("Queued %q as %s (id: %s)\n", t.Name, t.Genre, t.UniqueID)
	return nil
}

func watch(ctx context.Context, client *jukeboxv1.RoomServiceClient, roomID string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stream, err := client.SubscribeRoom(ctx, connect.NewRequest(&jukeboxv1.RoomRef{RoomID: roomID}))
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", roomID)
	for stream.Receive() {
		ev := stream.Msg()
		fmt.Printf("\n[#%d] %s\n", ev.SequenceNo, ev.Type)
		switch {
		case ev.State != nil:
			printState(*ev.State)
		case ev.Reason != "":
			fmt.Printf("Room closed: %s\n", ev.Reason)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func printState(s room.State) {
	fmt.Printf("Room: %s\n", s.RoomID)
	fmt.Printf("Playing Genre: %s\n", s.CurrentPlayingGenre)
	fmt.Printf("RTV: %d/%d\n", len(s.RTVVotedBy), s.RTVThreshold)
	if len(s.Queue) == 0 {
		fmt.Println("Queue: empty")
	} else {
		fmt.Println("Queue:")
		for i, t := range s.Queue {
			fmt.Printf("  %2d. [%s] %s - %s (votes: %d, id: %s)\n", i+1, t.Genre, t.Artist, t.Name, t.Votes, t.UniqueID)
		}
	}
	if len(s.PendingSuggestions) > 0 {
		fmt.Printf("Pending Suggestions: %d\n", len(s.PendingSuggestions))
	}
}
