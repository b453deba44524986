// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/KuotenoAshiato/spotify-jukebox/internal/api/connect"
	jukeboxv1 "github.com/KuotenoAshiato/spotify-jukebox/internal/api/jukeboxv1"
)

var (
	app      = kingpin.New("jukebox-admincli", "Jukebox admin client")
	server   = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	password = app.Flag("password", "Admin password (or set ADMIN_PASSWORD env)").Envar("ADMIN_PASSWORD").String()

	// status command
	statusCmd = app.Command("status", "Show knowledge statistics")

	// rooms command
	roomsCmd = app.Command("rooms", "List live rooms")

	// merge-room command
	mergeCmd  = app.Command("merge-room", "Merge a room's knowledge into the global store")
	mergeRoom = mergeCmd.Arg("room-id", "Room ID").Required().String()

	// resolve-conflict command
	resolveCmd        = app.Command("resolve-conflict", "Resolve an artist conflict")
	resolveArtist     = resolveCmd.Arg("artist-id", "Artist ID").Required().String()
	resolveResolution = resolveCmd.Arg("resolution", "keep_global, accept_new or custom").Required().Enum("keep_global", "accept_new", "custom")
	resolveGenre      = resolveCmd.Flag("genre", "Genre for a custom resolution").String()

	// save-artist command
	saveArtistCmd   = app.Command("save-artist", "Classify an artist")
	saveArtistID    = saveArtistCmd.Arg("artist-id", "Artist ID").Required().String()
	saveArtistGenre = saveArtistCmd.Arg("genre", "Genre").Required().String()
	saveArtistName  = saveArtistCmd.Flag("name", "Display name").String()

	// delete-artist command
	deleteArtistCmd = app.Command("delete-artist", "Remove an artist")
	deleteArtistID  = deleteArtistCmd.Arg("artist-id", "Artist ID").Required().String()

	// save-tag command
	saveTagCmd   = app.Command("save-tag", "Classify a raw tag")
	saveTagName  = saveTagCmd.Arg("tag", "Raw tag").Required().String()
	saveTagGenre = saveTagCmd.Arg("genre", "Genre").Required().String()

	// delete-tag command
	deleteTagCmd  = app.Command("delete-tag", "Remove a raw tag")
	deleteTagName = deleteTagCmd.Arg("tag", "Raw tag").Required().String()

	// import-playlist command
	importCmd = app.Command("import-playlist", "List a playlist's artists with their known genres")
	importURL = importCmd.Arg("playlist-url", "Playlist URL or ID").Required().String()

	// close-room command
	closeCmd  = app.Command("close-room", "Close a room now")
	closeRoom = closeCmd.Arg("room-id", "Room ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Check admin password
	if *password == "" {
		fmt.Println("Error: admin password is required (use --password or ADMIN_PASSWORD env)")
		os.Exit(1)
	}

	// Create client
	client := jukeboxv1.NewAdminServiceClient(http.DefaultClient, *server)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Execute command
	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status(ctx, client)
	case roomsCmd.FullCommand():
		err = rooms(ctx, client)
	case mergeCmd.FullCommand():
		err = merge(ctx, client, *mergeRoom)
	case resolveCmd.FullCommand():
		err = resolve(ctx, client)
	case saveArtistCmd.FullCommand():
		_, err = client.SaveArtist(ctx, request(&jukeboxv1.Artist{
			ArtistID: *saveArtistID, Genre: *saveArtistGenre, Name: *saveArtistName,
		}))
		done(err, "Artist saved")
	case deleteArtistCmd.FullCommand():
		_, err = client.DeleteArtist(ctx, request(&jukeboxv1.DeleteArtistRequest{ArtistID: *deleteArtistID}))
		done(err, "Artist deleted")
	case saveTagCmd.FullCommand():
		_, err = client.SaveRawTag(ctx, request(&jukeboxv1.RawTag{Tag: *saveTagName, Genre: *saveTagGenre}))
		done(err, "Tag saved")
	case deleteTagCmd.FullCommand():
		_, err = client.DeleteRawTag(ctx, request(&jukeboxv1.DeleteRawTagRequest{Tag: *deleteTagName}))
		done(err, "Tag deleted")
	case importCmd.FullCommand():
		err = importPlaylist(ctx, client, *importURL)
	case closeCmd.FullCommand():
		resp, cerr := client.CloseRoom(ctx, request(&jukeboxv1.RoomRef{RoomID: *closeRoom}))
		if err = cerr; err == nil {
			fmt.Printf("Room closed: added=%d conflicts=%d tags=%d\n",
				resp.Msg.Result.Added, resp.Msg.Result.Conflicts, resp.Msg.Result.TagsAdded)
		}
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// request wraps msg with the admin password header.
func request[T any](msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(apiconnect.AdminPasswordHeader, *password)
	return req
}

func done(err error, msg string) {
	if err == nil {
		fmt.Println(msg)
	}
}

func status(ctx context.Context, client *jukeboxv1.AdminServiceClient) error {
	resp, err := client.GetData(ctx, request(&jukeboxv1.Empty{}))
	if err != nil {
		return err
	}

	s := resp.Msg.Stats
	fmt.Println("\n=== KNOWLEDGE STATUS ===")
	fmt.Printf("Active Rooms: %d\n", s.ActiveRooms)
	fmt.Printf("Artists: %d\n", s.TotalArtists)
	fmt.Printf("Raw Tags: %d\n", s.TotalRawTags)
	fmt.Printf("Conflicts: %d\n", s.ConflictsCount)

	if len(resp.Msg.Data.Conflicts) > 0 {
		fmt.Println("\nOpen Conflicts:")
		for _, c := range resp.Msg.Data.Conflicts {
			fmt.Printf("  %s (%s): global=%s room=%s\n", c.ArtistID, c.Name, c.GlobalGenre, c.RoomGenre)
		}
	}
	fmt.Println()
	return nil
}

func rooms(ctx context.Context, client *jukeboxv1.AdminServiceClient) error {
	resp, err := client.ListRooms(ctx, request(&jukeboxv1.Empty{}))
	if err != nil {
		return err
	}
	if len(resp.Msg.Rooms) == 0 {
		fmt.Println("No live rooms")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tQUEUE\tSUGGESTIONS\tGENRE\tSPOTIFY\tLAST ACTIVITY")
	for _, r := range resp.Msg.Rooms {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%v\t%s\n",
			r.RoomID, r.QueueLength, r.SuggestionCount, r.CurrentGenre, r.LoggedIn,
			r.LastActivity.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func merge(ctx context.Context, client *jukeboxv1.AdminServiceClient, roomID string) error {
	resp, err := client.MergeRoom(ctx, request(&jukeboxv1.RoomRef{RoomID: roomID}))
	if err != nil {
		return err
	}
	r := resp.Msg.Result
	fmt.Printf("Merged %s: added=%d conflicts=%d tags=%d\n", roomID, r.Added, r.Conflicts, r.TagsAdded)
	return nil
}

func resolve(ctx context.Context, client *jukeboxv1.AdminServiceClient) error {
	_, err := client.ResolveConflict(ctx, request(&jukeboxv1.ResolveConflictRequest{
		ArtistID:    *resolveArtist,
		Resolution:  *resolveResolution,
		CustomGenre: *resolveGenre,
	}))
	done(err, "Conflict resolved")
	return err
}

func importPlaylist(ctx context.Context, client *jukeboxv1.AdminServiceClient, playlistURL string) error {
	resp, err := client.ImportPlaylist(ctx, request(&jukeboxv1.ImportPlaylistRequest{PlaylistURL: playlistURL}))
	if err != nil {
		return err
	}

	fmt.Printf("Playlist %s: %d tracks, %d artists\n\n", resp.Msg.PlaylistID, resp.Msg.TrackCount, len(resp.Msg.Artists))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIST\tID\tTRACKS\tGENRE")
	for _, a := range resp.Msg.Artists {
		genre := a.ExistingGenre
		if genre == "" {
			genre = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", strings.TrimSpace(a.Name), a.ID, a.Count, genre)
	}
	return w.Flush()
}
