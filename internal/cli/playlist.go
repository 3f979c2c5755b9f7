package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlaylistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Playlist commands for your active party",
	}

	cmd.AddCommand(newPlaylistAddCmd())
	cmd.AddCommand(newPlaylistRemoveCmd())

	return cmd
}

func newPlaylistAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <song-id>",
		Short: "Add a song to your active party's playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid song id: %s", args[0])
			}

			req := map[string]int64{"song_id": songID}
			var result PlaylistEntry
			if err := client.Post("/api/v1/playlist/songs", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlaylistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <song-id>",
		Short: "Remove a song from your active party's playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlaylistEntry
			if err := client.Delete(fmt.Sprintf("/api/v1/playlist/songs/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Removed song %d from the playlist", result.SongID))
			return nil
		},
	}
}
