package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/screenrelay/internal/relayclient"
	"github.com/BioHazard786/screenrelay/internal/signaling"
	"github.com/BioHazard786/screenrelay/internal/ui"
)

var (
	flagRoomsURL      string
	flagRoomsWatch    bool
	flagRoomsOutput   string
	flagRoomsInterval time.Duration
)

var roomsCmd = &cobra.Command{
	Use:     "rooms",
	Aliases: []string{"ls"},
	Short:   "List live rooms on a relay",
	Long: `List the live rooms of a relay started with --rooms-api.

Examples:
  screenrelay rooms
  screenrelay rooms --url https://share.example.com --output markdown
  screenrelay rooms --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := ui.ParseOutputFormat(flagRoomsOutput)
		if err != nil {
			return err
		}

		fetch := func(ctx context.Context) ([]signaling.RoomInfo, error) {
			list, err := relayclient.FetchRooms(ctx, nil, flagRoomsURL)
			if err != nil {
				return nil, err
			}
			return list.Rooms, nil
		}

		if flagRoomsWatch {
			return ui.RunRoomsWatch(flagRoomsURL, fetch, flagRoomsInterval)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		rooms, err := fetch(ctx)
		if err != nil {
			return err
		}
		fmt.Println(ui.RoomsView(rooms, format, time.Now()))
		return nil
	},
}

func init() {
	f := roomsCmd.Flags()
	f.StringVarP(&flagRoomsURL, "url", "u", "http://localhost:3000", "relay base URL")
	f.BoolVarP(&flagRoomsWatch, "watch", "w", false, "keep refreshing until q is pressed")
	f.StringVarP(&flagRoomsOutput, "output", "o", string(ui.OutputStyled), "styled, plain, markdown or csv")
	f.DurationVar(&flagRoomsInterval, "interval", ui.DefaultRefreshInterval, "refresh interval with --watch")

	rootCmd.AddCommand(roomsCmd)
}
