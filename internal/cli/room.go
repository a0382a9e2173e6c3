package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/model"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomGetCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var solo bool

	cmd := &cobra.Command{
		Use:   "create <game>",
		Short: "Create a room for a game (caro, battleship, uno, memory) and wait in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.GameKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown game %q", args[0])
			}

			rnd := random.New()
			code := model.FormatRoomCode(kind, rnd.String(model.RoomCodeLength, model.RoomCodeAlphabet))

			room, err := client.RegisterRoom(code)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Created room %s - share this code", room.Code))

			return playRoom(cmd.Context(), code, solo)
		},
	}

	cmd.Flags().BoolVar(&solo, "solo", false, "Allow starting the game without an opponent")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	var solo bool

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join an existing room by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := model.RoomCode(args[0])
			if _, ok := model.KindFromRoomCode(code); !ok {
				return fmt.Errorf("%q is not a valid room code", args[0])
			}

			return playRoom(cmd.Context(), code, solo)
		},
	}

	cmd.Flags().BoolVar(&solo, "solo", false, "Allow starting the game without an opponent")

	return cmd
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomListResult

			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Show one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
