package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/playkit/gameroom/internal/config"
	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/matchmaking"
	"github.com/playkit/gameroom/internal/model"
)

func newMatchCmd() *cobra.Command {
	var solo bool

	cmd := &cobra.Command{
		Use:   "match <game>",
		Short: "Find a random opponent for a game and play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.GameKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown game %q", args[0])
			}

			appCfg, err := config.Load(cfg.ConfigFile)
			if err != nil {
				return err
			}

			logLevel := slog.LevelWarn
			if cfg.Verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

			var profile Profile
			if err := client.Get("/api/v1/profiles/me", &profile); err != nil {
				return fmt.Errorf("not logged in: %w", err)
			}

			self := model.PeerIdentity{
				SessionID:   model.SessionID(uuid.NewString()),
				UserID:      model.UserID(profile.ID),
				DisplayName: profile.DisplayName,
			}

			channel, err := buildChannel(appCfg, logger)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Searching for a %s opponent...", kind))

			seeker := matchmaking.New(kind, self, channel, random.New(), logger)
			result, err := seeker.Find(cmd.Context())
			if err != nil {
				return err
			}

			// The creator announces the room in the directory
			if result.Created {
				if _, err := client.RegisterRoom(result.Code); err != nil {
					logger.Warn("could not announce matched room", slog.String("error", err.Error()))
				}
			}

			out.PrintMessage(fmt.Sprintf("Matched! Joining %s", result.Code))
			return playRoom(cmd.Context(), result.Code, solo)
		},
	}

	cmd.Flags().BoolVar(&solo, "solo", false, "Allow starting the game without an opponent")

	return cmd
}
