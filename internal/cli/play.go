package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/playkit/gameroom/internal/config"
	"github.com/playkit/gameroom/internal/dependencies/clock"
	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/engine/battleship"
	"github.com/playkit/gameroom/internal/engine/caro"
	"github.com/playkit/gameroom/internal/engine/memory"
	"github.com/playkit/gameroom/internal/engine/uno"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/room"
	"github.com/playkit/gameroom/internal/transport"
	"github.com/playkit/gameroom/internal/transport/inprocess"
	"github.com/playkit/gameroom/internal/transport/redispubsub"
)

// playRoom joins the room over the peer channel and drives the session
// from a line-based prompt until quit or the session ends.
func playRoom(ctx context.Context, code model.RoomCode, solo bool) error {
	appCfg, err := config.Load(cfg.ConfigFile)
	if err != nil {
		return err
	}

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// Resolve who we are from the registry
	var profile Profile
	if err := client.Get("/api/v1/profiles/me", &profile); err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}

	displayName := profile.DisplayName
	if appCfg.Peer.DisplayName != "" {
		displayName = appCfg.Peer.DisplayName
	}

	self := model.PeerIdentity{
		SessionID:   model.SessionID(uuid.NewString()),
		UserID:      model.UserID(profile.ID),
		DisplayName: displayName,
	}

	channel, err := buildChannel(appCfg, logger)
	if err != nil {
		return err
	}

	policy := room.StartRequiresOpponent
	if solo {
		policy = room.StartAllowSolo
	}

	sess, err := room.New(room.Config{
		Code:              code,
		Self:              self,
		StartPolicy:       policy,
		HeartbeatInterval: appCfg.Peer.HeartbeatInterval,
	}, room.Deps{
		Channel:     channel,
		Random:      random.New(),
		Clock:       clock.New(),
		Recorder:    client,
		Heartbeater: client,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sess.Run(ctx)
	}()

	out := NewOutput(cfg.Output)
	out.PrintMessage(fmt.Sprintf("Joined %s as %s - type 'help' for commands", code, displayName))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			cancel()
			<-errCh
			return scanner.Err()
		}

		// Surface a session that died underneath us
		select {
		case err := <-errCh:
			return err
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "quit", "exit":
			cancel()
			<-errCh
			return nil
		case "help":
			printHelp(sess.Kind())
		case "view":
			view, err := sess.Snapshot(ctx)
			if err != nil {
				out.PrintError(err)
				continue
			}
			printView(view, cfg.Verbose)
		case "start":
			if err := sess.Start(ctx); err != nil {
				out.PrintError(err)
			}
		case "restart":
			if err := sess.Restart(ctx); err != nil {
				out.PrintError(err)
			}
		case "chat":
			text := strings.TrimSpace(strings.TrimPrefix(line, "chat"))
			if err := sess.SendChat(ctx, text); err != nil {
				out.PrintError(err)
			}
		case "emoji":
			if len(fields) != 2 {
				out.PrintError(fmt.Errorf("usage: emoji <name>"))
				continue
			}
			if err := sess.SendEmoji(ctx, fields[1]); err != nil {
				out.PrintError(err)
			}
		default:
			mv, err := parseMove(sess.Kind(), fields)
			if err != nil {
				out.PrintError(err)
				continue
			}
			if err := sess.Submit(ctx, mv); err != nil {
				out.PrintError(err)
			}
		}
	}
}

func buildChannel(appCfg config.Config, logger *slog.Logger) (transport.Channel, error) {
	switch appCfg.Transport.Type {
	case "redis", "":
		tcfg := redispubsub.DefaultConfig()
		if appCfg.Transport.RedisURL != "" {
			tcfg.URL = appCfg.Transport.RedisURL
		}
		if appCfg.Transport.SubscribeTimeout > 0 {
			tcfg.SubscribeTimeout = appCfg.Transport.SubscribeTimeout
		}
		return redispubsub.New(tcfg, logger)
	case "inprocess":
		// Only reaches peers within this process; useful for solo play
		return inprocess.NewBroker(logger), nil
	default:
		return nil, fmt.Errorf("unknown transport type %q", appCfg.Transport.Type)
	}
}

func parseMove(kind model.GameKind, fields []string) (model.Move, error) {
	switch kind {
	case model.KindCaro:
		if fields[0] == "place" && len(fields) == 3 {
			x, y, err := parseCoords(fields[1], fields[2])
			if err != nil {
				return model.Move{}, err
			}
			payload, _ := json.Marshal(caro.PlacePayload{X: x, Y: y})
			return model.Move{Type: caro.MoveTypePlace, Payload: payload}, nil
		}
	case model.KindMemory:
		if fields[0] == "reveal" {
			if len(fields) != 2 {
				return model.Move{}, fmt.Errorf("usage: reveal <cell>")
			}
			index, err := strconv.Atoi(fields[1])
			if err != nil {
				return model.Move{}, fmt.Errorf("cell must be a number")
			}
			payload, _ := json.Marshal(memory.RevealPayload{Index: index})
			return model.Move{Type: memory.MoveTypeReveal, Payload: payload}, nil
		}
	case model.KindBattleship:
		switch fields[0] {
		case "fleet":
			ships, err := parseFleet(fields[1:])
			if err != nil {
				return model.Move{}, err
			}
			payload, _ := json.Marshal(battleship.PlaceFleetPayload{Ships: ships})
			return model.Move{Type: battleship.MoveTypePlaceFleet, Payload: payload}, nil
		case "fire":
			if len(fields) == 3 {
				x, y, err := parseCoords(fields[1], fields[2])
				if err != nil {
					return model.Move{}, err
				}
				payload, _ := json.Marshal(battleship.FirePayload{X: x, Y: y})
				return model.Move{Type: battleship.MoveTypeFire, Payload: payload}, nil
			}
		}
	case model.KindUno:
		switch fields[0] {
		case "draw":
			return model.Move{Type: uno.MoveTypeDraw}, nil
		case "play":
			if len(fields) >= 2 {
				idx, err := strconv.Atoi(fields[1])
				if err != nil {
					return model.Move{}, fmt.Errorf("card index must be a number")
				}
				p := uno.PlayPayload{CardIndex: idx}
				if len(fields) == 3 {
					p.ChosenColor = uno.Color(fields[2])
				}
				payload, _ := json.Marshal(p)
				return model.Move{Type: uno.MoveTypePlay, Payload: payload}, nil
			}
		}
	}
	return model.Move{}, fmt.Errorf("unknown command %q - type 'help'", fields[0])
}

func parseCoords(xs, ys string) (int, int, error) {
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("coordinates must be numbers")
	}
	return x, y, nil
}

// parseFleet parses ship specs like "0,0,5,h 2,1,4,v". With no specs it
// returns a standard layout so players can get going quickly.
func parseFleet(specs []string) ([]battleship.Ship, error) {
	if len(specs) == 0 {
		return []battleship.Ship{
			{X: 0, Y: 0, Length: 5, Horizontal: true},
			{X: 0, Y: 2, Length: 4, Horizontal: true},
			{X: 0, Y: 4, Length: 3, Horizontal: true},
			{X: 0, Y: 6, Length: 3, Horizontal: true},
			{X: 0, Y: 8, Length: 2, Horizontal: true},
		}, nil
	}

	ships := make([]battleship.Ship, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("ship spec %q must be x,y,length,h|v", spec)
		}
		x, errX := strconv.Atoi(parts[0])
		y, errY := strconv.Atoi(parts[1])
		length, errL := strconv.Atoi(parts[2])
		if errX != nil || errY != nil || errL != nil {
			return nil, fmt.Errorf("ship spec %q must be x,y,length,h|v", spec)
		}
		var horizontal bool
		switch strings.ToLower(parts[3]) {
		case "h":
			horizontal = true
		case "v":
			horizontal = false
		default:
			return nil, fmt.Errorf("ship orientation must be h or v")
		}
		ships = append(ships, battleship.Ship{X: x, Y: y, Length: length, Horizontal: horizontal})
	}
	return ships, nil
}

func printHelp(kind model.GameKind) {
	fmt.Println("Commands: start, view, chat <text>, emoji <name>, restart, quit")
	switch kind {
	case model.KindCaro:
		fmt.Println("Moves:    place <x> <y>")
	case model.KindMemory:
		fmt.Println("Moves:    reveal <cell>  (cells are numbered row by row from 0)")
	case model.KindBattleship:
		fmt.Println("Moves:    fleet [x,y,len,h|v ...], fire <x> <y>")
	case model.KindUno:
		fmt.Println("Moves:    play <index> [color], draw")
	}
}

func printView(view room.View, verbose bool) {
	fmt.Printf("Room %s (%s) - %s\n", view.Code, view.Kind, view.Phase)
	for i, peer := range view.Roster {
		marker := " "
		if i == view.MyIndex {
			marker = "*"
		}
		role := ""
		if i == 0 {
			role = " (host)"
		}
		fmt.Printf("  %s %s%s\n", marker, peer.DisplayName, role)
	}
	if view.Phase == model.PhaseSetup || view.Phase == model.PhasePlaying {
		fmt.Printf("Turn: %s  Moves: %d\n", view.TurnHolder, view.MoveCount)
	}
	if !view.Outcome.None() {
		if view.Outcome.Draw {
			fmt.Println("Result: draw")
		} else {
			fmt.Printf("Result: %s wins (%s)\n", view.Outcome.Winner, view.Outcome.Reason)
		}
	}
	for _, c := range view.Chat {
		fmt.Printf("  [chat] %s: %s\n", c.SenderName, c.Content)
	}
	if verbose && len(view.State) > 0 {
		var pretty map[string]any
		if err := json.Unmarshal(view.State, &pretty); err == nil {
			data, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(data))
		}
	}
}
