// Package factory maps game kinds to their engines.
package factory

import (
	"fmt"

	"github.com/playkit/gameroom/internal/engine"
	"github.com/playkit/gameroom/internal/engine/battleship"
	"github.com/playkit/gameroom/internal/engine/caro"
	"github.com/playkit/gameroom/internal/engine/memory"
	"github.com/playkit/gameroom/internal/engine/uno"
	"github.com/playkit/gameroom/internal/model"
)

// ForKind returns the engine for a game kind
func ForKind(kind model.GameKind) (engine.Engine, error) {
	switch kind {
	case model.KindCaro:
		return caro.New(), nil
	case model.KindBattleship:
		return battleship.New(), nil
	case model.KindUno:
		return uno.New(), nil
	case model.KindMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnknownGameKind, kind)
}
