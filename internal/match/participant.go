package match

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mitchelldurbincs/FlagWars/internal/common"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

const maxNameLength = 24

// Participant is a player seated in a match
type Participant struct {
	ID    int
	Name  string
	Color string
	Token string
	Base  core.Coordinate
	Ready bool
}

// PlayerInfo is the public view of a participant
type PlayerInfo struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Color        string          `json:"color"`
	Base         core.Coordinate `json:"base"`
	Ready        bool            `json:"ready"`
	Alive        bool            `json:"alive"`
	EliminatedBy int             `json:"eliminated_by"`
}

func newParticipant(id int, name string, base core.Coordinate) *Participant {
	return &Participant{
		ID:    id,
		Name:  cleanName(name, id),
		Color: common.Hex(common.PlayerColor(id)),
		Token: uuid.NewString(),
		Base:  base,
	}
}

// cleanName trims a display name to something printable, falling back to
// "Player N" when nothing usable is left.
func cleanName(name string, id int) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	if name == "" {
		return fmt.Sprintf("Player %d", id+1)
	}
	return name
}
