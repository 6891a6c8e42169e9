package game

import "sort"

// Standing is one row of the leaderboard.
type Standing struct {
	PlayerID int  `json:"player_id"`
	Soldiers int  `json:"soldiers"`
	Tiles    int  `json:"tiles"`
	Alive    bool `json:"alive"`
}

// Leaderboard totals soldiers and tiles per player, sorted by soldiers,
// then tiles, then player ID.
func (e *Engine) Leaderboard() []Standing {
	rows := make([]Standing, len(e.ms.Players))
	at := make(map[int]int, len(e.ms.Players))
	for i, p := range e.ms.Players {
		rows[i] = Standing{PlayerID: p.ID, Alive: p.Alive}
		at[p.ID] = i
	}

	for i := range e.ms.Grid.T {
		t := &e.ms.Grid.T[i]
		if t.IsNeutral() {
			continue
		}
		if r, ok := at[t.Owner]; ok {
			rows[r].Soldiers += t.Soldiers
			rows[r].Tiles++
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Soldiers != rows[j].Soldiers {
			return rows[i].Soldiers > rows[j].Soldiers
		}
		if rows[i].Tiles != rows[j].Tiles {
			return rows[i].Tiles > rows[j].Tiles
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	return rows
}

// TotalSoldiers counts every soldier on the grid, owned or not
func (e *Engine) TotalSoldiers() int {
	total := 0
	for i := range e.ms.Grid.T {
		total += e.ms.Grid.T[i].Soldiers
	}
	return total
}
