package game

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
)

// Settings are the fixed parameters of one race.
type Settings struct {
	Goal       int   // position a player must reach to win
	Choices    []int // legal step values; all positive
	RosterSize int   // padded roster size, CPUs fill the gap after the join threshold
}

func DefaultSettings() Settings {
	return Settings{
		Goal:       12,
		Choices:    []int{1, 3, 5},
		RosterSize: 4,
	}
}

func (s Settings) ValidChoice(v int) bool {
	return slices.Contains(s.Choices, v)
}

// NoChoice marks a slot that has not chosen this round. Zero is safe as the
// sentinel because choice values are required to be positive.
const NoChoice = 0

// Agent is the control side of a roster slot: a Human waits for input from
// its connection, a CPU synthesizes it on demand.
type Agent interface {
	CPU() bool
	// AutoChoice returns a synthesized step for a round where nothing was
	// submitted. Humans never auto-choose.
	AutoChoice(s Settings, rng *rand.Rand) (int, bool)
	// AutoRematch reports whether the slot consents to a rematch without an
	// explicit vote.
	AutoRematch() bool
}

type Human struct{}

func (Human) CPU() bool                                   { return false }
func (Human) AutoChoice(Settings, *rand.Rand) (int, bool) { return NoChoice, false }
func (Human) AutoRematch() bool                           { return false }

type CPU struct{}

func (CPU) CPU() bool { return true }
func (CPU) AutoChoice(s Settings, rng *rand.Rand) (int, bool) {
	return s.Choices[rng.Intn(len(s.Choices))], true
}
func (CPU) AutoRematch() bool { return true }

// Player is one roster slot. The room session owns every Player; nothing
// outside it mutates one.
type Player struct {
	ID      string
	Name    string
	Agent   Agent
	Pos     int
	Choice  int // NoChoice while waiting on this slot
	Rematch bool
}

func NewHuman(id, name string) *Player {
	return &Player{ID: id, Name: name, Agent: Human{}}
}

func NewCPU(id string, n int) *Player {
	return &Player{ID: id, Name: fmt.Sprintf("CPU%d", n), Agent: CPU{}, Rematch: true}
}

// ResetRound puts every slot back at the start line.
func ResetRound(roster []*Player) {
	for _, p := range roster {
		p.Pos = 0
		p.Choice = NoChoice
		p.Rematch = p.Agent.AutoRematch()
	}
}

// FillAutoChoices asks every undecided agent to synthesize a choice. Human
// agents decline, so after this call only human slots can still be open.
func FillAutoChoices(roster []*Player, s Settings, rng *rand.Rand) {
	for _, p := range roster {
		if p.Choice != NoChoice {
			continue
		}
		if v, ok := p.Agent.AutoChoice(s, rng); ok {
			p.Choice = v
		}
	}
}

func AllChosen(roster []*Player) bool {
	for _, p := range roster {
		if p.Choice == NoChoice {
			return false
		}
	}
	return true
}

// ApplyChoices advances every player whose choice is unique among all
// submitted choices. Players sharing a value collide and stay put. Positions
// clamp at the goal.
func ApplyChoices(roster []*Player, s Settings) {
	count := make(map[int]int, len(s.Choices))
	for _, p := range roster {
		count[p.Choice]++
	}
	for _, p := range roster {
		if count[p.Choice] != 1 {
			continue
		}
		p.Pos += p.Choice
		if p.Pos > s.Goal {
			p.Pos = s.Goal
		}
	}
}

func ClearChoices(roster []*Player) {
	for _, p := range roster {
		p.Choice = NoChoice
	}
}

func Finished(roster []*Player, goal int) bool {
	for _, p := range roster {
		if p.Pos >= goal {
			return true
		}
	}
	return false
}

type RankEntry struct {
	Rank int
	Name string
	Pos  int
	CPU  bool
}

// Ranking orders the roster descending by position. The sort is stable so
// ties keep admission order; there is no secondary key.
func Ranking(roster []*Player) []RankEntry {
	sorted := slices.Clone(roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pos > sorted[j].Pos
	})

	ranking := make([]RankEntry, len(sorted))
	for i, p := range sorted {
		ranking[i] = RankEntry{Rank: i + 1, Name: p.Name, Pos: p.Pos, CPU: p.Agent.CPU()}
	}
	return ranking
}

// RematchReady reports whether every human slot has voted for a rematch.
// CPU slots always consent and never gate the restart.
func RematchReady(roster []*Player) bool {
	for _, p := range roster {
		if p.Agent.CPU() {
			continue
		}
		if !p.Rematch {
			return false
		}
	}
	return true
}
