package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	return Settings{Goal: 12, Choices: []int{1, 3, 5}, RosterSize: 4}
}

func human(name string, pos, choice int) *Player {
	return &Player{ID: name, Name: name, Agent: Human{}, Pos: pos, Choice: choice}
}

func TestValidChoice(t *testing.T) {
	s := testSettings()
	assert.True(t, s.ValidChoice(1))
	assert.True(t, s.ValidChoice(5))
	assert.False(t, s.ValidChoice(2))
	assert.False(t, s.ValidChoice(0))
	assert.False(t, s.ValidChoice(-3))
}

func TestApplyChoices_CollisionNobodyMoves(t *testing.T) {
	s := testSettings()
	roster := []*Player{
		human("A", 4, 3),
		human("B", 2, 3),
		human("C", 0, 3),
	}

	ApplyChoices(roster, s)

	assert.Equal(t, 4, roster[0].Pos)
	assert.Equal(t, 2, roster[1].Pos)
	assert.Equal(t, 0, roster[2].Pos)
}

func TestApplyChoices_UniqueAdvances(t *testing.T) {
	s := testSettings()
	roster := []*Player{
		human("A", 0, 1),
		human("B", 0, 3),
		human("C", 0, 5),
	}

	ApplyChoices(roster, s)

	assert.Equal(t, 1, roster[0].Pos)
	assert.Equal(t, 3, roster[1].Pos)
	assert.Equal(t, 5, roster[2].Pos)
}

func TestApplyChoices_MixedCollision(t *testing.T) {
	s := testSettings()
	roster := []*Player{
		human("A", 0, 5),
		human("B", 0, 5),
		human("C", 0, 1),
	}

	ApplyChoices(roster, s)

	// A and B collide on 5, only C moves.
	assert.Equal(t, 0, roster[0].Pos)
	assert.Equal(t, 0, roster[1].Pos)
	assert.Equal(t, 1, roster[2].Pos)
}

func TestApplyChoices_ClampsAtGoal(t *testing.T) {
	s := testSettings()
	roster := []*Player{
		human("A", 11, 5),
		human("B", 0, 1),
	}

	ApplyChoices(roster, s)

	assert.Equal(t, 12, roster[0].Pos, "overshoot should clamp at the goal")
	assert.True(t, Finished(roster, s.Goal))
}

func TestFillAutoChoices_OnlyUndecidedCPUs(t *testing.T) {
	s := testSettings()
	rng := rand.New(rand.NewSource(1))
	cpu := NewCPU("c1", 1)
	decided := NewCPU("c2", 2)
	decided.Choice = 5
	h := human("A", 0, NoChoice)
	roster := []*Player{h, cpu, decided}

	FillAutoChoices(roster, s, rng)

	assert.Equal(t, NoChoice, h.Choice, "humans never auto-choose")
	assert.True(t, s.ValidChoice(cpu.Choice))
	assert.Equal(t, 5, decided.Choice, "a decided CPU keeps its choice")
	assert.False(t, AllChosen(roster))

	h.Choice = 1
	assert.True(t, AllChosen(roster))
}

func TestRanking_DescendingStableTies(t *testing.T) {
	roster := []*Player{
		human("A", 3, NoChoice),
		human("B", 9, NoChoice),
		human("C", 3, NoChoice),
		NewCPU("c1", 1),
	}
	roster[3].Pos = 9

	ranking := Ranking(roster)

	require.Len(t, ranking, 4)
	// B admitted before the CPU, so B wins the tie at 9; A beats C at 3.
	assert.Equal(t, RankEntry{Rank: 1, Name: "B", Pos: 9}, ranking[0])
	assert.Equal(t, RankEntry{Rank: 2, Name: "CPU1", Pos: 9, CPU: true}, ranking[1])
	assert.Equal(t, RankEntry{Rank: 3, Name: "A", Pos: 3}, ranking[2])
	assert.Equal(t, RankEntry{Rank: 4, Name: "C", Pos: 3}, ranking[3])
	// The roster itself keeps admission order.
	assert.Equal(t, "A", roster[0].Name)
}

func TestRematchReady_HumansGate(t *testing.T) {
	a := human("A", 0, NoChoice)
	b := human("B", 0, NoChoice)
	roster := []*Player{a, b, NewCPU("c1", 1)}

	ResetRound(roster)
	assert.False(t, RematchReady(roster), "humans default to no")

	a.Rematch = true
	assert.False(t, RematchReady(roster), "one holdout blocks the rematch")

	b.Rematch = true
	assert.True(t, RematchReady(roster))
}

func TestResetRound(t *testing.T) {
	a := human("A", 7, 3)
	a.Rematch = true
	c := NewCPU("c1", 1)
	c.Pos = 12
	c.Choice = 5
	roster := []*Player{a, c}

	ResetRound(roster)

	assert.Equal(t, 0, a.Pos)
	assert.Equal(t, NoChoice, a.Choice)
	assert.False(t, a.Rematch)
	assert.Equal(t, 0, c.Pos)
	assert.Equal(t, NoChoice, c.Choice)
	assert.True(t, c.Rematch, "CPUs always consent to a rematch")
}

// Two players at 9 with goal 12: a collision keeps both in place, then a
// unique 3 wins exactly at the goal.
func TestTwoPlayerEndgame(t *testing.T) {
	s := testSettings()
	a := human("A", 9, 3)
	b := human("B", 9, 3)
	roster := []*Player{a, b}

	ApplyChoices(roster, s)
	assert.Equal(t, 9, a.Pos)
	assert.Equal(t, 9, b.Pos)
	assert.False(t, Finished(roster, s.Goal))
	ClearChoices(roster)

	a.Choice = 3
	b.Choice = 1
	ApplyChoices(roster, s)
	assert.Equal(t, 12, a.Pos)
	assert.Equal(t, 10, b.Pos)
	require.True(t, Finished(roster, s.Goal))

	ranking := Ranking(roster)
	assert.Equal(t, RankEntry{Rank: 1, Name: "A", Pos: 12}, ranking[0])
	assert.Equal(t, RankEntry{Rank: 2, Name: "B", Pos: 10}, ranking[1])
}
