package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovePosition_StaysOnBoard(t *testing.T) {
	for pos := 0; pos < BoardSize; pos++ {
		for steps := 0; steps <= 3*BoardSize; steps++ {
			next, _ := MovePosition(pos, steps)
			if next < 0 || next >= BoardSize {
				t.Fatalf("MovePosition(%d, %d) = %d, outside board", pos, steps, next)
			}
		}
	}
}

func TestMovePosition(t *testing.T) {
	tests := []struct {
		name    string
		pos     int
		steps   int
		want    int
		wrapped bool
	}{
		{"passes go", 38, 5, 3, true},
		{"stays before go", 5, 3, 8, false},
		{"lands on go", 35, 5, 0, true},
		{"zero steps", 12, 0, 12, false},
		{"out of range input is normalized", 45, 1, 6, false},
		{"negative input is normalized", -1, 2, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wrapped := MovePosition(tt.pos, tt.steps)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wrapped, wrapped)
		})
	}
}

func TestRoll_PassingGoPaysBonus(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	player(t, e, "p1").Position = 38
	script(e, 2, 3)

	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)

	p := result.State.Players[0]
	assert.Equal(t, 3, p.Position)
	assert.Equal(t, 1700, p.Money)
	assert.Equal(t, &Dice{2, 3}, result.State.Dice)
	assert.Equal(t, []EventType{EventDiceRolled, EventMoved, EventPassedGo}, eventTypes(result.Events))
}

func TestRoll_NoFalseGoBonus(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	player(t, e, "p1").Position = 5
	script(e, 1, 2)

	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)
	assert.Equal(t, 8, result.State.Players[0].Position)
	assert.Equal(t, 1500, result.State.Players[0].Money)
}

func TestRoll_JailReleaseOnDoubles(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	p := player(t, e, "p1")
	p.Position = JailIndex
	p.InJail = true
	p.JailTurns = 2
	script(e, 4, 4)

	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)

	got := result.State.Players[0]
	assert.False(t, got.InJail)
	assert.Equal(t, 0, got.JailTurns)
	assert.Equal(t, 18, got.Position)
	assert.Equal(t, 1500, got.Money)
	assert.False(t, result.State.CanRollAgain, "leaving jail on doubles does not grant another roll")
	assert.Contains(t, eventTypes(result.Events), EventLeftJail)
}

func TestRoll_JailDoublesDoNotResolveLanding(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	p := player(t, e, "p1")
	p.Position = JailIndex
	p.InJail = true
	e.state.ChanceDeck.Cards = []int{8}
	script(e, 6, 6)

	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)

	got := result.State.Players[0]
	assert.Equal(t, 22, got.Position)
	assert.False(t, got.InJail)
	assert.Equal(t, 1500, got.Money)
	assert.NotContains(t, eventTypes(result.Events), EventDrewCard)
	assert.Equal(t, 1, result.State.ChanceDeck.Remaining())
}

func TestRoll_JailForcedReleaseAfterThreeFailures(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	p := player(t, e, "p1")
	p.Position = JailIndex
	p.InJail = true

	for attempt := 1; attempt <= 2; attempt++ {
		script(e, 1, 2)
		result := act(e, ActionRollDice, "p1")
		require.True(t, result.Applied)
		assert.True(t, p.InJail)
		assert.Equal(t, attempt, p.JailTurns)
		assert.Equal(t, JailIndex, p.Position)

		require.True(t, act(e, ActionEndTurn, "p1").Applied)
		require.True(t, act(e, ActionEndTurn, "p2").Applied)
	}

	script(e, 1, 2)
	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)
	assert.False(t, p.InJail)
	assert.Equal(t, 0, p.JailTurns)
	assert.Equal(t, JailIndex, p.Position, "no movement on the forced release")
	assert.Equal(t, 1450, p.Money)
}

func TestRoll_TaxSpaces(t *testing.T) {
	tests := []struct {
		name  string
		start int
		faces []int
		want  int
	}{
		{"income tax", 1, []int{1, 2}, 1300},
		{"super tax", 35, []int{1, 2}, 1400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil, "p1", "p2")
			player(t, e, "p1").Position = tt.start
			script(e, tt.faces...)

			result := act(e, ActionRollDice, "p1")
			require.True(t, result.Applied)
			assert.Equal(t, tt.want, result.State.Players[0].Money)
			assert.Contains(t, eventTypes(result.Events), EventPaidTax)
		})
	}
}

func TestRoll_GoToJailSpace(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	player(t, e, "p1").Position = 28
	script(e, 1, 1)

	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)

	p := result.State.Players[0]
	assert.Equal(t, JailIndex, p.Position)
	assert.True(t, p.InJail)
	assert.Equal(t, 0, p.JailTurns)
	assert.Equal(t, 1500, p.Money, "no bonus and no fine when sent to jail")
	assert.False(t, result.State.CanRollAgain)
}

func TestRoll_RentOnLanding(t *testing.T) {
	config := createTestConfig()
	config.RentOnLanding = true

	t.Run("street", func(t *testing.T) {
		e := newTestEngine(t, config, "p1", "p2")
		e.state.Board[3].Owner = "p2"
		script(e, 1, 2)

		result := act(e, ActionRollDice, "p1")
		require.True(t, result.Applied)
		assert.Equal(t, 1496, result.State.Players[0].Money)
		assert.Equal(t, 1504, result.State.Players[1].Money)
		assert.Contains(t, eventTypes(result.Events), EventPaidRent)
	})

	t.Run("utility uses four times the dice", func(t *testing.T) {
		e := newTestEngine(t, config, "p1", "p2")
		e.state.Board[12].Owner = "p2"
		player(t, e, "p1").Position = 9
		script(e, 1, 2)

		result := act(e, ActionRollDice, "p1")
		require.True(t, result.Applied)
		assert.Equal(t, 1488, result.State.Players[0].Money)
		assert.Equal(t, 1512, result.State.Players[1].Money)
	})

	t.Run("mortgaged or own space is free", func(t *testing.T) {
		e := newTestEngine(t, config, "p1", "p2")
		e.state.Board[3].Owner = "p2"
		e.state.Board[3].Mortgaged = true
		e.state.Board[6].Owner = "p1"
		script(e, 1, 2, 1, 2)

		result := act(e, ActionRollDice, "p1")
		require.True(t, result.Applied)
		assert.Equal(t, 1500, result.State.Players[0].Money)
	})
}

func TestRoll_NoRentByDefault(t *testing.T) {
	e := newTestEngine(t, nil, "p1", "p2")
	e.state.Board[3].Owner = "p2"
	script(e, 1, 2)

	result := act(e, ActionRollDice, "p1")
	require.True(t, result.Applied)
	assert.Equal(t, 1500, result.State.Players[0].Money)
}

func TestJailCardAndFine(t *testing.T) {
	t.Run("use card", func(t *testing.T) {
		e := newTestEngine(t, nil, "p1", "p2")
		p := player(t, e, "p1")
		p.InJail = true
		p.Position = JailIndex
		p.GetOutOfJailCards = 1

		result := act(e, ActionUseJailCard, "p1")
		require.True(t, result.Applied, result.Reason)
		assert.False(t, p.InJail)
		assert.Equal(t, 0, p.GetOutOfJailCards)
	})

	t.Run("no card", func(t *testing.T) {
		e := newTestEngine(t, nil, "p1", "p2")
		player(t, e, "p1").InJail = true

		result := act(e, ActionUseJailCard, "p1")
		assert.False(t, result.Applied)
		assert.Equal(t, ReasonNoJailCard, result.Reason)
	})

	t.Run("pay fine", func(t *testing.T) {
		e := newTestEngine(t, nil, "p1", "p2")
		p := player(t, e, "p1")
		p.InJail = true
		p.JailTurns = 1

		result := act(e, ActionPayJailFine, "p1")
		require.True(t, result.Applied, result.Reason)
		assert.False(t, p.InJail)
		assert.Equal(t, 0, p.JailTurns)
		assert.Equal(t, 1450, p.Money)
	})

	t.Run("not in jail", func(t *testing.T) {
		e := newTestEngine(t, nil, "p1", "p2")

		result := act(e, ActionPayJailFine, "p1")
		assert.False(t, result.Applied)
		assert.Equal(t, ReasonNotInJail, result.Reason)
	})
}
