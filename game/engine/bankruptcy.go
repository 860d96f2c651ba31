package engine

import "fmt"

// settleBankruptcies flags every solvent player with a negative balance and
// releases their properties back to the board
func (e *GameEngine) settleBankruptcies() {
	if !e.config.AutoBankruptcy || e.state.Status != StatusPlaying {
		return
	}

	currentWentBankrupt := false
	for i, p := range e.state.Players {
		if p.IsBankrupt || p.Money >= 0 {
			continue
		}
		e.declareBankrupt(p)
		if i == e.state.CurrentPlayer {
			currentWentBankrupt = true
		}
	}

	if currentWentBankrupt && len(e.state.SolventPlayers()) > 0 {
		e.advanceTurn()
	}
}

func (e *GameEngine) declareBankrupt(p *Player) {
	p.IsBankrupt = true
	p.InJail = false
	p.JailTurns = 0
	for _, id := range p.Properties {
		if space, ok := e.state.SpaceAt(id); ok && space.Owner == p.ID {
			space.Owner = ""
			space.Houses = 0
			space.Mortgaged = false
		}
	}
	p.Properties = []int{}

	e.emit(Event{
		Type:     EventWentBankrupt,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s went bankrupt with $%d", p.Name, p.Money),
		Amount:   p.Money,
		From:     p.Position,
		To:       p.Position,
	})
}

// evaluateWinner finishes the game once at most one solvent player remains
func (e *GameEngine) evaluateWinner() {
	if e.state.Status != StatusPlaying {
		return
	}

	solvent := e.state.SolventPlayers()
	switch len(solvent) {
	case 0:
		e.state.Status = StatusFinished
		e.emitf(EventGameOver, "", "game over, no solvent players remain")
	case 1:
		e.state.Status = StatusFinished
		e.state.Winner = solvent[0].ID
		e.emitf(EventGameOver, solvent[0].ID, "%s wins the game", solvent[0].Name)
	}
}
