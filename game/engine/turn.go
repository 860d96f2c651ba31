package engine

import "fmt"

func (e *GameEngine) rollDice(p *Player) string {
	if e.config.StrictTurnOrder && e.state.Dice != nil && !e.state.CanRollAgain {
		return ReasonAlreadyRolled
	}

	dice := RollDice(e.rng)
	e.state.Dice = &dice
	e.state.CanRollAgain = false
	e.emit(Event{
		Type:     EventDiceRolled,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s rolled %d and %d", p.Name, dice[0], dice[1]),
		Amount:   dice.Sum(),
		From:     p.Position,
		To:       p.Position,
	})

	if p.InJail {
		e.rollInJail(p, dice)
		return ""
	}

	e.advance(p, dice.Sum())
	e.resolveLanding(p)
	e.state.CanRollAgain = dice.IsDoubles() && !p.InJail
	return ""
}

// rollInJail releases on doubles and moves without resolving the space it
// reaches; otherwise counts the attempt and
// releases against the fine once MaxJailTurns attempts have failed
func (e *GameEngine) rollInJail(p *Player, dice Dice) {
	if dice.IsDoubles() {
		e.leaveJail(p, "rolled doubles")
		e.advance(p, dice.Sum())
		return
	}

	p.JailTurns++
	if p.JailTurns < e.config.MaxJailTurns {
		return
	}

	e.leaveJail(p, "served the maximum jail turns")
	e.debit(p, e.config.JailFine, "jail fine")
}

func (e *GameEngine) leaveJail(p *Player, how string) {
	p.InJail = false
	p.JailTurns = 0
	e.emit(Event{
		Type:     EventLeftJail,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s left jail: %s", p.Name, how),
		From:     p.Position,
		To:       p.Position,
	})
}

func (e *GameEngine) useJailCard(p *Player) string {
	if !p.InJail {
		return ReasonNotInJail
	}
	if p.GetOutOfJailCards <= 0 {
		return ReasonNoJailCard
	}
	p.GetOutOfJailCards--
	e.leaveJail(p, "used a get out of jail free card")
	return ""
}

func (e *GameEngine) payJailFine(p *Player) string {
	if !p.InJail {
		return ReasonNotInJail
	}
	if p.Money < e.config.JailFine {
		return ReasonCannotAfford
	}
	e.leaveJail(p, "paid the fine")
	e.debit(p, e.config.JailFine, "jail fine")
	return ""
}

// buyProperty purchases the space under the player and ends the turn
func (e *GameEngine) buyProperty(p *Player) string {
	if p.Position < 0 || p.Position >= BoardSize {
		return ReasonInvalidSpace
	}
	space, ok := e.state.SpaceAt(p.Position)
	if !ok {
		return ReasonInvalidSpace
	}
	if !space.Purchasable() {
		return ReasonNotForSale
	}
	if space.Owner != "" {
		return ReasonAlreadyOwned
	}
	if p.Money < space.Price {
		return ReasonCannotAfford
	}

	space.Owner = p.ID
	p.Properties = append(p.Properties, space.ID)
	p.Money -= space.Price
	e.emit(Event{
		Type:     EventBoughtProperty,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s bought %s for $%d", p.Name, space.Name, space.Price),
		Amount:   space.Price,
		From:     space.ID,
		To:       space.ID,
	})

	e.advanceTurn()
	return ""
}

// advanceTurn passes the turn to the next solvent seat. If every other seat
// is bankrupt the index stays put.
func (e *GameEngine) advanceTurn() {
	players := e.state.Players
	n := len(players)
	if n == 0 {
		return
	}

	start := e.state.CurrentPlayer
	next := start
	for i := 1; i < n; i++ {
		candidate := (start + i) % n
		if !players[candidate].IsBankrupt {
			next = candidate
			break
		}
	}

	e.state.CurrentPlayer = next
	e.state.Dice = nil
	e.state.CanRollAgain = false
	e.state.TurnNumber++

	e.emit(Event{
		Type:     EventTurnEnded,
		PlayerID: players[start].ID,
		Message:  fmt.Sprintf("%s ended their turn, %s is up", players[start].Name, players[next].Name),
	})
}
