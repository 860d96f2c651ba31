package engine

import "fmt"

// MovePosition applies steps to pos on the board ring and reports whether
// the move wrapped past GO
func MovePosition(pos, steps int) (int, bool) {
	from := normalizePosition(pos)
	to := normalizePosition(from + steps)
	return to, to < from
}

// normalizePosition folds any integer back onto the board
func normalizePosition(pos int) int {
	return ((pos % BoardSize) + BoardSize) % BoardSize
}

// advance moves the player forward and pays the GO bonus on wraparound
func (e *GameEngine) advance(p *Player, steps int) {
	from := p.Position
	to, wrapped := MovePosition(from, steps)
	p.Position = to
	e.emitMove(p, from, to)
	if wrapped {
		e.passGo(p)
	}
}

// relocate sends the player straight to target; wraparound still pays GO
func (e *GameEngine) relocate(p *Player, target int) {
	from := p.Position
	to := normalizePosition(target)
	p.Position = to
	e.emitMove(p, from, to)
	if to < from {
		e.passGo(p)
	}
}

// moveBack moves the player backwards without any GO bonus
func (e *GameEngine) moveBack(p *Player, steps int) {
	from := p.Position
	p.Position = normalizePosition(from - steps)
	e.emitMove(p, from, p.Position)
}

// sendToJail is a relocation of its own kind: no bonus, no fine
func (e *GameEngine) sendToJail(p *Player) {
	from := p.Position
	p.Position = JailIndex
	p.InJail = true
	p.JailTurns = 0
	e.state.CanRollAgain = false
	e.emit(Event{
		Type:     EventWentToJail,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s went to jail", p.Name),
		From:     from,
		To:       JailIndex,
	})
}

func (e *GameEngine) passGo(p *Player) {
	bonus := e.config.GoBonus
	p.Money += bonus
	e.emit(Event{
		Type:     EventPassedGo,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s passed GO and collected $%d", p.Name, bonus),
		Amount:   bonus,
		From:     p.Position,
		To:       p.Position,
	})
}

func (e *GameEngine) emitMove(p *Player, from, to int) {
	name := ""
	if space, ok := e.state.SpaceAt(to); ok {
		name = space.Name
	}
	e.emit(Event{
		Type:     EventMoved,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s moved to %s", p.Name, name),
		From:     from,
		To:       to,
	})
}

// resolveLanding applies the effect of the space a normal roll ended on.
// Jail releases and card relocations leave the player on the new space
// without resolving it.
func (e *GameEngine) resolveLanding(p *Player) {
	space, ok := e.state.SpaceAt(p.Position)
	if !ok {
		return
	}

	switch space.Category {
	case CategoryTax:
		e.payTax(p, space)

	case CategorySpecial:
		if space.ID == GoToJailIndex {
			e.sendToJail(p)
		}

	case CategoryCardDraw:
		e.drawCard(p, space.Deck)

	case CategoryStreet, CategoryRailroad, CategoryUtility:
		if e.config.RentOnLanding {
			e.chargeRent(p, space)
		}
	}
}

func (e *GameEngine) payTax(p *Player, space *PropertySpace) {
	var amount int
	switch space.ID {
	case IncomeTaxIndex:
		amount = e.config.IncomeTax
	case LuxuryTaxIndex:
		amount = e.config.LuxuryTax
	}
	if amount == 0 {
		return
	}

	p.Money -= amount
	e.emit(Event{
		Type:     EventPaidTax,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s paid $%d %s", p.Name, amount, space.Name),
		Amount:   amount,
		From:     p.Position,
		To:       p.Position,
	})
}

// chargeRent charges base rent, or four times the current dice for utilities
func (e *GameEngine) chargeRent(p *Player, space *PropertySpace) {
	owner := e.rentCollector(p, space)
	if owner == nil {
		return
	}

	rent := space.Rent
	if space.Category == CategoryUtility && e.state.Dice != nil {
		rent = 4 * e.state.Dice.Sum()
	}
	if rent <= 0 {
		return
	}
	e.transfer(p, owner, rent, EventPaidRent, space.Name)
}

// rentCollector returns the owner entitled to rent from p on space, if any
func (e *GameEngine) rentCollector(p *Player, space *PropertySpace) *Player {
	if space.Owner == "" || space.Owner == p.ID || space.Mortgaged {
		return nil
	}
	owner, _ := e.state.PlayerByID(space.Owner)
	if owner == nil || owner.IsBankrupt {
		return nil
	}
	return owner
}

func (e *GameEngine) credit(p *Player, amount int, reason string) {
	p.Money += amount
	e.emit(Event{
		Type:     EventCollected,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s collected $%d: %s", p.Name, amount, reason),
		Amount:   amount,
		From:     p.Position,
		To:       p.Position,
	})
}

func (e *GameEngine) debit(p *Player, amount int, reason string) {
	p.Money -= amount
	e.emit(Event{
		Type:     EventPaid,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s paid $%d: %s", p.Name, amount, reason),
		Amount:   amount,
		From:     p.Position,
		To:       p.Position,
	})
}

// transfer moves money between two players; the sum of both balances is unchanged
func (e *GameEngine) transfer(from, to *Player, amount int, typ EventType, reason string) {
	from.Money -= amount
	to.Money += amount
	e.emit(Event{
		Type:      typ,
		PlayerID:  from.ID,
		Recipient: to.ID,
		Message:   fmt.Sprintf("%s paid $%d to %s: %s", from.Name, amount, to.Name, reason),
		Amount:    amount,
		From:      from.Position,
		To:        from.Position,
	})
}
