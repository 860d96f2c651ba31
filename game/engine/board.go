package engine

// Board geometry shared by movement, cards and rendering
const (
	BoardSize      = 40
	GoIndex        = 0
	JailIndex      = 10
	GoToJailIndex  = 30
	IncomeTaxIndex = 4
	LuxuryTaxIndex = 38
)

var (
	RailroadIndices = []int{5, 15, 25, 35}
	UtilityIndices  = []int{12, 28}
)

// Named board indices referenced by card effects
const (
	PallMallIndex        = 11
	TrafalgarSquareIndex = 24
	KingsCrossIndex      = 5
	MayfairIndex         = 39
)

var classicBoard = [BoardSize]PropertySpace{
	{ID: 0, Name: "GO", Category: CategorySpecial},
	{ID: 1, Name: "Old Kent Road", Category: CategoryStreet, Price: 60, Rent: 2, Color: "brown"},
	{ID: 2, Name: "Community Chest", Category: CategoryCardDraw, Deck: DeckCommunityChest},
	{ID: 3, Name: "Whitechapel Road", Category: CategoryStreet, Price: 60, Rent: 4, Color: "brown"},
	{ID: 4, Name: "Income Tax", Category: CategoryTax},
	{ID: 5, Name: "Kings Cross Station", Category: CategoryRailroad, Price: 200, Rent: 25},
	{ID: 6, Name: "The Angel Islington", Category: CategoryStreet, Price: 100, Rent: 6, Color: "light-blue"},
	{ID: 7, Name: "Chance", Category: CategoryCardDraw, Deck: DeckChance},
	{ID: 8, Name: "Euston Road", Category: CategoryStreet, Price: 100, Rent: 6, Color: "light-blue"},
	{ID: 9, Name: "Pentonville Road", Category: CategoryStreet, Price: 120, Rent: 8, Color: "light-blue"},
	{ID: 10, Name: "Jail", Category: CategorySpecial},
	{ID: 11, Name: "Pall Mall", Category: CategoryStreet, Price: 140, Rent: 10, Color: "pink"},
	{ID: 12, Name: "Electric Company", Category: CategoryUtility, Price: 150},
	{ID: 13, Name: "Whitehall", Category: CategoryStreet, Price: 140, Rent: 10, Color: "pink"},
	{ID: 14, Name: "Northumberland Avenue", Category: CategoryStreet, Price: 160, Rent: 12, Color: "pink"},
	{ID: 15, Name: "Marylebone Station", Category: CategoryRailroad, Price: 200, Rent: 25},
	{ID: 16, Name: "Bow Street", Category: CategoryStreet, Price: 180, Rent: 14, Color: "orange"},
	{ID: 17, Name: "Community Chest", Category: CategoryCardDraw, Deck: DeckCommunityChest},
	{ID: 18, Name: "Marlborough Street", Category: CategoryStreet, Price: 180, Rent: 14, Color: "orange"},
	{ID: 19, Name: "Vine Street", Category: CategoryStreet, Price: 200, Rent: 16, Color: "orange"},
	{ID: 20, Name: "Free Parking", Category: CategorySpecial},
	{ID: 21, Name: "Strand", Category: CategoryStreet, Price: 220, Rent: 18, Color: "red"},
	{ID: 22, Name: "Chance", Category: CategoryCardDraw, Deck: DeckChance},
	{ID: 23, Name: "Fleet Street", Category: CategoryStreet, Price: 220, Rent: 18, Color: "red"},
	{ID: 24, Name: "Trafalgar Square", Category: CategoryStreet, Price: 240, Rent: 20, Color: "red"},
	{ID: 25, Name: "Fenchurch St Station", Category: CategoryRailroad, Price: 200, Rent: 25},
	{ID: 26, Name: "Leicester Square", Category: CategoryStreet, Price: 260, Rent: 22, Color: "yellow"},
	{ID: 27, Name: "Coventry Street", Category: CategoryStreet, Price: 260, Rent: 22, Color: "yellow"},
	{ID: 28, Name: "Water Works", Category: CategoryUtility, Price: 150},
	{ID: 29, Name: "Piccadilly", Category: CategoryStreet, Price: 280, Rent: 24, Color: "yellow"},
	{ID: 30, Name: "Go To Jail", Category: CategorySpecial},
	{ID: 31, Name: "Regent Street", Category: CategoryStreet, Price: 300, Rent: 26, Color: "green"},
	{ID: 32, Name: "Oxford Street", Category: CategoryStreet, Price: 300, Rent: 26, Color: "green"},
	{ID: 33, Name: "Community Chest", Category: CategoryCardDraw, Deck: DeckCommunityChest},
	{ID: 34, Name: "Bond Street", Category: CategoryStreet, Price: 320, Rent: 28, Color: "green"},
	{ID: 35, Name: "Liverpool St Station", Category: CategoryRailroad, Price: 200, Rent: 25},
	{ID: 36, Name: "Chance", Category: CategoryCardDraw, Deck: DeckChance},
	{ID: 37, Name: "Park Lane", Category: CategoryStreet, Price: 350, Rent: 35, Color: "dark-blue"},
	{ID: 38, Name: "Super Tax", Category: CategoryTax},
	{ID: 39, Name: "Mayfair", Category: CategoryStreet, Price: 400, Rent: 50, Color: "dark-blue"},
}

// NewBoard returns a fresh copy of the board; sessions never share spaces
func NewBoard() []PropertySpace {
	board := make([]PropertySpace, BoardSize)
	copy(board, classicBoard[:])
	return board
}

// SpaceAt returns the space at index or false when the index is off the board
func (gs *GameState) SpaceAt(index int) (*PropertySpace, bool) {
	if index < 0 || index >= len(gs.Board) {
		return nil, false
	}
	return &gs.Board[index], true
}
