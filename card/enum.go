package card

const (
	CardInvalid Card = 0
	CardRear    Card = 0xFF
)

// Spade
const (
	CardSpadeA Card = 0x01
	CardSpade2 Card = 0x02
	CardSpade3 Card = 0x03
	CardSpade4 Card = 0x04
	CardSpade5 Card = 0x05
	CardSpade6 Card = 0x06
	CardSpade7 Card = 0x07
	CardSpadeJ Card = 0x0B
	CardSpadeQ Card = 0x0C
	CardSpadeK Card = 0x0D
)

// Heart
const (
	CardHeartA Card = 0x11
	CardHeart2 Card = 0x12
	CardHeart3 Card = 0x13
	CardHeart4 Card = 0x14
	CardHeart5 Card = 0x15
	CardHeart6 Card = 0x16
	CardHeart7 Card = 0x17
	CardHeartJ Card = 0x1B
	CardHeartQ Card = 0x1C
	CardHeartK Card = 0x1D
)

// Club
const (
	CardClubA Card = 0x21
	CardClub2 Card = 0x22
	CardClub3 Card = 0x23
	CardClub4 Card = 0x24
	CardClub5 Card = 0x25
	CardClub6 Card = 0x26
	CardClub7 Card = 0x27
	CardClubJ Card = 0x2B
	CardClubQ Card = 0x2C
	CardClubK Card = 0x2D
)

// Diamond
const (
	CardDiamondA Card = 0x31
	CardDiamond2 Card = 0x32
	CardDiamond3 Card = 0x33
	CardDiamond4 Card = 0x34
	CardDiamond5 Card = 0x35
	CardDiamond6 Card = 0x36
	CardDiamond7 Card = 0x37
	CardDiamondJ Card = 0x3B
	CardDiamondQ Card = 0x3C
	CardDiamondK Card = 0x3D
)

// DeckRanks are the ten ranks present in the 40-card deck (8/9/10 removed),
// in closed spread order: Ace low, no wrap.
var DeckRanks = [10]byte{1, 2, 3, 4, 5, 6, 7, 11, 12, 13}

// FullDeck is every card in the 40-card deck, unordered.
var FullDeck = buildFullDeck()

func buildFullDeck() []Card {
	suits := []Card{0x00, 0x10, 0x20, 0x30}
	deck := make([]Card, 0, 40)
	for _, base := range suits {
		for _, r := range DeckRanks {
			deck = append(deck, base+Card(r))
		}
	}
	return deck
}
