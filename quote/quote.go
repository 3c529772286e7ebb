package quote

// Side selects which side of the market an observable is read on.
type Side int

const (
	Mid Side = iota
	Bid
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "BID"
	case Ask:
		return "ASK"
	default:
		return "MID"
	}
}

// Perspective identifies whose valuation is being produced.
//
// Party is matched against the leg's payer and receiver; ForceMid overrides
// the party and prices both observables at mid.
type Perspective struct {
	Party    string
	ForceMid bool
}

// Select derives the stock side and the rate side for a perspective.
//
// The payer reads the underlying at bid and the rate at ask, the receiver the
// opposite. Any other party, or ForceMid, gets mid on both.
func Select(p Perspective, payer, receiver string) (stock, rate Side) {
	if p.ForceMid || p.Party == "" {
		return Mid, Mid
	}
	switch p.Party {
	case payer:
		return Bid, Ask
	case receiver:
		return Ask, Bid
	default:
		return Mid, Mid
	}
}
