package entity

// SymbolPair identifies a market independent of venue payload shape.
type SymbolPair struct {
	Currency string
	Pair     string
}

func (s SymbolPair) Symbol() string {
	return s.Currency + "/" + s.Pair
}
