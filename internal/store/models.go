// Package store provides client-side views of the remote Mothman Market rows.
package store

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Numeric is a price or balance column as returned by the gateway.
// PostgREST serializes numeric columns as JSON numbers or, for
// arbitrary precision, as strings; both decode into Numeric. A value
// that fails to parse reads as absent, never as zero.
type Numeric string

// UnmarshalJSON accepts a JSON number, string, or null.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) >= 2 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	*n = Numeric(data)
	return nil
}

// MarshalJSON emits the raw numeric text, or null when unparsable.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if _, ok := n.Float(); ok {
		return []byte(n), nil
	}
	return []byte("null"), nil
}

// Float parses the column value. ok is false for empty or
// non-numeric text.
func (n Numeric) Float() (float64, bool) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatOr parses the column value, falling back to def.
func (n Numeric) FloatOr(def float64) float64 {
	if f, ok := n.Float(); ok {
		return f
	}
	return def
}

// Bet is a binary-outcome market. Prices are probability-like values
// intended to lie in [0,1]; the client does not enforce that.
type Bet struct {
	ID         string    `json:"bet_id"`
	Title      string    `json:"bet_title"`
	Comments   string    `json:"comments"`
	Resolved   bool      `json:"resolved"`
	YesPrice   Numeric   `json:"yes_price"`
	NoPrice    Numeric   `json:"no_price"`
	ResolverID string    `json:"resolver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Active reports whether the bet still accepts trades.
func (b Bet) Active() bool {
	return !b.Resolved
}

// PricePoint is one timestamped snapshot of a bet's yes/no prices.
// Rows are append-only and read-only from the client.
type PricePoint struct {
	ID        string    `json:"history_id"`
	BetID     string    `json:"bet_id"`
	YesPrice  Numeric   `json:"yes_price"`
	NoPrice   Numeric   `json:"no_price"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a user account. Password holds a bcrypt hash; the
// plaintext credential flow of earlier revisions is not supported.
type Profile struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Balance  Numeric `json:"balance"`
	Password string  `json:"password,omitempty"`
}

// Holding is a user's open or closed position in one side of one bet.
type Holding struct {
	TransactionID string     `json:"transaction_id"`
	UserID        string     `json:"user_id"`
	BetID         string     `json:"bet_id"`
	IsYes         bool       `json:"is_yes"`
	Active        bool       `json:"active"`
	AmountHeld    Numeric    `json:"amount_held"`
	BuyPrice      Numeric    `json:"buy_price"`
	BuyTime       *time.Time `json:"buy_time"`
	SellPrice     Numeric    `json:"sell_price"`
	SellTime      *time.Time `json:"sell_time"`
}

// LastActivity is the sell time when the holding is closed, otherwise
// the buy time. The ticker orders entries newest-first by this.
func (h Holding) LastActivity() time.Time {
	if h.SellTime != nil {
		return *h.SellTime
	}
	if h.BuyTime != nil {
		return *h.BuyTime
	}
	return time.Time{}
}

// TickerEntry is a transaction joined with its owner's username and
// the bet title, as the ticker feed displays it.
type TickerEntry struct {
	Holding
	Username string `json:"username"`
	BetTitle string `json:"bet_title"`
}

// Outcome values accepted by the resolve_bet procedure.
const (
	OutcomeYes = "yes"
	OutcomeNo  = "no"
)
