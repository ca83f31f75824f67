package ui

import (
	"context"

	"github.com/mothmanmarket/mothman/internal/store"
)

// Action is the trade direction chosen in the bet view.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Confirmation and validation messages shown by the bet view.
const (
	msgBuySuccess   = "Purchase successful!"
	msgSellSuccess  = "Sell successful!"
	msgResolvedBet  = "Cannot trade on a resolved bet."
	msgBadQuantity  = "Quantity must be at least 1."
	msgNotLoggedIn  = "You must be logged in."
	msgResolverSelf = "You are the resolver for this bet. Trading is disabled to avoid a conflict of interest."
)

// TradeGateway is the slice of the gateway the trade flow needs.
type TradeGateway interface {
	Buy(ctx context.Context, betID, userID string, isYes bool, amount float64) error
	Sell(ctx context.Context, betID, userID string, isYes bool, quantity float64) error
}

// TradeResult is the outcome of a confirm press: a one-line message
// and, on success, the page to redirect to after the fixed delay.
type TradeResult struct {
	Message  string
	Redirect string
}

// SubmitTrade validates a trade locally, then calls the matching
// remote procedure. Validation failures never reach the network; the
// resolver-conflict check mirrors the server-side rule but is
// advisory only. Gateway errors degrade to their message with no
// automatic retry.
func SubmitTrade(ctx context.Context, gw TradeGateway, bet *store.Bet, userID string, action Action, isYes bool, quantity float64) TradeResult {
	if bet == nil {
		return TradeResult{Message: "Bet not found."}
	}
	if bet.Resolved {
		return TradeResult{Message: msgResolvedBet}
	}
	if quantity <= 0 {
		return TradeResult{Message: msgBadQuantity}
	}
	if userID == "" {
		return TradeResult{Message: msgNotLoggedIn}
	}
	if bet.ResolverID != "" && bet.ResolverID == userID {
		return TradeResult{Message: msgResolverSelf}
	}

	switch action {
	case ActionSell:
		if err := gw.Sell(ctx, bet.ID, userID, isYes, quantity); err != nil {
			return TradeResult{Message: err.Error()}
		}
		return TradeResult{Message: msgSellSuccess, Redirect: PageDashboard}
	default:
		if err := gw.Buy(ctx, bet.ID, userID, isYes, quantity); err != nil {
			return TradeResult{Message: err.Error()}
		}
		return TradeResult{Message: msgBuySuccess, Redirect: PageDashboard}
	}
}
