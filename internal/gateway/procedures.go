package gateway

import (
	"context"
	"fmt"

	"github.com/mothmanmarket/mothman/internal/store"
)

// Remote procedure names. Their internal logic (pricing, balance and
// position bookkeeping, settlement) is opaque to this client.
const (
	procMakeBet = "make_bet"
	procBuy     = "transaction"
	procSell    = "sell_transaction"
	procResolve = "resolve_bet"
)

// MakeBet creates a bet and returns the new identifier when the
// procedure reports one (empty otherwise).
func (c *Client) MakeBet(ctx context.Context, title, comments, resolverID string) (string, error) {
	params := map[string]string{
		"bet_title":   title,
		"comments":    comments,
		"resolver_id": resolverID,
	}
	var newID store.Numeric
	if err := c.rpc(ctx, procMakeBet, params, &newID); err != nil {
		return "", fmt.Errorf("make_bet: %w", err)
	}
	return string(newID), nil
}

// Buy opens or increases a holding and debits the user's balance.
func (c *Client) Buy(ctx context.Context, betID, userID string, isYes bool, amount float64) error {
	params := map[string]any{
		"p_bet_id":      betID,
		"p_user_id":     userID,
		"p_is_yes":      isYes,
		"p_amount_held": amount,
	}
	if err := c.rpc(ctx, procBuy, params, nil); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}

// Sell closes or reduces a holding and credits the user's balance.
func (c *Client) Sell(ctx context.Context, betID, userID string, isYes bool, quantity float64) error {
	params := map[string]any{
		"p_bet_id":   betID,
		"p_user_id":  userID,
		"p_is_yes":   isYes,
		"p_quantity": quantity,
	}
	if err := c.rpc(ctx, procSell, params, nil); err != nil {
		return fmt.Errorf("sell_transaction: %w", err)
	}
	return nil
}

// Resolve marks a bet resolved with the given outcome and settles
// payouts. Outcome must be store.OutcomeYes or store.OutcomeNo.
func (c *Client) Resolve(ctx context.Context, betID, outcome string) error {
	if outcome != store.OutcomeYes && outcome != store.OutcomeNo {
		return fmt.Errorf("resolve_bet: invalid outcome %q", outcome)
	}
	params := map[string]string{
		"p_bet_id":  betID,
		"p_outcome": outcome,
	}
	if err := c.rpc(ctx, procResolve, params, nil); err != nil {
		return fmt.Errorf("resolve_bet: %w", err)
	}
	return nil
}
