package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/mothmanmarket/mothman/internal/store"
)

type fakeTradeGateway struct {
	buyCalls  int
	sellCalls int
	lastBetID string
	lastIsYes bool
	lastQty   float64
	err       error
}

func (f *fakeTradeGateway) Buy(ctx context.Context, betID, userID string, isYes bool, amount float64) error {
	f.buyCalls++
	f.lastBetID = betID
	f.lastIsYes = isYes
	f.lastQty = amount
	return f.err
}

func (f *fakeTradeGateway) Sell(ctx context.Context, betID, userID string, isYes bool, quantity float64) error {
	f.sellCalls++
	f.lastBetID = betID
	f.lastIsYes = isYes
	f.lastQty = quantity
	return f.err
}

func openBet() *store.Bet {
	return &store.Bet{ID: "b1", Title: "Will it rain?", ResolverID: "resolver-1"}
}

func TestSubmitTradeBuySuccess(t *testing.T) {
	gw := &fakeTradeGateway{}
	result := SubmitTrade(context.Background(), gw, openBet(), "u1", ActionBuy, true, 3)

	if result.Message != msgBuySuccess {
		t.Errorf("expected %q, got %q", msgBuySuccess, result.Message)
	}
	if result.Redirect != PageDashboard {
		t.Errorf("expected redirect to dashboard, got %q", result.Redirect)
	}
	if gw.buyCalls != 1 || gw.sellCalls != 0 {
		t.Errorf("expected one buy call, got buy=%d sell=%d", gw.buyCalls, gw.sellCalls)
	}
	if gw.lastBetID != "b1" || !gw.lastIsYes || gw.lastQty != 3 {
		t.Errorf("unexpected call args: %+v", gw)
	}
}

func TestSubmitTradeSellSuccess(t *testing.T) {
	gw := &fakeTradeGateway{}
	result := SubmitTrade(context.Background(), gw, openBet(), "u1", ActionSell, false, 2)

	if result.Message != msgSellSuccess {
		t.Errorf("expected %q, got %q", msgSellSuccess, result.Message)
	}
	if result.Redirect != PageDashboard {
		t.Errorf("expected redirect to dashboard, got %q", result.Redirect)
	}
	if gw.sellCalls != 1 || gw.buyCalls != 0 {
		t.Errorf("expected one sell call, got buy=%d sell=%d", gw.buyCalls, gw.sellCalls)
	}
}

func TestSubmitTradeValidation(t *testing.T) {
	resolved := openBet()
	resolved.Resolved = true

	resolverBet := openBet()

	cases := []struct {
		name     string
		bet      *store.Bet
		userID   string
		quantity float64
		want     string
	}{
		{"missing bet", nil, "u1", 1, "Bet not found."},
		{"resolved bet", resolved, "u1", 1, msgResolvedBet},
		{"zero quantity", openBet(), "u1", 0, msgBadQuantity},
		{"negative quantity", openBet(), "u1", -2, msgBadQuantity},
		{"logged out", openBet(), "", 1, msgNotLoggedIn},
		{"resolver conflict", resolverBet, "resolver-1", 1, msgResolverSelf},
	}

	for _, tc := range cases {
		gw := &fakeTradeGateway{}
		result := SubmitTrade(context.Background(), gw, tc.bet, tc.userID, ActionBuy, true, tc.quantity)
		if result.Message != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, result.Message)
		}
		if result.Redirect != "" {
			t.Errorf("%s: expected no redirect, got %q", tc.name, result.Redirect)
		}
		if gw.buyCalls != 0 || gw.sellCalls != 0 {
			t.Errorf("%s: validation failure must not reach the gateway", tc.name)
		}
	}
}

func TestSubmitTradeGatewayError(t *testing.T) {
	gw := &fakeTradeGateway{err: errors.New("insufficient balance")}
	result := SubmitTrade(context.Background(), gw, openBet(), "u1", ActionBuy, true, 1)

	if result.Message != "insufficient balance" {
		t.Errorf("expected gateway message, got %q", result.Message)
	}
	if result.Redirect != "" {
		t.Errorf("expected no redirect on failure, got %q", result.Redirect)
	}
}
