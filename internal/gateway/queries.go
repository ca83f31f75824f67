package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mothmanmarket/mothman/internal/store"
)

// Bets fetches every bet.
func (c *Client) Bets(ctx context.Context) ([]store.Bet, error) {
	var bets []store.Bet
	q := url.Values{"select": {"*"}}
	if err := c.get(ctx, TableBets, q, &bets); err != nil {
		return nil, fmt.Errorf("fetching bets: %w", err)
	}
	return bets, nil
}

// Bet fetches one bet by id. Returns ErrNotFound when no row matches.
func (c *Client) Bet(ctx context.Context, betID string) (*store.Bet, error) {
	var bets []store.Bet
	q := url.Values{
		"select": {"*"},
		"bet_id": {"eq." + betID},
		"limit":  {"1"},
	}
	if err := c.get(ctx, TableBets, q, &bets); err != nil {
		return nil, fmt.Errorf("fetching bet %s: %w", betID, err)
	}
	if len(bets) == 0 {
		return nil, ErrNotFound
	}
	return &bets[0], nil
}

// BetsByIDs fetches the bets backing a set of holdings.
func (c *Client) BetsByIDs(ctx context.Context, ids []string) ([]store.Bet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var bets []store.Bet
	q := url.Values{
		"select": {"*"},
		"bet_id": {"in.(" + strings.Join(ids, ",") + ")"},
	}
	if err := c.get(ctx, TableBets, q, &bets); err != nil {
		return nil, fmt.Errorf("fetching bets by ids: %w", err)
	}
	return bets, nil
}

// BetsByResolver fetches the bets the given user is authorized to
// resolve, newest first.
func (c *Client) BetsByResolver(ctx context.Context, userID string) ([]store.Bet, error) {
	var bets []store.Bet
	q := url.Values{
		"select":      {"*"},
		"resolver_id": {"eq." + userID},
		"order":       {"created_at.desc"},
	}
	if err := c.get(ctx, TableBets, q, &bets); err != nil {
		return nil, fmt.Errorf("fetching resolver bets: %w", err)
	}
	return bets, nil
}

// PriceHistory fetches one bet's price samples ordered by creation time.
func (c *Client) PriceHistory(ctx context.Context, betID string) ([]store.PricePoint, error) {
	var history []store.PricePoint
	q := url.Values{
		"select": {"*"},
		"bet_id": {"eq." + betID},
		"order":  {"created_at.asc"},
	}
	if err := c.get(ctx, TablePriceHistory, q, &history); err != nil {
		return nil, fmt.Errorf("fetching price history for %s: %w", betID, err)
	}
	return history, nil
}

// AllPriceHistory fetches every price sample ordered by creation time.
// The dashboard partitions the result per bet client-side.
func (c *Client) AllPriceHistory(ctx context.Context) ([]store.PricePoint, error) {
	var history []store.PricePoint
	q := url.Values{
		"select": {"*"},
		"order":  {"created_at.asc"},
	}
	if err := c.get(ctx, TablePriceHistory, q, &history); err != nil {
		return nil, fmt.Errorf("fetching price history: %w", err)
	}
	return history, nil
}

// Profile fetches one profile by user id. Returns ErrNotFound when no
// row matches.
func (c *Client) Profile(ctx context.Context, userID string) (*store.Profile, error) {
	var profiles []store.Profile
	q := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + userID},
		"limit":   {"1"},
	}
	if err := c.get(ctx, TableProfiles, q, &profiles); err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", userID, err)
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

// ProfileByUsername fetches one profile by exact username, including
// the stored credential hash for login verification.
func (c *Client) ProfileByUsername(ctx context.Context, username string) (*store.Profile, error) {
	var profiles []store.Profile
	q := url.Values{
		"select":   {"user_id,username,balance,password"},
		"username": {"eq." + username},
		"limit":    {"1"},
	}
	if err := c.get(ctx, TableProfiles, q, &profiles); err != nil {
		return nil, fmt.Errorf("fetching profile %q: %w", username, err)
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

// SearchProfiles finds profiles whose username contains the query,
// case-insensitively. Used by the resolver picker.
func (c *Client) SearchProfiles(ctx context.Context, query string, limit int) ([]store.Profile, error) {
	if limit <= 0 {
		limit = 10
	}
	var profiles []store.Profile
	q := url.Values{
		"select":   {"user_id,username"},
		"username": {"ilike.*" + query + "*"},
		"limit":    {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, TableProfiles, q, &profiles); err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	return profiles, nil
}

// Leaderboard fetches every profile ordered by balance descending.
func (c *Client) Leaderboard(ctx context.Context) ([]store.Profile, error) {
	var profiles []store.Profile
	q := url.Values{
		"select": {"username,balance"},
		"order":  {"balance.desc"},
	}
	if err := c.get(ctx, TableProfiles, q, &profiles); err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}
	return profiles, nil
}

// Holdings fetches every transaction row owned by the user.
func (c *Client) Holdings(ctx context.Context, userID string) ([]store.Holding, error) {
	var holdings []store.Holding
	q := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + userID},
	}
	if err := c.get(ctx, TableTransactions, q, &holdings); err != nil {
		return nil, fmt.Errorf("fetching holdings: %w", err)
	}
	return holdings, nil
}

// tickerRow is the transactions row with its embedded profile and bet
// as the gateway nests them.
type tickerRow struct {
	store.Holding
	Profiles struct {
		Username string `json:"username"`
	} `json:"profiles"`
	Bets struct {
		BetTitle string `json:"bet_title"`
	} `json:"bets"`
}

// RecentTransactions fetches the latest transactions with their
// owner's username and bet title embedded, ordered by buy time
// descending.
func (c *Client) RecentTransactions(ctx context.Context, limit int) ([]store.TickerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []tickerRow
	q := url.Values{
		"select": {"transaction_id,user_id,bet_id,amount_held,buy_price,sell_price,is_yes,buy_time,sell_time,profiles!inner(username),bets!inner(bet_title)"},
		"order":  {"buy_time.desc"},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, TableTransactions, q, &rows); err != nil {
		return nil, fmt.Errorf("fetching recent transactions: %w", err)
	}

	entries := make([]store.TickerEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, store.TickerEntry{
			Holding:  r.Holding,
			Username: r.Profiles.Username,
			BetTitle: r.Bets.BetTitle,
		})
	}
	return entries, nil
}

// CreateProfile inserts a new profile during signup. passwordHash
// must be a bcrypt hash; the gateway never sees the plaintext.
func (c *Client) CreateProfile(ctx context.Context, username, passwordHash string) error {
	row := []map[string]string{{
		"username": username,
		"password": passwordHash,
	}}
	if err := c.insert(ctx, TableProfiles, row); err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}
