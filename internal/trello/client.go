// Package trello resolves boards and cards on Trello and attaches links to
// cards.
package trello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kagof/trello-link-github-action/internal/logging"
)

// Board is a Trello board visible to the token's member.
type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortLink string `json:"shortLink"`
}

// Card is a Trello card. IDShort is the number shown on the card within its
// board.
type Card struct {
	ID      string
	Name    string
	IDShort string
}

type wireCard struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IDShort int    `json:"idShort"`
}

func (w wireCard) card() *Card {
	return &Card{ID: w.ID, Name: w.Name, IDShort: strconv.Itoa(w.IDShort)}
}

// ClientOptions configures a Client.
type ClientOptions struct {
	APIKey string
	Token  string

	// Observe, when set, is called after every API call.
	Observe func(op string, elapsed time.Duration, err error)
}

// Client is a Trello API client authenticated with an API key and a member token.
type Client struct {
	transport Transport
	opts      ClientOptions
}

// NewClient creates a client issuing its calls through t.
func NewClient(t Transport, opts ClientOptions) *Client {
	return &Client{transport: t, opts: opts}
}

// Boards lists every board the token's member can access.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	q := url.Values{"fields": {"id,name,shortLink"}}

	var boards []Board
	if err := c.call(ctx, "list boards", false, "/1/members/me/boards", q, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// ResolveBoard finds the first board whose name, short link or id equals
// identifier. It returns nil without error for an empty identifier or when
// no board matches.
func (c *Client) ResolveBoard(ctx context.Context, identifier string) (*Board, error) {
	if identifier == "" {
		return nil, nil
	}

	boards, err := c.Boards(ctx)
	if err != nil {
		return nil, err
	}

	for _, b := range boards {
		if b.Name == identifier || b.ShortLink == identifier || b.ID == identifier {
			logging.Debug("resolved board", "identifier", identifier, "board_id", b.ID, "board", b.Name)
			return &b, nil
		}
	}
	return nil, nil
}

// Card fetches the card numbered idShort on a board. A missing card is a
// RemoteError matching ErrNotFound.
func (c *Client) Card(ctx context.Context, boardID, idShort string) (*Card, error) {
	path := fmt.Sprintf("/1/boards/%s/cards/%s", url.PathEscape(boardID), url.PathEscape(idShort))
	q := url.Values{"fields": {"id,name,idShort"}}

	var w wireCard
	if err := c.call(ctx, "get card", false, path, q, &w); err != nil {
		return nil, err
	}
	return w.card(), nil
}

// SearchCard searches every accessible board for a card numbered idShort and
// returns the first exact match, or nil.
func (c *Client) SearchCard(ctx context.Context, idShort string) (*Card, error) {
	q := url.Values{
		"query":       {idShort},
		"modelTypes":  {"cards"},
		"card_fields": {"id,idShort,name"},
	}

	var result struct {
		Cards []wireCard `json:"cards"`
	}
	if err := c.call(ctx, "search cards", false, "/1/search", q, &result); err != nil {
		return nil, err
	}

	for _, w := range result.Cards {
		if strconv.Itoa(w.IDShort) == idShort {
			return w.card(), nil
		}
	}
	return nil, nil
}

// ResolveCard finds the card a tag refers to. With a board the card is
// fetched by its number on that board; without one every accessible board
// is searched. It returns nil without error when there is no such card.
func (c *Client) ResolveCard(ctx context.Context, board *Board, idShort string) (*Card, error) {
	if board == nil {
		logging.Info("searching all boards for card", "card", idShort)
		card, err := c.SearchCard(ctx, idShort)
		if err == nil && card == nil {
			logging.Info("card not found", "card", idShort)
		}
		return card, err
	}

	logging.Info("searching board for card", "board_id", board.ID, "card", idShort)
	card, err := c.Card(ctx, board.ID, idShort)
	if errors.Is(err, ErrNotFound) {
		logging.Info("card not found", "board_id", board.ID, "card", idShort)
		return nil, nil
	}
	return card, err
}

// Attach links linkURL to card under the given title. Existing attachments
// are not checked, so attaching the same URL twice creates two attachments.
func (c *Client) Attach(ctx context.Context, card *Card, linkURL, title string) error {
	path := fmt.Sprintf("/1/cards/%s/attachments", url.PathEscape(card.ID))
	q := url.Values{
		"name": {title},
		"url":  {linkURL},
	}
	return c.call(ctx, "create attachment", true, path, q, nil)
}

func (c *Client) call(ctx context.Context, op string, post bool, path string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.opts.Observe != nil {
			c.opts.Observe(op, time.Since(start), err)
		}
	}()

	q.Set("key", c.opts.APIKey)
	q.Set("token", c.opts.Token)

	var resp *Response
	if post {
		resp, err = c.transport.Post(ctx, path, q)
	} else {
		resp, err = c.transport.Get(ctx, path, q)
	}
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
