package trello

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kagof/trello-link-github-action/internal/trello/trellotest"
)

func newTestClient(t *testing.T) (*Client, *trellotest.Server) {
	t.Helper()
	srv := trellotest.NewServer(t)
	srv.AddBoard("b1", "Engineering", "eNgShRt")
	srv.AddBoard("b2", "Marketing", "mKtShRt")
	srv.Cards = []trellotest.Card{
		{ID: "c1", BoardID: "b1", Name: "Login page", IDShort: 12},
		{ID: "c2", BoardID: "b2", Name: "Launch post", IDShort: 12},
		{ID: "c3", BoardID: "b2", Name: "Pricing", IDShort: 112},
	}
	c := NewClient(NewHTTPTransport(srv.URL, 5*time.Second), ClientOptions{
		APIKey: trellotest.APIKey,
		Token:  trellotest.Token,
	})
	return c, srv
}

func TestResolveBoard(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for _, identifier := range []string{"Engineering", "eNgShRt", "b1"} {
		t.Run(identifier, func(t *testing.T) {
			board, err := c.ResolveBoard(ctx, identifier)
			require.NoError(t, err)
			require.NotNil(t, board)
			assert.Equal(t, "b1", board.ID)
		})
	}
}

func TestResolveBoardIsCaseSensitive(t *testing.T) {
	c, _ := newTestClient(t)

	board, err := c.ResolveBoard(context.Background(), "engineering")
	require.NoError(t, err)
	assert.Nil(t, board)
}

func TestResolveBoardEmptyIdentifierMakesNoCall(t *testing.T) {
	c, srv := newTestClient(t)

	board, err := c.ResolveBoard(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, board)
	assert.Empty(t, srv.Requests())
}

func TestResolveBoardAuthFailure(t *testing.T) {
	srv := trellotest.NewServer(t)
	c := NewClient(NewHTTPTransport(srv.URL, 0), ClientOptions{APIKey: trellotest.APIKey, Token: "wrong"})

	_, err := c.ResolveBoard(context.Background(), "Engineering")

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	assert.Equal(t, "list boards", remote.Op)
}

func TestResolveCardOnBoard(t *testing.T) {
	c, _ := newTestClient(t)

	card, err := c.ResolveCard(context.Background(), &Board{ID: "b2"}, "12")
	require.NoError(t, err)
	assert.Equal(t, &Card{ID: "c2", Name: "Launch post", IDShort: "12"}, card)
}

func TestResolveCardNotFound(t *testing.T) {
	c, _ := newTestClient(t)

	card, err := c.ResolveCard(context.Background(), &Board{ID: "b1"}, "99")
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestResolveCardRemoteFailure(t *testing.T) {
	c, srv := newTestClient(t)
	srv.FailCards["12"] = http.StatusInternalServerError

	_, err := c.ResolveCard(context.Background(), &Board{ID: "b1"}, "12")

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestResolveCardWithoutBoardSearchesForExactNumber(t *testing.T) {
	c, srv := newTestClient(t)

	card, err := c.ResolveCard(context.Background(), nil, "112")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "c3", card.ID)
	assert.Contains(t, srv.Requests(), "GET /1/search")
}

func TestSearchCardNoExactMatch(t *testing.T) {
	c, _ := newTestClient(t)

	card, err := c.SearchCard(context.Background(), "1")
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestAttachDoesNotCheckForExistingAttachments(t *testing.T) {
	c, srv := newTestClient(t)
	card := &Card{ID: "c1", IDShort: "12"}
	ctx := context.Background()

	require.NoError(t, c.Attach(ctx, card, "https://github.com/octo/repo/pull/9", "T-12 add login"))
	require.NoError(t, c.Attach(ctx, card, "https://github.com/octo/repo/pull/9", "T-12 add login"))

	want := trellotest.Attachment{CardID: "c1", Name: "T-12 add login", URL: "https://github.com/octo/repo/pull/9"}
	assert.Equal(t, []trellotest.Attachment{want, want}, srv.Attachments())
}

func TestMalformedResponse(t *testing.T) {
	c := NewClient(fakeTransport{body: `{"not":"a list"}`}, ClientOptions{})

	_, err := c.Boards(context.Background())

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Contains(t, err.Error(), "decode response")
}

func TestTransportErrorHidesCredentials(t *testing.T) {
	c := NewClient(NewHTTPTransport("http://127.0.0.1:1", time.Second), ClientOptions{APIKey: "k", Token: "secret-token"})

	_, err := c.Boards(context.Background())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestObserveIsCalledPerCall(t *testing.T) {
	var mu sync.Mutex
	var ops []string
	c := NewClient(fakeTransport{body: `[]`}, ClientOptions{
		Observe: func(op string, _ time.Duration, _ error) {
			mu.Lock()
			ops = append(ops, op)
			mu.Unlock()
		},
	})

	_, err := c.Boards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"list boards"}, ops)
}

type fakeTransport struct {
	status int
	body   string
}

func (f fakeTransport) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return f.respond(), nil
}

func (f fakeTransport) Post(ctx context.Context, path string, query url.Values) (*Response, error) {
	return f.respond(), nil
}

func (f fakeTransport) respond() *Response {
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{StatusCode: status, Body: []byte(f.body)}
}
