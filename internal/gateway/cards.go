package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
)

// ListCards returns the session user's simulated cards
func (c *Client) ListCards(ctx context.Context, sess session.Session) ([]model.Card, error) {
	if err := requireSession("list cards", sess); err != nil {
		return nil, err
	}

	var cards []model.Card
	if err := c.do(ctx, request{
		op:         "list cards",
		method:     http.MethodGet,
		path:       "/rest/v1/tarjetas_simuladas",
		query:      url.Values{"select": {"*"}, "usuario_id": {eq(sess.SubjectID)}},
		credential: sess.Credential,
	}, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return cards, nil
}

// AddCard inserts a simulated card. OwnerID is forced to the session user.
func (c *Client) AddCard(ctx context.Context, sess session.Session, card model.NewCard) error {
	if err := requireSession("add card", sess); err != nil {
		return err
	}
	card.OwnerID = sess.SubjectID
	return c.do(ctx, request{
		op:         "add card",
		method:     http.MethodPost,
		path:       "/rest/v1/tarjetas_simuladas",
		body:       card,
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// DeleteCard removes a card by id
func (c *Client) DeleteCard(ctx context.Context, sess session.Session, id string) error {
	if err := requireSession("delete card", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:         "delete card",
		method:     http.MethodDelete,
		path:       "/rest/v1/tarjetas_simuladas",
		query:      url.Values{"id": {eq(id)}},
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// UpdateCardBalance overwrites a card's simulated balance
func (c *Client) UpdateCardBalance(ctx context.Context, sess session.Session, id string, balance decimal.Decimal) error {
	if err := requireSession("update card balance", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:         "update card balance",
		method:     http.MethodPatch,
		path:       "/rest/v1/tarjetas_simuladas",
		query:      url.Values{"id": {eq(id)}},
		body:       map[string]decimal.Decimal{"saldo_simulado": balance},
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}
