package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Dispute struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Subject   string    `json:"subject"`
	Details   string    `json:"details"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) ListDisputes(ctx context.Context, userID string) ([]Dispute, error) {
	var disputes []Dispute
	path := fmt.Sprintf("/users/%s/disputes", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &disputes); err != nil {
		return nil, err
	}
	return disputes, nil
}

func (c *Client) GetDispute(ctx context.Context, disputeID string) (*Dispute, error) {
	var dispute Dispute
	path := fmt.Sprintf("/disputes/%s", disputeID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &dispute); err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (c *Client) CreateDispute(ctx context.Context, dispute Dispute) (*Dispute, error) {
	var created Dispute
	if err := c.doJSON(ctx, http.MethodPost, "/disputes", dispute, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
