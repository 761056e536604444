package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
)

type SavedAddress struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Address   domain.Address `json:"address"`
	IsDefault bool           `json:"is_default"`
}

func (c *Client) ListAddresses(ctx context.Context, userID string) ([]SavedAddress, error) {
	var addresses []SavedAddress
	path := fmt.Sprintf("/users/%s/addresses", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, userID string, addr SavedAddress) (*SavedAddress, error) {
	var created SavedAddress
	path := fmt.Sprintf("/users/%s/addresses", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAddress(ctx context.Context, userID string, addr SavedAddress) (*SavedAddress, error) {
	var updated SavedAddress
	path := fmt.Sprintf("/users/%s/addresses/%s", userID, addr.ID)
	if err := c.doJSON(ctx, http.MethodPut, path, addr, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAddress(ctx context.Context, userID, addressID string) error {
	path := fmt.Sprintf("/users/%s/addresses/%s", userID, addressID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
