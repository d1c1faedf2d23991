package spotify

import (
	"context"
	"fmt"
	"net/http"
)

// GetUser fetches the profile of the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	apiURL := fmt.Sprintf("%s/me", c.baseURL)

	user := &User{}
	if err := c.doRequest(ctx, http.MethodGet, apiURL, token, nil, user, http.StatusOK); err != nil {
		return nil, err
	}
	if user.Id == "" {
		return nil, fmt.Errorf("malformed profile response: missing id")
	}
	return user, nil
}
