package remote

import "context"

const usersPath = "/users/"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.Get(ctx, usersPath, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser deletes an account by username, which is the key the remote uses.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.Delete(ctx, usersPath+segment(username), nil)
}

// Usernames returns the usernames in listing order.
func Usernames(users []User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}
