package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

func (c *Client) Register(ctx context.Context, in Registration) (AuthResult, error) {
	var res AuthResult
	err := c.Do(ctx, http.MethodPost, "/auth/register", &res, WithBody(in))
	return res, err
}

func (c *Client) Login(ctx context.Context, in Credentials) (AuthResult, error) {
	var res AuthResult
	err := c.Do(ctx, http.MethodPost, "/auth/login", &res, WithBody(in))
	return res, err
}

// GoogleLogin exchanges an identity-provider ID token for a backend session.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (AuthResult, error) {
	var res AuthResult
	err := c.Do(ctx, http.MethodPost, "/auth/google-login", &res, WithBody(map[string]string{"token": idToken}))
	return res, err
}

func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.Do(ctx, http.MethodGet, "/users/profile", &u, WithToken(token)); err != nil {
		if c.offline(err) {
			return fallbackUser(), nil
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile returns the updated user when the backend echoes it, and
// otherwise only its acknowledgement message.
func (c *Client) UpdateProfile(ctx context.Context, token string, in ProfileUpdate) (*User, string, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPut, "/users/profile", &raw, WithToken(token), WithBody(in)); err != nil {
		return nil, "", err
	}
	u, msg := userOrMessage(raw, "updated")
	return u, msg, nil
}

func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (string, error) {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	var res Result
	if err := c.Do(ctx, http.MethodPut, "/users/password", &res, WithToken(token), WithBody(body)); err != nil {
		return "", err
	}
	return orDefault(res.Message, "password_updated"), nil
}

// UploadProfilePicture tries /users/profile/picture first and falls back to
// the older /users/profile/pic endpoint when that route does not exist.
func (c *Client) UploadProfilePicture(ctx context.Context, token string, pic File, fields map[string]string) (*User, error) {
	body, err := readAllFile(pic)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	pic.Field = "avatar"
	pic.Body = body()
	err = c.Upload(ctx, "/users/profile/picture", token, fields, []File{pic}, &raw)
	if IsNotFound(err) {
		pic.Field = "file"
		pic.Body = body()
		err = c.Upload(ctx, "/users/profile/pic", token, fields, []File{pic}, &raw)
	}
	if err != nil {
		return nil, err
	}
	u, _ := userOrMessage(raw, "")
	return u, nil
}

func (c *Client) Addresses(ctx context.Context, token string) ([]Address, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/users/addresses", &raw, WithToken(token)); err != nil {
		return nil, err
	}
	addrs, err := listOf[Address](raw, "addresses")
	if err != nil {
		return nil, &Error{Message: "decode addresses", Err: err}
	}
	return withIDs(addrs), nil
}

type AddressInput struct {
	Label     string `json:"label"`
	Recipient string `json:"recipient"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// Complete reports whether every field is filled in.
func (a AddressInput) Complete() bool {
	return a.Label != "" && a.Recipient != "" && a.Street != "" && a.City != "" && a.State != "" && a.Zip != ""
}

func (c *Client) AddAddress(ctx context.Context, token string, in AddressInput) (ID, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPost, "/users/addresses", &raw, WithToken(token), WithBody(in)); err != nil {
		return "", err
	}
	var env map[string]json.RawMessage
	if json.Unmarshal(raw, &env) != nil {
		return "", nil
	}
	if inner, ok := env["address"]; ok {
		var a map[string]json.RawMessage
		if json.Unmarshal(inner, &a) == nil {
			if id := pickID(a, "id", "address_id", "addr_id"); !id.IsZero() {
				return id, nil
			}
		}
	}
	return pickID(env, "id", "address_id", "addr_id"), nil
}

func (c *Client) DeleteAddress(ctx context.Context, token, id string) (string, error) {
	return c.ack(ctx, http.MethodDelete, "/users/addresses/"+url.PathEscape(id), token, nil, "deleted")
}

func (c *Client) Cards(ctx context.Context, token string) ([]Card, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/users/cards", &raw, WithToken(token)); err != nil {
		if c.offline(err) {
			return []Card{}, nil
		}
		return nil, err
	}
	return listOf[Card](raw, "cards")
}

func (c *Client) AddCard(ctx context.Context, token string, in NewCard) (ID, error) {
	var res struct {
		ID ID `json:"id"`
	}
	if err := c.Do(ctx, http.MethodPost, "/users/cards", &res, WithToken(token), WithBody(in)); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) SetDefaultCard(ctx context.Context, token, id string, isDefault bool) (string, error) {
	body := map[string]bool{"is_default": isDefault}
	return c.ack(ctx, http.MethodPut, "/users/cards/"+url.PathEscape(id)+"/default", token, body, "updated")
}

func (c *Client) DeleteCard(ctx context.Context, token, id string) (string, error) {
	return c.ack(ctx, http.MethodDelete, "/users/cards/"+url.PathEscape(id), token, nil, "deleted")
}

// ack performs a mutation answered by {message}, substituting def when absent.
func (c *Client) ack(ctx context.Context, method, endpoint, token string, body any, def string) (string, error) {
	opts := []CallOption{WithToken(token)}
	if body != nil {
		opts = append(opts, WithBody(body))
	}
	var raw json.RawMessage
	if err := c.Do(ctx, method, endpoint, &raw, opts...); err != nil {
		return "", err
	}
	var res Result
	_ = json.Unmarshal(raw, &res)
	return orDefault(res.Message, def), nil
}

func userOrMessage(raw []byte, def string) (*User, string) {
	var env map[string]json.RawMessage
	if json.Unmarshal(raw, &env) != nil {
		return nil, def
	}
	if inner, ok := env["user"]; ok && isObject(inner) {
		var u User
		if json.Unmarshal(inner, &u) == nil {
			return &u, ""
		}
	}
	if _, ok := env["id"]; ok {
		var u User
		if json.Unmarshal(raw, &u) == nil {
			return &u, ""
		}
	}
	var res Result
	_ = json.Unmarshal(raw, &res)
	return nil, orDefault(res.Message, def)
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
