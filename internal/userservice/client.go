package userservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userByIDCapacity, sessionCountCapacity and cacheTTL are the concrete
// bounds for the two front-line caches.
const (
	userByIDCapacity    = 100
	sessionCountCapacity = 1
	cacheTTL             = 15 * time.Second
)

// Client is a thin HTTP/JSON client for the upstream user service:
// http.Client with an explicit Timeout, http.NewRequest, explicit
// headers, JSON request/response bodies.
type Client struct {
	baseURL string
	http    *http.Client

	userByID     *ttlCache[int64, User]
	sessionCount *ttlCache[struct{}, int]
}

// NewClient creates a Client targeting http://host:port, with the given
// per-request timeout.
func NewClient(host string, port int, timeout time.Duration) *Client {
	return &Client{
		baseURL:      fmt.Sprintf("http://%s:%d", host, port),
		http:         &http.Client{Timeout: timeout},
		userByID:     newTTLCache[int64, User](userByIDCapacity, cacheTTL),
		sessionCount: newTTLCache[struct{}, int](sessionCountCapacity, cacheTTL),
	}
}

func (c *Client) do(method, path string, body, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response body: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Login validates a username/password pair. Returns userId>0 on success,
// 0 if no such username exists, and ErrBadPassword if the username
// exists but the password does not match.
func (c *Client) Login(username, password string) (int64, error) {
	var result struct {
		UserID int64 `json:"userId"`
	}
	_, err := c.do(http.MethodPost, "/users/auth/validate", map[string]string{
		"username": username,
		"password": password,
	}, &result)
	if err == ErrUserNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if result.UserID == -1 {
		return 0, ErrBadPassword
	}
	return result.UserID, nil
}

// ValidatePasswordRecovery checks a security-question answer for password
// recovery, returning the user id on success.
func (c *Client) ValidatePasswordRecovery(username, securityAnswer string) (int64, error) {
	var result struct {
		UserID int64 `json:"userId"`
	}
	_, err := c.do(http.MethodPost, "/users/auth/validate_security", map[string]string{
		"username": username,
		"answer":   securityAnswer,
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.UserID, nil
}

// Logout records a session end. The upstream has no dedicated endpoint
// for this; it only invalidates any cached record for the user so a
// subsequent GetById reflects the upstream's current state rather than
// a stale hit.
func (c *Client) Logout(userID int64) {
	c.userByID.Invalidate(userID)
}

// GetById returns the user record for id, consulting the TTL cache first.
func (c *Client) GetById(id int64) (User, error) {
	if u, ok := c.userByID.Get(id); ok {
		return u, nil
	}

	var u User
	_, err := c.do(http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &u)
	if err != nil {
		return User{}, err
	}
	c.userByID.Set(id, u)
	return u, nil
}

// GetByName returns the user record for name. Unlike GetById, it does not
// consult or fill a cache.
func (c *Client) GetByName(name string) (User, error) {
	var u User
	_, err := c.do(http.MethodGet, "/users/byname/"+name, nil, &u)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// ValidateCredentials double-checks a username/password pair against the
// upstream without establishing a session.
func (c *Client) ValidateCredentials(username, password string) (bool, error) {
	id, err := c.Login(username, password)
	if err != nil {
		return false, err
	}
	return id > 0, nil
}

// SessionCount returns the upstream's reported active session count,
// consulting the single-entry TTL cache first.
func (c *Client) SessionCount() (int, error) {
	if n, ok := c.sessionCount.Get(struct{}{}); ok {
		return n, nil
	}

	var result struct {
		Sessions int `json:"sessions"`
	}
	_, err := c.do(http.MethodGet, "/ping", nil, &result)
	if err != nil {
		return 0, err
	}
	c.sessionCount.Set(struct{}{}, result.Sessions)
	return result.Sessions, nil
}

// bundlePath maps the four bootstrap bundle kinds to their upstream
// sub-path: "/inventory/{id}" for inventory itself, and
// "/inventory/{id}/{kind}" for cosmetics, loadout, and buy-menu.
func bundlePath(userID int64, kind string) string {
	if kind == "inventory" {
		return fmt.Sprintf("/inventory/%d", userID)
	}
	return fmt.Sprintf("/inventory/%d/%s", userID, kind)
}

// CreateInventory provisions a fresh inventory bundle for a newly seen
// user, returning the created opaque blob.
func (c *Client) CreateInventory(userID int64) (Bundle, error) {
	return c.createBundle(userID, "inventory")
}

// CreateCosmetics provisions a fresh cosmetics bundle.
func (c *Client) CreateCosmetics(userID int64) (Bundle, error) {
	return c.createBundle(userID, "cosmetics")
}

// CreateLoadouts provisions a fresh loadouts bundle.
func (c *Client) CreateLoadouts(userID int64) (Bundle, error) {
	return c.createBundle(userID, "loadout")
}

// CreateBuyMenu provisions a fresh buy-menu bundle.
func (c *Client) CreateBuyMenu(userID int64) (Bundle, error) {
	return c.createBundle(userID, "buymenu")
}

func (c *Client) createBundle(userID int64, kind string) (Bundle, error) {
	var raw json.RawMessage
	_, err := c.do(http.MethodPost, bundlePath(userID, kind), nil, &raw)
	if err != nil {
		return nil, err
	}
	return Bundle(raw), nil
}

// GetInventory fetches the current inventory bundle for userID.
func (c *Client) GetInventory(userID int64) (Bundle, error) { return c.getBundle(userID, "inventory") }

// GetCosmetics fetches the current cosmetics bundle for userID.
func (c *Client) GetCosmetics(userID int64) (Bundle, error) { return c.getBundle(userID, "cosmetics") }

// GetLoadouts fetches the current loadouts bundle for userID.
func (c *Client) GetLoadouts(userID int64) (Bundle, error) { return c.getBundle(userID, "loadout") }

// GetBuyMenu fetches the current buy-menu bundle for userID.
func (c *Client) GetBuyMenu(userID int64) (Bundle, error) { return c.getBundle(userID, "buymenu") }

func (c *Client) getBundle(userID int64, kind string) (Bundle, error) {
	var raw json.RawMessage
	_, err := c.do(http.MethodGet, bundlePath(userID, kind), nil, &raw)
	if err != nil {
		return nil, err
	}
	return Bundle(raw), nil
}

// SetLoadoutWeapon updates one weapon slot of userID's loadout bundle. The
// payload is forwarded opaquely; the core never interprets it.
func (c *Client) SetLoadoutWeapon(userID int64, payload Bundle) error {
	return c.putBundle(userID, "loadout", payload)
}

// SetCosmeticSlot updates one cosmetic slot of userID's cosmetics bundle.
func (c *Client) SetCosmeticSlot(userID int64, payload Bundle) error {
	return c.putBundle(userID, "cosmetics", payload)
}

// SetBuyMenu replaces userID's buy-menu bundle.
func (c *Client) SetBuyMenu(userID int64, payload Bundle) error {
	return c.putBundle(userID, "buymenu", payload)
}

func (c *Client) putBundle(userID int64, kind string, payload Bundle) error {
	_, err := c.do(http.MethodPut, bundlePath(userID, kind), json.RawMessage(payload), nil)
	return err
}
