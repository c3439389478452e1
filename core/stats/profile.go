package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const (
	// LoginMessage is what a wallet signs to obtain an API token.
	LoginMessage = "pharos"
	inviteCode   = "kwN8Xxeb4sCbTvRA"
	siteOrigin   = "https://testnet.pharosnetwork.xyz"
)

// ErrForbidden is returned when the API rejects the token.
var ErrForbidden = errors.New("profile api: forbidden")

// UserInfo is the points section of a testnet profile.
type UserInfo struct {
	ID           json.Number     `json:"ID"`
	TotalPoints  decimal.Decimal `json:"TotalPoints"`
	TaskPoints   decimal.Decimal `json:"TaskPoints"`
	InvitePoints decimal.Decimal `json:"InvitePoints"`
}

type profileResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		UserInfo *UserInfo `json:"user_info"`
	} `json:"data"`
}

type loginResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		JWT string `json:"jwt"`
	} `json:"data"`
}

// ProfileClient talks to the testnet points API.
type ProfileClient struct {
	http *resty.Client
}

func NewProfileClient(baseURL string, timeout time.Duration) *ProfileClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json, text/plain, */*").
		SetHeader("Origin", siteOrigin).
		SetHeader("Referer", siteOrigin+"/")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &ProfileClient{http: client}
}

// Profile fetches the points of address using token.
func (c *ProfileClient) Profile(ctx context.Context, address, token string) (*UserInfo, error) {
	var out profileResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("address", address).
		SetResult(&out).
		Get("/user/profile")
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusForbidden {
		return nil, ErrForbidden
	}
	if resp.IsError() {
		return nil, fmt.Errorf("profile request failed: status %d", resp.StatusCode())
	}
	if out.Data.UserInfo == nil {
		return nil, fmt.Errorf("profile response has no user info (code %d: %s)", out.Code, out.Msg)
	}
	return out.Data.UserInfo, nil
}

// Login exchanges a signature of LoginMessage for a fresh token.
func (c *ProfileClient) Login(ctx context.Context, address, signature string) (string, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer null").
		SetQueryParams(map[string]string{
			"address":     address,
			"signature":   signature,
			"invite_code": inviteCode,
		}).
		SetResult(&out).
		Post("/user/login")
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("login request failed: status %d", resp.StatusCode())
	}
	if out.Data.JWT == "" {
		return "", fmt.Errorf("login response has no token (code %d: %s)", out.Code, out.Msg)
	}
	return out.Data.JWT, nil
}

// TokenExpired reports whether the exp claim of token lies before now. The
// signature is not checked; tokens without a readable exp count as usable
// and let the API decide.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
