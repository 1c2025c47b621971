// Package membership talks to the external SOI membership register. The
// register remains the system of record for member data; this client reads
// from it and, only when explicitly enabled, writes back.
package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/soihub/soi-hub-backend/internal/config"
	"github.com/soihub/soi-hub-backend/internal/db"
)

// ErrWriteDisabled is returned by write operations while the integration runs
// in read-only mode. Callers must surface it, never swallow it.
var ErrWriteDisabled = errors.New("membership register writes are disabled")

// ErrMemberNotFound is returned when the register has no record for the ID.
var ErrMemberNotFound = errors.New("member not found in register")

// Member is a record in the external membership register.
type Member struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	Credentials []string  `json:"credentials"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Profile is the payload for register write operations.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client is a register API client. Lookups are cached in Redis when a cache
// is attached.
type Client struct {
	baseURL      string
	token        string
	writeEnabled bool
	cacheTTL     time.Duration
	httpClient   *http.Client
	cache        *db.RedisDB
}

// NewClient creates a register client from configuration.
func NewClient(cfg *config.Config, cache *db.RedisDB) *Client {
	return &Client{
		baseURL:      cfg.MembershipBaseURL,
		token:        cfg.MembershipAPIToken,
		writeEnabled: cfg.MembershipWriteEnabled,
		cacheTTL:     time.Duration(cfg.MembershipCacheTTLMins) * time.Minute,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cache:        cache,
	}
}

func memberCacheKey(memberID string) string {
	return fmt.Sprintf("membership:member:%s", memberID)
}

// LookupMember fetches a member record from the register.
func (c *Client) LookupMember(ctx context.Context, memberID string) (*Member, error) {
	if c.cache != nil {
		var cached Member
		if err := c.cache.GetCache(ctx, memberCacheKey(memberID), &cached); err == nil {
			return &cached, nil
		}
	}

	var member Member
	if err := c.do(ctx, http.MethodGet, "/members/"+memberID, nil, &member); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetCache(ctx, memberCacheKey(memberID), &member, c.cacheTTL); err != nil {
			log.Printf("[Membership] failed to cache member %s: %v", memberID, err)
		}
	}
	return &member, nil
}

// ValidateCredential reports whether the register lists the credential as
// current for the member.
func (c *Client) ValidateCredential(ctx context.Context, memberID, credential string) (bool, error) {
	member, err := c.LookupMember(ctx, memberID)
	if err != nil {
		return false, err
	}
	for _, cred := range member.Credentials {
		if cred == credential {
			return true, nil
		}
	}
	return false, nil
}

// CreateProfile creates a member record in the register. Gated behind the
// write-enabled flag.
func (c *Client) CreateProfile(ctx context.Context, profile *Profile) (*Member, error) {
	if !c.writeEnabled {
		return nil, ErrWriteDisabled
	}
	var member Member
	if err := c.do(ctx, http.MethodPost, "/members", profile, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// SyncProfile pushes local profile changes to the register. Gated behind the
// write-enabled flag.
func (c *Client) SyncProfile(ctx context.Context, memberID string, profile *Profile) (*Member, error) {
	if !c.writeEnabled {
		return nil, ErrWriteDisabled
	}
	var member Member
	if err := c.do(ctx, http.MethodPut, "/members/"+memberID, profile, &member); err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.DeleteCache(ctx, memberCacheKey(memberID)); err != nil {
			log.Printf("[Membership] failed to invalidate member %s: %v", memberID, err)
		}
	}
	return &member, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrMemberNotFound
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register returned status=%d body=%s", resp.StatusCode, string(respBody))
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("failed to decode register response: %w", err)
		}
	}
	return nil
}
