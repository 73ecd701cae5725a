package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/DasilvaKareem/wogshard/pkg/world"
)

// Client wraps the shard HTTP API for CLI and tool-server usage
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client against baseURL (e.g. "http://127.0.0.1:8460")
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the bearer credential used on mutating calls
func (c *Client) SetToken(token string) {
	c.token = token
}

// Challenge requests a login challenge for wallet
func (c *Client) Challenge(ctx context.Context, wallet string) (message string, timestamp int64, err error) {
	var resp struct {
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}
	err = c.get(ctx, "/auth/challenge?wallet="+url.QueryEscape(wallet), &resp)
	return resp.Message, resp.Timestamp, err
}

// Verify submits a signed challenge and stores the issued token
func (c *Client) Verify(ctx context.Context, wallet, signature string, timestamp int64) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.post(ctx, "/auth/verify", map[string]any{
		"wallet":    wallet,
		"signature": signature,
		"timestamp": timestamp,
	}, &resp)
	if err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// State fetches the full world snapshot
func (c *Client) State(ctx context.Context) (map[string]*world.Snapshot, error) {
	var resp struct {
		Zones map[string]*world.Snapshot `json:"zones"`
	}
	err := c.get(ctx, "/state", &resp)
	return resp.Zones, err
}

// ZoneSnapshot fetches one zone
func (c *Client) ZoneSnapshot(ctx context.Context, zoneID string) (*world.Snapshot, error) {
	var snap world.Snapshot
	err := c.get(ctx, "/zones/"+url.PathEscape(zoneID), &snap)
	return &snap, err
}

// Events fetches zone events after since (unix millis); limit 0 means all
func (c *Client) Events(ctx context.Context, zoneID string, since int64, limit int) ([]json.RawMessage, error) {
	path := "/events/" + url.PathEscape(zoneID) + "?since=" + strconv.FormatInt(since, 10)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Events []json.RawMessage `json:"events"`
	}
	err := c.get(ctx, path, &resp)
	return resp.Events, err
}

// Command submits a command and returns its receipt
func (c *Client) Command(ctx context.Context, cmd world.Command) (*world.Receipt, error) {
	var receipt world.Receipt
	err := c.post(ctx, "/command", cmd, &receipt)
	return &receipt, err
}

// Spawn creates a player entity for the session wallet
func (c *Client) Spawn(ctx context.Context, name, raceID, classID, zoneID string) (*types.Entity, error) {
	var e types.Entity
	err := c.post(ctx, "/spawn", map[string]string{
		"name": name, "raceId": raceID, "classId": classID, "zoneId": zoneID,
	}, &e)
	return &e, err
}

// Transition moves a player through a portal
func (c *Client) Transition(ctx context.Context, zoneID, portalID, entityID string) (*types.Entity, error) {
	var e types.Entity
	path := "/transition/" + url.PathEscape(zoneID) + "/portal/" + url.PathEscape(portalID)
	err := c.post(ctx, path, map[string]string{"entityId": entityID}, &e)
	return &e, err
}

// Buy purchases qty of tokenID for the session wallet
func (c *Client) Buy(ctx context.Context, tokenID int64, qty int) error {
	return c.post(ctx, "/shop/buy", map[string]any{"tokenId": tokenID, "quantity": qty}, nil)
}

// Repair restores the durability of a player's equipment
func (c *Client) Repair(ctx context.Context, zoneID, entityID string) error {
	return c.post(ctx, "/equipment/repair", map[string]string{"zoneId": zoneID, "entityId": entityID}, nil)
}

// Balance reads a wallet's on-chain and available gold
func (c *Client) Balance(ctx context.Context, wallet string) (onChain, available int64, err error) {
	var resp struct {
		OnChain   int64 `json:"onChain"`
		Available int64 `json:"available"`
	}
	err = c.get(ctx, "/balance/"+url.PathEscape(wallet), &resp)
	return resp.OnChain, resp.Available, err
}

// OpenGate opens a dungeon gate for a party
func (c *Client) OpenGate(ctx context.Context, zoneID, gateID string, memberIDs []string) (dungeonZoneID string, err error) {
	var resp struct {
		DungeonZoneID string `json:"dungeonZoneId"`
	}
	err = c.post(ctx, "/gates/open", map[string]any{
		"zoneId": zoneID, "gateId": gateID, "memberIds": memberIDs,
	}, &resp)
	return resp.DungeonZoneID, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Reason != "" {
				return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Reason)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
