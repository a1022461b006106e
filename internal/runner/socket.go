package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client talks to a quiz server: REST for room creation/joining, a
// websocket for the realtime session. It satisfies Emitter.
type Client struct {
	baseURL string
	httpc   *http.Client

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewClient prepares a client for the given REST base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   http.DefaultClient,
	}
}

// Connect dials the server's realtime gateway.
func (c *Client) Connect(ctx context.Context) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	c.conn = conn
	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// CreateRoom opens a new room and returns its shareable code.
func (c *Client) CreateRoom(ctx context.Context, name string) (string, error) {
	var resp struct {
		RoomID string `json:"roomId"`
	}
	if err := c.postJSON(ctx, "/api/room", map[string]string{"name": name}, &resp); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

// JoinRoom registers the player in an existing room.
func (c *Client) JoinRoom(ctx context.Context, roomID, name string) error {
	var resp struct {
		RoomID string `json:"roomId"`
	}
	return c.postJSON(ctx, "/api/room/"+roomID+"/join", map[string]string{"name": name}, &resp)
}

// Categories fetches the category names the server offers.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/categories", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Categories, nil
}

// Emit sends one client→server event over the socket.
func (c *Client) Emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(envelope{Event: event, Data: raw})
}

// Listen pumps server broadcasts into the runner until the connection
// drops or ctx is cancelled.
func (c *Client) Listen(ctx context.Context, r *Runner) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var msg envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			return err
		}
		if err := r.HandleEvent(msg.Event, msg.Data); err != nil {
			return err
		}
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Error != "" {
			return fmt.Errorf("%s: %s", path, failure.Error)
		}
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
