package transform

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/harulab/cardforge/errors"
)

// cdpClient is a minimal DevTools protocol client over one websocket. Calls
// are matched to responses by id; events fan out to registered waiters.
type cdpClient struct {
	conn   *websocket.Conn
	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan cdpResponse
	waiters map[string][]chan json.RawMessage

	readErr  error
	closed   chan struct{}
	closeOne sync.Once
}

type cdpRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type cdpResponse struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *cdpError       `json:"error"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newCDPClient(ctx context.Context, wsURL string) (*cdpClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing devtools socket %s", wsURL)
	}

	c := &cdpClient{
		conn:    conn,
		pending: make(map[int64]chan cdpResponse),
		waiters: make(map[string][]chan json.RawMessage),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *cdpClient) readLoop() {
	for {
		var resp cdpResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.mu.Lock()
			c.readErr = err
			for _, ch := range c.pending {
				close(ch)
			}
			c.pending = map[int64]chan cdpResponse{}
			c.mu.Unlock()
			c.closeOne.Do(func() { close(c.closed) })
			return
		}

		c.mu.Lock()
		if resp.ID != 0 {
			if ch, ok := c.pending[resp.ID]; ok {
				delete(c.pending, resp.ID)
				ch <- resp
			}
		} else if resp.Method != "" {
			for _, ch := range c.waiters[resp.Method] {
				select {
				case ch <- resp.Params:
				default:
				}
			}
		}
		c.mu.Unlock()
	}
}

// call sends one command and waits for its response
func (c *cdpClient) call(ctx context.Context, method string, params any, result any) error {
	id := c.nextID.Add(1)
	ch := make(chan cdpResponse, 1)

	c.mu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return errors.Wrap(err, "devtools connection lost")
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.conn.WriteJSON(cdpRequest{ID: id, Method: method, Params: params}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return errors.Wrapf(err, "sending %s", method)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return errors.New("devtools connection closed")
		}
		if resp.Error != nil {
			return errors.Newf("%s failed: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return errors.Wrapf(err, "decoding %s result", method)
			}
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// subscribe registers for an event and returns the channel plus a cancel func
func (c *cdpClient) subscribe(method string) (<-chan json.RawMessage, func()) {
	ch := make(chan json.RawMessage, 4)
	c.mu.Lock()
	c.waiters[method] = append(c.waiters[method], ch)
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		list := c.waiters[method]
		for i, w := range list {
			if w == ch {
				c.waiters[method] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

func (c *cdpClient) Close() error {
	err := c.conn.Close()
	c.closeOne.Do(func() { close(c.closed) })
	return err
}
