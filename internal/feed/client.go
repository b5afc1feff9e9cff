package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
)

// Stream is a client-side feed connection.
type Stream struct {
	conn *websocket.Conn
}

// Dial opens the server's feed websocket. baseURL is the server root, for
// example http://localhost:8080; token may be empty.
func Dial(ctx context.Context, baseURL string, f Filter, token string) (*Stream, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/feed"

	q := url.Values{}
	if f.Table != "" {
		q.Set("table", f.Table)
	}
	if f.Column != "" {
		q.Set("filter", fmt.Sprintf("%s=eq.%s", f.Column, f.Value))
	}
	u.RawQuery = q.Encode()

	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + token}}
	}

	conn, _, err := websocket.Dial(ctx, u.String(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed: %w", err)
	}
	return &Stream{conn: conn}, nil
}

// Next blocks for the next event.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	_, msg, err := s.conn.Read(ctx)
	if err != nil {
		return Event{}, err
	}
	var e Event
	if err := json.Unmarshal(msg, &e); err != nil {
		return Event{}, fmt.Errorf("error decoding feed message: %w", err)
	}
	return e, nil
}

func (s *Stream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "client exit")
}
