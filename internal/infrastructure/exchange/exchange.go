package exchange

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readWait     = 60 * time.Second
	pingInterval = 20 * time.Second
	writeWait    = 5 * time.Second
)

// ErrVenueUnavailable is returned when a venue REST endpoint cannot be
// reached or answers with a non-success status.
var ErrVenueUnavailable = errors.New("venue unavailable")

// PingFunc issues one protocol keepalive. Venues disagree on the shape:
// Binance wants control-frame pings, Bybit wants a JSON op message.
type PingFunc func(conn *websocket.Conn) error

// ControlPing sends a websocket control-frame ping.
func ControlPing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
}

// JSONPing sends an application-level ping message.
func JSONPing(payload any) PingFunc {
	return func(conn *websocket.Conn) error {
		return conn.WriteJSON(payload)
	}
}

// ReadLoop pumps messages from conn into onMsg until the connection fails or
// stop is closed. It refreshes the read deadline on traffic, answers
// server-initiated pings, and fires the venue keepalive on a fixed cadence.
// The returned error is the reason the session ended. On every exit path the
// connection is closed and the reader goroutine has finished before ReadLoop
// returns; onMsg must not block forever once stop fires.
func ReadLoop(stop <-chan struct{}, conn *websocket.Conn, ping PingFunc, onMsg func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			onMsg(b)
		}
	}()

	// closing the conn fails the next ReadMessage, so the reader is always
	// gone before the caller may close its output channel
	defer func() {
		_ = conn.Close()
		<-errCh
	}()

	for {
		select {
		case <-stop:
			return nil
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			if err := ping(conn); err != nil {
				return err
			}
		}
	}
}
