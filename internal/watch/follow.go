package watch

import (
	"context"
	"errors"
	"time"

	"github.com/park285/chess960-arena/pkg/chessdto"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ErrStop ends Follow without error when returned from the callback.
var ErrStop = errors.New("watch: stop")

// Follow dials wsURL and calls fn for every frame until ctx ends, the server
// closes the stream, or fn returns an error.
func Follow(ctx context.Context, wsURL string, fn func(*chessdto.WatchEvent) error) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	for {
		var ev chessdto.WatchEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		if err := fn(&ev); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}
