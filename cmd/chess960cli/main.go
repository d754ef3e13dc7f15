// Command chess960cli plays Chess960 in the terminal: hot-seat against
// yourself, as one side of a game on a chess960d server, or as a spectator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/chess960-arena/internal/apiclient"
	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/internal/msgcat"
	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/internal/watch"
	"github.com/park285/chess960-arena/pkg/chessdto"
)

func main() {
	server := flag.String("server", "", "chess960d base URL; empty plays locally")
	gameID := flag.String("game", "", "game id when playing against a server")
	userID := flag.String("user", "", "your user id when playing against a server")
	watchURL := flag.String("watch", "", "websocket URL to spectate, e.g. ws://host:8961/watch/<id>")
	messages := flag.String("messages", os.Getenv("MESSAGES_DIR"), "directory of message overrides")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	cat, err := msgcat.New(*messages)
	if err != nil {
		log.Fatalf("messages: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *watchURL != "":
		err = watch.Follow(ctx, *watchURL, func(ev *chessdto.WatchEvent) error {
			printState(os.Stdout, ev.Game)
			if ev.Message != "" {
				fmt.Println(ev.Message)
			}
			return nil
		})
	case *server != "":
		if *gameID == "" || *userID == "" {
			log.Fatal("-game and -user are required with -server")
		}
		c := apiclient.New(*server, apiclient.WithTimeout(8*time.Second))
		err = playRemote(ctx, os.Stdin, os.Stdout, c, *gameID, *userID)
	default:
		err = playLocal(os.Stdin, os.Stdout, engine.New(engine.WithLogger(obslog.L().Named("hotseat"))), cat)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
