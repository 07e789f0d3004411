// Command classsync runs a headless classroom session client: it joins the
// configured channel, mirrors shared state, and logs chat and notifications
// until interrupted. Useful for soak-testing a room service deployment
// without a browser.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"classsync/internal/app"
	"classsync/internal/config"
	"classsync/pkg/types"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Optional .env for local development; the environment wins over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if cfg.Channel == "" || cfg.ParticipantID == "" {
		return fmt.Errorf("CLASSSYNC_CHANNEL and CLASSSYNC_PARTICIPANT_ID are required")
	}

	client, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("assemble client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	joinCtx, joinCancel := context.WithTimeout(ctx, 30*time.Second)
	err = client.Join(joinCtx, cfg.Channel, cfg.ParticipantID, types.Role(cfg.Role))
	joinCancel()
	if err != nil {
		return fmt.Errorf("join %s: %w", cfg.Channel, err)
	}
	log.Printf("joined channel=%s participant=%s role=%s", cfg.Channel, cfg.ParticipantID, cfg.Role)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	status := time.NewTicker(10 * time.Second)
	defer status.Stop()

	for {
		select {
		case sig := <-signalCh:
			log.Printf("received signal %v, leaving session", sig)
			client.Leave()
			return nil

		case <-status.C:
			log.Printf("state=%s participants=%d messages=%d quality=%s elapsed=%ds",
				client.State(), len(client.Participants()), len(client.Messages()),
				client.Quality(), client.Elapsed())
			if names := client.Canvas().SceneNames(); len(names) > 0 {
				log.Printf("canvas page=%d/%d names=%s",
					client.Canvas().SceneIndex()+1, len(names), strings.Join(names, ","))
			}

			if client.State() == types.StateFailed {
				log.Printf("connection failed, attempting reconnect")
				client.Reconnect(ctx)
			}
		}
	}
}
