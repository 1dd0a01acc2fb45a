// Command gemini-live runs an interactive live conversation from the
// terminal: microphone and camera (or screen) stream to the model, replies
// play through the speaker, and typed messages are sent as user turns.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/murli1234/Gemini-live-cam/internal/app"
	"github.com/murli1234/Gemini-live-cam/internal/config"
	"github.com/murli1234/Gemini-live-cam/internal/loop"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY not found in environment variables - create a .env file with GEMINI_API_KEY=your_api_key_here")
	}

	mode := flag.String("mode", cfg.VideoMode, "pixels to stream from: camera, screen or none")
	flag.Parse()

	onEvent := func(e loop.Event) {
		if e.Kind == loop.EventText {
			fmt.Print(e.Text)
		}
	}

	runner, err := app.BuildRunner(context.Background(), cfg, *mode, onEvent)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(context.Background()) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Infof("signal received: %v", sig)
		runner.Stop()
	}()

	// Read user turns from stdin until "q" or EOF.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("message > ")
			if !scanner.Scan() {
				runner.Stop()
				return
			}
			text := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(text, "q") {
				runner.Stop()
				return
			}
			if err := runner.SendText(text); err != nil {
				if err == loop.ErrNotRunning {
					return
				}
				log.Errorf("send text: %v", err)
			}
		}
	}()

	if err := <-runErr; err != nil {
		log.Fatalf("session: %v", err)
	}
}
