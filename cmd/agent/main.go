package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"talkwrite-be/internal/config"
	"talkwrite-be/internal/editor"
	"talkwrite-be/internal/pkg/logger"
	"talkwrite-be/pkg/draftjs"

	"github.com/fatih/color"
)

// Terminal client for a document room. Lines typed on stdin are treated as
// dictation transcripts; remote edits and presence changes print as they
// arrive.
func main() {
	var (
		serverURL  = flag.String("server", "", "backend base URL (default: APP_BASE_URL)")
		documentId = flag.Uint("document", 0, "document id to open")
		token      = flag.String("token", "", "access token (default: ACCESS_TOKEN env)")
	)
	flag.Parse()

	cfg := config.Load()
	if *serverURL == "" {
		*serverURL = cfg.App.BaseURL
	}
	if *token == "" {
		*token = os.Getenv("ACCESS_TOKEN")
	}
	if *documentId == 0 || *token == "" {
		log.Fatal("usage: agent -document <id> [-token <jwt>] [-server <url>]")
	}

	wsURL := "ws" + strings.TrimPrefix(*serverURL, "http") + "/ws"

	store := editor.NewAPIStore(*serverURL, *token)
	transport := editor.NewWebsocketTransport(wsURL, *documentId, *token)
	agentLogger := logger.NewIsolatedLogger("logs/agent.log")

	controller := editor.NewController(*documentId, store, transport, cfg.Editor.SaveDebounce, editor.Callbacks{
		OnContentChanged: func(state *draftjs.EditorState) {
			printDocument(state.Content)
		},
		OnPresenceChanged: func(identities []string) {
			color.Yellow("here now: %s", strings.Join(identities, ", "))
		},
		OnError: func(err error) {
			color.Red("error: %v", err)
		},
	}, agentLogger)

	ctx := context.Background()
	if err := controller.Load(ctx); err != nil {
		log.Fatalf("Unable to load document: %v", err)
	}
	if err := controller.Connect(ctx); err != nil {
		log.Fatalf("Unable to join room: %v", err)
	}
	defer controller.Close()

	color.Cyan("joined document %d, type a line to dictate (Ctrl+C to leave)", *documentId)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := controller.HandleTranscript(line); err != nil {
				color.Red("error: %v", err)
			}
		case <-stop:
			return
		}
	}
}

func printDocument(content *draftjs.ContentState) {
	fmt.Println("---")
	for _, block := range content.Blocks {
		fmt.Println(block.Text)
	}
	fmt.Println("---")
}
