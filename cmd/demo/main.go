package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/clipboard"
	"github.com/yiblet/cliphist/internal/clipboard/mockboard"
	"github.com/yiblet/cliphist/internal/history"
	"github.com/yiblet/cliphist/internal/store/memstore"
)

func main() {
	fmt.Println("cliphist History Engine Demo")

	// In-memory store and clipboard, history capped at 4 entries
	store := memstore.NewMemoryStore()
	board := mockboard.New()
	engine := history.New(store, history.FixedLimit(4),
		history.WithDelay(50*time.Millisecond),
		history.WithPreviewLength(40),
	)

	sub := engine.Broadcaster().Channel(1)
	if err := engine.Attach(board); err != nil {
		log.Fatalf("Failed to attach to clipboard: %v", err)
	}

	copies := []string{
		"Hello, World! This is the first thing copied.",
		"package main\n\nfunc main() {\n    println(\"Hello, Go!\")\n}",
		"SELECT * FROM users WHERE created_at > '2023-01-01' ORDER BY created_at DESC LIMIT 10;",
		"Hello, World! This is the first thing copied.",
		"https://github.com/yiblet/cliphist",
		"   trimmed before it is stored   ",
	}

	fmt.Println("Copying from other applications:")
	for i, text := range copies {
		board.SetText(text)
		snap := waitForHead(sub, text)
		fmt.Printf("%d. copied %q, history has %d entries\n", i+1, history.Title(text, 40), len(snap))
	}

	// Copying an entry back must not reorder the history
	entries := engine.List()
	oldest := entries[len(entries)-1].Text
	if err := clipboard.CopyBack(engine, board, oldest); err != nil {
		log.Fatalf("Failed to copy back: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	fmt.Printf("\nCopied back %q; front is still %q\n",
		history.Title(oldest, 40), history.Title(engine.List()[0].Text, 40))

	fmt.Println("\nHistory (newest first, previews cut to 40 characters):")
	for i, p := range engine.Snapshot() {
		fmt.Printf("%d. [%s] %q\n", i, p.Timestamp.Format("15:04:05.000"), p.Text)
	}

	engine.Shutdown()
	saved, _ := store.LastSave()
	fmt.Printf("\nSaved %d entries in %d writes\n", len(saved), store.SaveCount())
	fmt.Printf("\nDemo complete! (Using in-memory store)\n")
}

// waitForHead returns the first snapshot whose newest entry starts with
// the trimmed text.
func waitForHead(sub *broadcast.Subscription, text string) broadcast.Snapshot {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-sub.C:
			if len(snap) > 0 && snap[0].Text == history.Preview(strings.TrimSpace(text), 40) {
				return snap
			}
		case <-timeout:
			log.Fatalf("Timed out waiting for %q", text)
		}
	}
}
