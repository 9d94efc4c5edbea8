package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/clock"
	"github.com/yiblet/cliphist/internal/store"
	"github.com/yiblet/cliphist/internal/store/filestore"
	"github.com/yiblet/cliphist/internal/store/memstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.UnixMilli(1700000000000)

type failures struct {
	mu  sync.Mutex
	got []Failure
}

func (f *failures) handle(failure Failure) {
	f.mu.Lock()
	f.got = append(f.got, failure)
	f.mu.Unlock()
}

func (f *failures) ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]Op, len(f.got))
	for i, failure := range f.got {
		ops[i] = failure.Op
	}
	return ops
}

type harness struct {
	engine   *Engine
	store    *memstore.MemoryStore
	clock    *clock.FakeClock
	failures *failures
}

func setupEngine(t *testing.T, limits Limits, opts ...Option) *harness {
	t.Helper()
	return setupEngineWith(t, memstore.NewMemoryStore(), limits, opts...)
}

func setupEngineWith(t *testing.T, s *memstore.MemoryStore, limits Limits, opts ...Option) *harness {
	t.Helper()
	h := &harness{store: s, clock: clock.Fake(t0), failures: &failures{}}
	opts = append([]Option{WithClock(h.clock), WithFailureHandler(h.failures.handle)}, opts...)
	h.engine = New(s, limits, opts...)
	t.Cleanup(h.engine.Shutdown)
	return h
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestEngine_EvictsOldest(t *testing.T) {
	h := setupEngine(t, FixedLimit(3))

	for _, text := range []string{"a", "b", "c", "d"} {
		h.engine.Ingest(text)
	}

	want := []string{"d", "c", "b"}
	if diff := cmp.Diff(want, texts(h.engine.List())); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_DedupeMovesToFront(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")
	h.engine.Ingest("b")

	h.clock.Advance(5 * time.Millisecond)
	h.engine.Ingest("a")

	got := h.engine.List()
	if diff := cmp.Diff([]string{"a", "b"}, texts(got)); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	if !got[0].Timestamp.Equal(t0.Add(5 * time.Millisecond)) {
		t.Errorf("Expected refreshed timestamp, got %v", got[0].Timestamp)
	}
}

func TestEngine_ReingestFrontRefreshesTimestamp(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")
	h.clock.Advance(time.Minute)
	h.engine.Ingest("a")

	got := h.engine.List()
	if len(got) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(t0.Add(time.Minute)) {
		t.Errorf("Expected timestamp %v, got %v", t0.Add(time.Minute), got[0].Timestamp)
	}
}

func TestEngine_Invariants(t *testing.T) {
	const maxItems = 5
	h := setupEngine(t, FixedLimit(maxItems))

	inputs := []string{"a", "b", "a", "c", "d", "e", "f", "b", "g", "a", "a", "h", "c"}
	for i, text := range inputs {
		h.engine.Ingest(text)

		got := h.engine.List()
		if len(got) > maxItems {
			t.Fatalf("After ingest %d: length %d exceeds %d", i, len(got), maxItems)
		}
		seen := map[string]bool{}
		for _, e := range got {
			if seen[e.Text] {
				t.Fatalf("After ingest %d: duplicate %q in %v", i, e.Text, texts(got))
			}
			seen[e.Text] = true
		}
		if got[0].Text != text {
			t.Fatalf("After ingest %d: expected %q at front, got %q", i, text, got[0].Text)
		}
	}
}

func TestEngine_IgnoresInvalidInput(t *testing.T) {
	h := setupEngine(t, FixedLimit(30), WithMaxTextLength(10))

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", " \n\t "},
		{"oversized", strings.Repeat("x", 11)},
		{"oversized multibyte", strings.Repeat("é", 11)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.engine.Ingest(tt.text)
			if h.engine.Len() != 0 {
				t.Errorf("Expected %q to be ignored, history has %d entries", tt.text, h.engine.Len())
			}
		})
	}

	h.engine.Ingest("  " + strings.Repeat("é", 10) + "  ")
	if got := texts(h.engine.List()); len(got) != 1 || got[0] != strings.Repeat("é", 10) {
		t.Errorf("Expected trimmed text at the limit to be stored, got %v", got)
	}
}

func TestEngine_ListReturnsCopy(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")

	got := h.engine.List()
	got[0].Text = "mutated"

	if h.engine.List()[0].Text != "a" {
		t.Error("Mutating the returned slice changed engine state")
	}
}

func TestEngine_DeleteAt(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
		saved bool
	}{
		{"first", 0, []string{"b", "a"}, true},
		{"last", 2, []string{"c", "b"}, true},
		{"negative", -1, []string{"c", "b", "a"}, false},
		{"past end", 3, []string{"c", "b", "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupEngine(t, FixedLimit(30))
			for _, text := range []string{"a", "b", "c"} {
				h.engine.Ingest(text)
			}

			h.engine.DeleteAt(tt.index)

			if diff := cmp.Diff(tt.want, texts(h.engine.List())); diff != "" {
				t.Errorf("History mismatch (-want +got):\n%s", diff)
			}
			if got := h.store.SaveCount() == 1; got != tt.saved {
				t.Errorf("Expected immediate save %v, got %d saves", tt.saved, h.store.SaveCount())
			}
		})
	}
}

func TestEngine_DebounceCoalesces(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))

	for i := 0; i < 10; i++ {
		h.engine.Ingest(fmt.Sprintf("item %d", i))
		h.clock.Advance(100 * time.Millisecond)
	}
	if h.store.SaveCount() != 0 {
		t.Fatalf("Expected no save inside the debounce window, got %d", h.store.SaveCount())
	}

	h.clock.Advance(899 * time.Millisecond)
	if h.store.SaveCount() != 0 {
		t.Fatalf("Expected no save before quiet period ends, got %d", h.store.SaveCount())
	}

	h.clock.Advance(time.Millisecond)
	if h.store.SaveCount() != 1 {
		t.Fatalf("Expected exactly 1 save, got %d", h.store.SaveCount())
	}
	saved, _ := h.store.LastSave()
	if diff := cmp.Diff(h.engine.List(), saved); diff != "" {
		t.Errorf("Saved snapshot does not match final state (-engine +saved):\n%s", diff)
	}

	h.clock.Advance(time.Hour)
	if h.store.SaveCount() != 1 {
		t.Errorf("Expected no further saves, got %d", h.store.SaveCount())
	}
}

func TestEngine_CustomDelay(t *testing.T) {
	h := setupEngine(t, FixedLimit(30), WithDelay(5*time.Second))
	h.engine.Ingest("a")

	h.clock.Advance(4 * time.Second)
	if h.store.SaveCount() != 0 {
		t.Fatalf("Expected no save yet, got %d", h.store.SaveCount())
	}
	h.clock.Advance(time.Second)
	if h.store.SaveCount() != 1 {
		t.Errorf("Expected 1 save, got %d", h.store.SaveCount())
	}
}

func TestEngine_ClearPersistsImmediately(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")
	h.engine.Ingest("b")

	h.engine.Clear()

	if h.store.SaveCount() != 1 {
		t.Fatalf("Expected clear to save immediately, got %d saves", h.store.SaveCount())
	}
	saved, _ := h.store.LastSave()
	if len(saved) != 0 {
		t.Errorf("Expected empty saved snapshot, got %v", texts(saved))
	}

	// The pending debounced write from the ingests was dropped.
	h.clock.Advance(time.Hour)
	if h.store.SaveCount() != 1 {
		t.Errorf("Expected no debounced save after clear, got %d saves", h.store.SaveCount())
	}
}

func TestEngine_SuppressionIsOneShot(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))

	reads := 0
	read := func(text string) func() (string, error) {
		return func() (string, error) {
			reads++
			return text, nil
		}
	}

	h.engine.MarkProgrammaticCopy()
	h.engine.HandleClipboardChange(read("copied back"))
	if h.engine.Len() != 0 || reads != 0 {
		t.Fatalf("Expected suppressed event to be skipped without reading, got %d entries, %d reads", h.engine.Len(), reads)
	}

	h.engine.HandleClipboardChange(read("user copy"))
	if diff := cmp.Diff([]string{"user copy"}, texts(h.engine.List())); diff != "" {
		t.Errorf("Second event should be ingested (-want +got):\n%s", diff)
	}
}

func TestEngine_SuppressionConsumedByEmptyEvent(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))

	h.engine.MarkProgrammaticCopy()
	h.engine.HandleClipboardChange(func() (string, error) { return "", nil })
	h.engine.HandleClipboardChange(func() (string, error) { return "next", nil })

	if diff := cmp.Diff([]string{"next"}, texts(h.engine.List())); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_Unmark(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))

	h.engine.MarkProgrammaticCopy()
	h.engine.UnmarkProgrammaticCopy()
	h.engine.HandleClipboardChange(func() (string, error) { return "kept", nil })

	if h.engine.Len() != 1 {
		t.Errorf("Expected event after unmark to be ingested, got %d entries", h.engine.Len())
	}
}

func TestEngine_ReadFailureIsReported(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	boom := errors.New("no display")

	h.engine.HandleClipboardChange(func() (string, error) { return "", boom })

	if diff := cmp.Diff([]Op{OpRead}, h.failures.ops()); diff != "" {
		t.Errorf("Failure ops mismatch (-want +got):\n%s", diff)
	}
	h.failures.mu.Lock()
	defer h.failures.mu.Unlock()
	if !errors.Is(h.failures.got[0], boom) {
		t.Errorf("Expected failure to wrap %v, got %v", boom, h.failures.got[0])
	}
}

func TestEngine_ShutdownIsIdempotent(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")

	h.engine.Shutdown()
	h.engine.Shutdown()

	if h.store.SaveCount() != 1 {
		t.Fatalf("Expected exactly 1 save from shutdown, got %d", h.store.SaveCount())
	}
	if h.clock.PendingCount() != 0 {
		t.Errorf("Expected debounce timer to be cancelled, %d pending", h.clock.PendingCount())
	}
	h.clock.Advance(time.Hour)
	if h.store.SaveCount() != 1 {
		t.Errorf("Expected no save after shutdown, got %d", h.store.SaveCount())
	}
	if len(h.failures.ops()) != 0 {
		t.Errorf("Expected no failures, got %v", h.failures.ops())
	}
}

func TestEngine_IgnoresMutationsAfterShutdown(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")
	h.engine.Shutdown()

	h.engine.Ingest("b")
	h.engine.DeleteAt(0)
	h.engine.Clear()

	if diff := cmp.Diff([]string{"a"}, texts(h.engine.List())); diff != "" {
		t.Errorf("History changed after shutdown (-want +got):\n%s", diff)
	}
	if h.store.SaveCount() != 1 {
		t.Errorf("Expected 1 save, got %d", h.store.SaveCount())
	}
}

func TestEngine_NilShutdown(t *testing.T) {
	var e *Engine
	e.Shutdown()
}

func TestEngine_LoadFailureStartsEmpty(t *testing.T) {
	s := memstore.NewMemoryStore()
	s.FailLoad(store.ErrMalformed)
	h := setupEngineWith(t, s, FixedLimit(30))

	if h.engine.Len() != 0 {
		t.Errorf("Expected empty history, got %d entries", h.engine.Len())
	}
	if diff := cmp.Diff([]Op{OpLoad}, h.failures.ops()); diff != "" {
		t.Errorf("Failure ops mismatch (-want +got):\n%s", diff)
	}

	h.engine.Ingest("still works")
	if h.engine.Len() != 1 {
		t.Errorf("Expected engine to keep working, got %d entries", h.engine.Len())
	}
}

func TestEngine_ShutdownSavesOnlyChanges(t *testing.T) {
	seed := []store.Entry{{Text: "kept", Timestamp: t0}}
	tests := []struct {
		name   string
		mutate func(e *Engine)
		saves  int
	}{
		{"untouched", func(e *Engine) {}, 0},
		{"read only", func(e *Engine) { e.List(); e.Snapshot() }, 0},
		{"out of range delete", func(e *Engine) { e.DeleteAt(5) }, 0},
		{"ingest", func(e *Engine) { e.Ingest("new") }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupEngineWith(t, memstore.NewMemoryStoreWith(seed), FixedLimit(30))
			tt.mutate(h.engine)

			h.engine.Shutdown()

			if h.store.SaveCount() != tt.saves {
				t.Errorf("Expected %d saves, got %d", tt.saves, h.store.SaveCount())
			}
		})
	}
}

func TestEngine_LoadFailureLeavesStoreUntilMutation(t *testing.T) {
	s := memstore.NewMemoryStore()
	s.FailLoad(store.ErrUnsupportedVersion)
	h := setupEngineWith(t, s, FixedLimit(30))

	h.clock.Advance(time.Hour)
	h.engine.Shutdown()
	if s.SaveCount() != 0 {
		t.Fatalf("Expected unreadable history to be left alone, got %d saves", s.SaveCount())
	}

	s2 := memstore.NewMemoryStore()
	s2.FailLoad(store.ErrUnsupportedVersion)
	h2 := setupEngineWith(t, s2, FixedLimit(30))
	h2.engine.Clear()
	if s2.SaveCount() != 1 {
		t.Errorf("Expected an explicit clear to save, got %d saves", s2.SaveCount())
	}
}

func TestEngine_FailedSaveRetriesOnShutdown(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.store.FailSave(errors.New("disk full"))

	h.engine.Ingest("a")
	h.clock.Advance(time.Second)
	h.store.FailSave(nil)
	h.engine.Shutdown()

	saved, ok := h.store.LastSave()
	if !ok {
		t.Fatal("Expected shutdown to retry the failed save")
	}
	if diff := cmp.Diff([]string{"a"}, texts(saved)); diff != "" {
		t.Errorf("Saved snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_SaveFailureIsReported(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.store.FailSave(errors.New("disk full"))

	h.engine.Ingest("a")
	h.clock.Advance(time.Second)
	h.engine.Clear()

	if diff := cmp.Diff([]Op{OpSave, OpSave}, h.failures.ops()); diff != "" {
		t.Errorf("Failure ops mismatch (-want +got):\n%s", diff)
	}

	h.store.FailSave(nil)
	h.engine.Ingest("b")
	h.clock.Advance(time.Second)
	if h.store.SaveCount() != 1 {
		t.Errorf("Expected the next cycle to save, got %d saves", h.store.SaveCount())
	}
}

func TestEngine_LoadNormalizes(t *testing.T) {
	seed := []store.Entry{
		{Text: "a", Timestamp: t0.Add(4 * time.Second)},
		{Text: "", Timestamp: t0.Add(3 * time.Second)},
		{Text: "b", Timestamp: t0.Add(2 * time.Second)},
		{Text: "a", Timestamp: t0.Add(time.Second)},
		{Text: "c", Timestamp: t0},
		{Text: "d", Timestamp: t0},
	}
	h := setupEngineWith(t, memstore.NewMemoryStoreWith(seed), FixedLimit(3))

	want := []store.Entry{seed[0], seed[2], seed[4]}
	if diff := cmp.Diff(want, h.engine.List()); diff != "" {
		t.Errorf("Loaded history mismatch (-want +got):\n%s", diff)
	}
}

type liveLimit struct{ n atomic.Int64 }

func (l *liveLimit) MaxItems() int { return int(l.n.Load()) }

func TestEngine_LiveLimitChange(t *testing.T) {
	limit := &liveLimit{}
	limit.n.Store(5)
	h := setupEngine(t, limit)

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		h.engine.Ingest(text)
	}
	limit.n.Store(2)
	if h.engine.Len() != 5 {
		t.Fatalf("Expected limit change to wait for the next ingest, got %d entries", h.engine.Len())
	}

	h.engine.Ingest("f")
	if diff := cmp.Diff([]string{"f", "e"}, texts(h.engine.List())); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}

	limit.n.Store(0)
	for i := 0; i < DefaultMaxItems+5; i++ {
		h.engine.Ingest(fmt.Sprint(i))
	}
	if h.engine.Len() != DefaultMaxItems {
		t.Errorf("Expected non-positive limit to fall back to %d, got %d", DefaultMaxItems, h.engine.Len())
	}
}

func TestEngine_TimestampsNeverGoBackwards(t *testing.T) {
	h := setupEngine(t, FixedLimit(30))
	h.engine.Ingest("a")

	h.clock.Set(t0.Add(-time.Hour))
	h.engine.Ingest("b")

	got := h.engine.List()
	if got[0].Timestamp.Before(got[1].Timestamp) {
		t.Errorf("Expected non-decreasing timestamps, got %v before %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestEngine_BroadcastsPreviews(t *testing.T) {
	h := setupEngine(t, FixedLimit(30), WithPreviewLength(5))

	var got []broadcast.Snapshot
	cancel := h.engine.Subscribe(broadcast.ObserverFunc(func(s broadcast.Snapshot) {
		got = append(got, s)
	}))
	defer cancel()

	h.engine.Ingest("héllo world")
	h.engine.Ingest("short")
	h.engine.DeleteAt(0)
	h.engine.DeleteAt(7)
	h.engine.Clear()

	if len(got) != 4 {
		t.Fatalf("Expected 4 snapshots, got %d", len(got))
	}
	if got[0][0].Text != "héllo" {
		t.Errorf("Expected preview %q, got %q", "héllo", got[0][0].Text)
	}
	if len(got[1]) != 2 || len(got[2]) != 1 || len(got[3]) != 0 {
		t.Errorf("Unexpected snapshot sizes %d, %d, %d", len(got[1]), len(got[2]), len(got[3]))
	}
	h.engine.Ingest("héllo world")
	if full := h.engine.List()[0].Text; full != "héllo world" {
		t.Errorf("Expected List to return full text, got %q", full)
	}
	if snap := h.engine.Snapshot(); snap[0].Text != "héllo" {
		t.Errorf("Expected Snapshot to return the preview, got %q", snap[0].Text)
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	const maxItems = 10
	h := setupEngine(t, FixedLimit(maxItems))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				switch i % 10 {
				case 7:
					h.engine.DeleteAt(i % maxItems)
				case 9:
					h.engine.List()
				default:
					h.engine.Ingest(fmt.Sprintf("%d-%d", g, i%13))
				}
			}
		}(g)
	}
	wg.Wait()

	got := h.engine.List()
	if len(got) > maxItems {
		t.Errorf("Expected at most %d entries, got %d", maxItems, len(got))
	}
	seen := map[string]bool{}
	for _, e := range got {
		if seen[e.Text] {
			t.Errorf("Duplicate entry %q", e.Text)
		}
		seen[e.Text] = true
	}
}

func TestEngine_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), filestore.FileName)
	fake := clock.Fake(t0)

	first := New(filestore.New(path), FixedLimit(30), WithClock(fake))
	first.Ingest("one")
	fake.Advance(time.Millisecond)
	first.Ingest("two\nlines")
	first.Shutdown()

	second := New(filestore.New(path), FixedLimit(30), WithClock(fake))
	defer second.Shutdown()

	if diff := cmp.Diff(first.List(), second.List()); diff != "" {
		t.Errorf("Reloaded history mismatch (-first +second):\n%s", diff)
	}
}
