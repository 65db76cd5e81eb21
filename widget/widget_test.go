package widget

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/assistant"
	"github.com/spektr-org/spendshark/mockdata"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, waiter{at: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves time forward and fires due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	sort.SliceStable(c.waiters, func(i, j int) bool { return c.waiters[i].at.Before(c.waiters[j].at) })
	keep := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at.After(c.now) {
			keep = append(keep, w)
			continue
		}
		w.ch <- w.at
	}
	c.waiters = keep
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func testResolver() *assistant.Resolver {
	vendors := []mockdata.Vendor{{ID: 1, Name: "Baxter", RiskScore: 10, TrustScore: 90, TotalSpend: decimal.NewFromInt(5)}}
	invoices := []mockdata.Invoice{{ID: "INV-1000", Vendor: "Baxter", Amount: decimal.NewFromInt(250), Status: mockdata.InvoiceCleared}}
	return assistant.New(mockdata.NewDataset(vendors, invoices, nil, nil))
}

func newTestPanel(clock Clock, opts ...PanelOption) *ChatPanel {
	opts = append([]PanelOption{WithClock(clock), WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return NewChatPanel(testResolver(), opts...)
}

// ============================================================================
// TOGGLE
// ============================================================================

func TestToggleParity(t *testing.T) {
	for n := 0; n <= 7; n++ {
		var tg Toggle
		for i := 0; i < n; i++ {
			tg.Toggle()
		}
		if want := n%2 == 1; tg.IsOpen() != want {
			t.Errorf("after %d toggles IsOpen = %v, want %v", n, tg.IsOpen(), want)
		}
	}
}

func TestToggleOpenClose(t *testing.T) {
	var tg Toggle
	tg.Open()
	tg.Open()
	if !tg.IsOpen() {
		t.Fatal("Open must be idempotent")
	}
	tg.Close()
	if tg.IsOpen() || !tg.Toggle() {
		t.Fatal("Close then Toggle must open")
	}
}

func TestPanelToggle(t *testing.T) {
	p := newTestPanel(newFakeClock())
	if p.IsOpen() {
		t.Fatal("panel must start closed")
	}
	p.Toggle()
	p.Toggle()
	p.Toggle()
	if !p.IsOpen() || !p.Snapshot().Open {
		t.Fatal("odd toggles must leave the panel open")
	}
}

// ============================================================================
// CHAT PANEL
// ============================================================================

func TestGreeting(t *testing.T) {
	msgs := newTestPanel(newFakeClock()).Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleBot || msgs[0].Text != assistant.Greeting() {
		t.Fatalf("initial transcript = %+v", msgs)
	}
	if msgs[0].ID == "" {
		t.Error("message id missing")
	}
}

func TestSubmitIgnoresWhitespace(t *testing.T) {
	clock := newFakeClock()
	p := newTestPanel(clock)

	for _, in := range []string{"", "   ", "\t\n "} {
		if p.Submit(context.Background(), in) {
			t.Errorf("Submit(%q) accepted", in)
		}
	}
	if len(p.Messages()) != 1 || p.Typing() != 0 || clock.Pending() != 0 {
		t.Fatalf("whitespace input changed state: %d messages, %d typing", len(p.Messages()), p.Typing())
	}
}

func TestSubmitRepliesAfterDelay(t *testing.T) {
	clock := newFakeClock()
	p := newTestPanel(clock, WithTypingDelay(time.Second, time.Second))

	if !p.Submit(context.Background(), "  check inv-1000  ") {
		t.Fatal("Submit rejected valid text")
	}
	msgs := p.Messages()
	if len(msgs) != 2 || msgs[1].Role != RoleUser || msgs[1].Text != "check inv-1000" {
		t.Fatalf("user message = %+v", msgs)
	}
	if p.Typing() != 1 {
		t.Fatalf("typing = %d, want 1", p.Typing())
	}

	clock.Advance(999 * time.Millisecond)
	if p.Typing() != 1 {
		t.Fatal("reply arrived before the delay elapsed")
	}

	clock.Advance(time.Millisecond)
	p.Wait()

	msgs = p.Messages()
	if len(msgs) != 3 || p.Typing() != 0 {
		t.Fatalf("after delay: %d messages, %d typing", len(msgs), p.Typing())
	}
	bot := msgs[2]
	if bot.Role != RoleBot || bot.Intent != assistant.KindInvoice || !strings.Contains(bot.Text, "Cleared") {
		t.Errorf("bot reply = %+v", bot)
	}
	if !bot.At.Equal(clock.Now()) {
		t.Errorf("reply stamped %v, want %v", bot.At, clock.Now())
	}
}

func TestDelayWithinBounds(t *testing.T) {
	clock := newFakeClock()
	p := newTestPanel(clock)
	for i := 0; i < 20; i++ {
		p.Submit(context.Background(), "help")
	}

	clock.Advance(DefaultMinDelay - time.Millisecond)
	if p.Typing() != 20 {
		t.Fatalf("replies before the minimum delay: typing = %d", p.Typing())
	}
	clock.Advance(DefaultMaxDelay - DefaultMinDelay + time.Millisecond)
	p.Wait()
	if p.Typing() != 0 || len(p.Messages()) != 41 {
		t.Fatalf("after max delay: typing %d, messages %d", p.Typing(), len(p.Messages()))
	}
}

func TestRepliesFollowTimerOrder(t *testing.T) {
	clock := newFakeClock()
	p := newTestPanel(clock, WithTypingDelay(time.Second, time.Second))

	p.Submit(context.Background(), "help")
	clock.Advance(500 * time.Millisecond)
	p.Submit(context.Background(), "baxter")
	if p.Typing() != 2 {
		t.Fatalf("typing = %d, want two indicators", p.Typing())
	}

	clock.Advance(500 * time.Millisecond)
	waitFor(t, "first reply", func() bool { return p.Typing() == 1 })
	clock.Advance(500 * time.Millisecond)
	p.Wait()

	msgs := p.Messages()
	if len(msgs) != 5 {
		t.Fatalf("messages = %d, want 5", len(msgs))
	}
	if msgs[3].Intent != assistant.KindHelp || msgs[4].Intent != assistant.KindVendor {
		t.Errorf("reply order = %s, %s", msgs[3].Intent, msgs[4].Intent)
	}
}

func TestCancelDropsReply(t *testing.T) {
	clock := newFakeClock()
	p := newTestPanel(clock)

	ctx, cancel := context.WithCancel(context.Background())
	p.Submit(ctx, "help")
	cancel()
	p.Wait()

	if p.Typing() != 0 {
		t.Fatalf("typing = %d after cancel", p.Typing())
	}
	if msgs := p.Messages(); len(msgs) != 2 || msgs[1].Role != RoleUser {
		t.Fatalf("transcript after cancel = %+v", msgs)
	}
}

func TestMessagesIsACopy(t *testing.T) {
	p := newTestPanel(newFakeClock())
	msgs := p.Messages()
	msgs[0].Text = "mutated"
	if p.Messages()[0].Text == "mutated" {
		t.Fatal("Messages exposed internal state")
	}
}

func TestWithTypingDelayClamps(t *testing.T) {
	p := newTestPanel(newFakeClock(), WithTypingDelay(-time.Second, -2*time.Second))
	if p.minDelay != 0 || p.maxDelay != 0 {
		t.Fatalf("delays = %v/%v", p.minDelay, p.maxDelay)
	}
	p.Submit(context.Background(), "help")
	p.Wait()
	if len(p.Messages()) != 3 {
		t.Fatal("zero delay must reply without advancing the clock")
	}
}

// ============================================================================
// SIDEBAR
// ============================================================================

func TestSidebar(t *testing.T) {
	var s Sidebar
	if st := s.State(); st.Open || st.Backdrop {
		t.Fatal("sidebar must start closed")
	}
	if st := s.ToggleMenu(); !st.Open || !st.Backdrop {
		t.Fatalf("toggle = %+v", st)
	}
	if st := s.DismissBackdrop(); st.Open || st.Backdrop {
		t.Fatalf("dismiss = %+v", st)
	}
	if st := s.DismissBackdrop(); st.Open || st.Backdrop {
		t.Fatal("dismiss on a closed sidebar must keep it closed")
	}
	s.ToggleMenu()
	if st := s.ToggleMenu(); st.Open || st.Backdrop {
		t.Fatalf("second toggle = %+v", st)
	}
}
