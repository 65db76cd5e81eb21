package widget

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spektr-org/spendshark/assistant"
	"github.com/spektr-org/spendshark/config"
)

// Default bounds of the simulated typing delay.
const (
	DefaultMinDelay = 800 * time.Millisecond
	DefaultMaxDelay = 1800 * time.Millisecond
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one entry of the chat transcript.
type Message struct {
	ID     string         `json:"id"`
	Role   Role           `json:"role"`
	Text   string         `json:"text"`
	Intent assistant.Kind `json:"intent,omitempty"`
	At     time.Time      `json:"at"`
}

// ChatPanel is the assistant chat window: an open/closed toggle, the
// transcript, and one pending typing indicator per unanswered query.
type ChatPanel struct {
	toggle   Toggle
	resolver *assistant.Resolver
	clock    Clock
	minDelay time.Duration
	maxDelay time.Duration
	logger   *logrus.Entry

	mu       sync.Mutex
	rng      *rand.Rand
	messages []Message
	typing   int
	pending  sync.WaitGroup
}

// PanelOption configures a ChatPanel.
type PanelOption func(*ChatPanel)

// WithClock replaces the wall clock.
func WithClock(c Clock) PanelOption {
	return func(p *ChatPanel) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithRand sets the source of the typing delay.
func WithRand(rng *rand.Rand) PanelOption {
	return func(p *ChatPanel) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// WithTypingDelay sets the delay bounds. max below min is raised to min.
func WithTypingDelay(lo, hi time.Duration) PanelOption {
	return func(p *ChatPanel) {
		if lo < 0 {
			lo = 0
		}
		if hi < lo {
			hi = lo
		}
		p.minDelay, p.maxDelay = lo, hi
	}
}

// NewChatPanel creates a closed panel whose transcript starts with the greeting.
func NewChatPanel(resolver *assistant.Resolver, opts ...PanelOption) *ChatPanel {
	p := &ChatPanel{
		resolver: resolver,
		clock:    SystemClock{},
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		logger:   config.GetLogger().WithField("module", "widget"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p.messages = []Message{p.newMessage(RoleBot, assistant.Greeting(), "")}
	return p
}

// Toggle flips the panel and returns whether it is now open.
func (p *ChatPanel) Toggle() bool { return p.toggle.Toggle() }

// Open shows the panel.
func (p *ChatPanel) Open() { p.toggle.Open() }

// Close hides the panel.
func (p *ChatPanel) Close() { p.toggle.Close() }

// IsOpen reports whether the panel is shown.
func (p *ChatPanel) IsOpen() bool { return p.toggle.IsOpen() }

// Submit posts a user message and schedules the bot reply after the typing
// delay. Whitespace-only text is ignored and reports false.
//
// Each submission resolves on its own; replies land in the order their
// timers fire. Cancelling ctx before the timer fires drops the reply.
func (p *ChatPanel) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	p.mu.Lock()
	p.messages = append(p.messages, p.newMessage(RoleUser, text, ""))
	p.typing++
	delay := p.nextDelay()
	p.pending.Add(1)
	p.mu.Unlock()

	// armed before returning so a fake clock sees the timer immediately
	fire := p.clock.After(delay)
	go p.reply(ctx, text, fire)
	return true
}

func (p *ChatPanel) reply(ctx context.Context, query string, fire <-chan time.Time) {
	defer p.pending.Done()

	select {
	case <-ctx.Done():
		p.mu.Lock()
		p.typing--
		p.mu.Unlock()
		p.logger.Debugf("💬 reply to %q dropped: %v", query, ctx.Err())
		return
	case <-fire:
	}

	answer := p.resolver.Resolve(query)

	p.mu.Lock()
	p.typing--
	p.messages = append(p.messages, p.newMessage(RoleBot, answer.Text, answer.Intent))
	p.mu.Unlock()
	p.logger.Debugf("💬 answered %q as %s", query, answer.Intent)
}

// nextDelay draws a delay in [minDelay, maxDelay]. Caller holds mu.
func (p *ChatPanel) nextDelay() time.Duration {
	span := p.maxDelay - p.minDelay
	if span <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(p.rng.Int64N(int64(span)+1))
}

func (p *ChatPanel) newMessage(role Role, text string, intent assistant.Kind) Message {
	return Message{
		ID:     uuid.Must(uuid.NewV7()).String(),
		Role:   role,
		Text:   text,
		Intent: intent,
		At:     p.clock.Now(),
	}
}

// Messages returns a copy of the transcript.
func (p *ChatPanel) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Typing is the number of replies still pending.
func (p *ChatPanel) Typing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typing
}

// Wait blocks until every pending reply has been delivered or dropped.
func (p *ChatPanel) Wait() {
	p.pending.Wait()
}

// Snapshot is the panel state rendered by the presentation layer.
type Snapshot struct {
	Open     bool      `json:"open"`
	Typing   int       `json:"typing"`
	Messages []Message `json:"messages"`
}

// Snapshot returns the current panel state.
func (p *ChatPanel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := make([]Message, len(p.messages))
	copy(msgs, p.messages)
	return Snapshot{Open: p.toggle.IsOpen(), Typing: p.typing, Messages: msgs}
}
