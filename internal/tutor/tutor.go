// Package tutor answers astronomy questions and keeps chat sessions.
//
// Questions that mention a known topic get a canned answer. Everything else
// is sent to the generative provider with a prompt shaped by the mode.
package tutor

import (
	"context"
	"strings"
	"time"

	"github.com/abelbrown/skydeck/internal/brain"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
)

// Mode selects answer depth.
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeDetailed Mode = "detailed"
)

// ParseMode maps user input to a Mode. Anything unrecognized is simple.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "detailed", "deep", "deep-dive":
		return ModeDetailed
	default:
		return ModeSimple
	}
}

// Label is the badge text shown next to the chat.
func (m Mode) Label() string {
	if m == ModeDetailed {
		return "Deep Dive Mode"
	}
	return "ELI5 Mode"
}

const (
	Greeting     = "Hello! I'm your AI Astronomy Tutor. I can help you learn about space, explain celestial phenomena, and answer any questions about the universe. What would you like to explore today?"
	FailureText  = "Sorry, I had trouble connecting to my knowledge base. Try again in a moment!"
	EmptyText    = "I'm still thinking about that one! Try asking it differently."
	DefaultTitle = "New Chat Session"

	titleRunes = 50
	maxTokens  = 1024
	timeout    = 45 * time.Second
)

// QuickQuestions are suggested prompts shown under the chat input.
var QuickQuestions = []string{
	"What causes meteor showers?",
	"How far is the ISS from Earth?",
	"What's a black hole?",
	"Why do planets orbit the sun?",
	"What are the phases of the moon?",
	"How are stars born?",
}

type topic struct {
	key      string
	simple   string
	detailed string
}

// topics are matched in order against the lowercased question.
var topics = []topic{
	{
		key:      "meteor",
		simple:   "Meteor showers happen when Earth passes through debris left by comets! These tiny pieces burn up in our atmosphere, creating beautiful streaks of light. It's like cosmic fireworks! 🌟",
		detailed: "Meteor showers occur when Earth's orbital path intersects with the debris trail of a comet. As comets approach the Sun, solar radiation causes volatile materials to sublimate, creating a trail of particles...",
	},
	{
		key:      "iss",
		simple:   "The International Space Station orbits about 408 kilometers (254 miles) above Earth. That's roughly the distance from New York to Boston, but straight up! 🚀",
		detailed: "The International Space Station maintains an orbital altitude of approximately 408 kilometers (254 miles) above Earth's surface...",
	},
	{
		key:      "black hole",
		simple:   "A black hole is like a cosmic vacuum cleaner so powerful that nothing can escape it - not even light! They form when massive stars collapse. Think of it as a point where gravity becomes super strong! 🕳️",
		detailed: "Black holes are regions of spacetime where gravitational effects become so strong that nothing, not even electromagnetic radiation such as light, can escape...",
	},
	{
		key:      "orbit",
		simple:   "Planets orbit the sun because of gravity! The sun's massive size creates a gravitational pull that keeps planets moving in curved paths around it, like a ball on a string being swung in circles! 🌍",
		detailed: "Planetary orbits result from the balance between gravitational attraction and inertial motion. According to Newton's laws...",
	},
	{
		key:      "moon phases",
		simple:   "Moon phases happen because we see different amounts of the moon lit up by the sun as it orbits Earth. It's like watching a ball with a flashlight - sometimes we see the whole lit side, sometimes just a sliver! 🌙",
		detailed: "Lunar phases result from the changing angular relationship between Earth, Moon, and Sun as the Moon orbits Earth with a period of approximately 29.5 days...",
	},
	{
		key:      "stars",
		simple:   "Stars are born in giant clouds of gas and dust called nebulae. When these clouds get squeezed together by gravity, they heat up and start nuclear fusion - that's when a star is born and begins to shine! ⭐",
		detailed: "Stellar formation occurs within molecular clouds when gravitational instabilities cause regions of higher density to collapse...",
	},
}

// CannedAnswer returns the stored answer for the first topic whose key
// appears in text.
func CannedAnswer(text string, mode Mode) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range topics {
		if strings.Contains(lower, t.key) {
			if mode == ModeDetailed {
				return t.detailed, true
			}
			return t.simple, true
		}
	}
	return "", false
}

// Prompt builds the provider prompt for a question.
func Prompt(text string, mode Mode) string {
	if mode == ModeDetailed {
		return "Provide a detailed scientific explanation about the astronomy topic: " + text +
			". Focus on technical details and scientific concepts."
	}
	return "Explain in one simple line about astronomy topic: " + text
}

// Title derives a session title from the first user message.
func Title(msgs []model.ChatMessage) string {
	for _, m := range msgs {
		if m.Role != model.RoleUser {
			continue
		}
		r := []rune(m.Text)
		if len(r) > titleRunes {
			r = r[:titleRunes]
		}
		return string(r) + "..."
	}
	return DefaultTitle
}

// Generator produces text. *brain.ProviderManager satisfies it.
type Generator interface {
	Generate(ctx context.Context, req brain.Request) (brain.Response, error)
}

// Reply is one tutor answer.
type Reply struct {
	Text     string `json:"text"`
	Canned   bool   `json:"canned,omitempty"`
	Failed   bool   `json:"failed,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Tutor answers questions.
type Tutor struct {
	gen    Generator
	events *otel.Logger
}

// New creates a Tutor. gen may be nil, in which case every non-canned
// question gets FailureText.
func New(gen Generator, events *otel.Logger) *Tutor {
	return &Tutor{gen: gen, events: events}
}

// Answer never fails: provider errors become FailureText and empty
// completions become EmptyText.
func (t *Tutor) Answer(ctx context.Context, text string, mode Mode) Reply {
	if answer, ok := CannedAnswer(text, mode); ok {
		return Reply{Text: answer, Canned: true}
	}
	if t.gen == nil {
		return Reply{Text: FailureText, Failed: true}
	}

	t.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindTutorAsk, Comp: "tutor", Msg: string(mode)})

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := t.gen.Generate(ctx, brain.Request{
		UserPrompt: Prompt(text, mode),
		MaxTokens:  maxTokens,
	})
	if err != nil {
		logging.Warn("tutor generation failed", "error", err)
		t.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindTutorError, Comp: "tutor", Err: err.Error(), Dur: time.Since(start)})
		return Reply{Text: FailureText, Failed: true}
	}

	t.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindTutorReply, Comp: "tutor", Count: len(resp.Content), Dur: time.Since(start), Extra: map[string]any{"provider": resp.Provider}})

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return Reply{Text: EmptyText, Provider: resp.Provider}
	}
	return Reply{Text: content, Provider: resp.Provider}
}
