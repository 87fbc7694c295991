package brain

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/talgya/emberhold/internal/agents"
	"github.com/talgya/emberhold/internal/council"
	"github.com/talgya/emberhold/internal/humannews"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini voices agents through the Gemini API. Votes and draft mechanics
// stay on the template policy so the sim's decisions remain inspectable;
// only the words are handed to the model. Every call falls back to the
// template line on error, so a dead network never silences the hall.
type Gemini struct {
	client   *genai.Client
	model    string
	fallback *Templates
	timeout  time.Duration

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewGemini creates a Gemini-backed provider. Returns an error when apiKey
// is empty; callers wanting a silent downgrade should use NewTemplates.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		client:    client,
		model:     model,
		fallback:  NewTemplates(),
		timeout:   15 * time.Second,
		maxPerMin: 20,
	}, nil
}

// Proposal keeps the template draft's mechanics and lets the model rewrite
// the pitch in the agent's voice.
func (g *Gemini) Proposal(rng *rand.Rand, a *agents.Agent, v View) Draft {
	draft := g.fallback.Proposal(rng, a, v)
	prompt := fmt.Sprintf(
		"%s\nThey are proposing %q to the village council. In one sentence under 30 words, in their voice, state why the village should approve it. No quotation marks.",
		persona(a), draft.Title)
	if line, err := g.generate(prompt); err == nil {
		draft.Description = line
	}
	return draft
}

// Vote delegates to the template policy. Ballots are mechanics, not prose.
func (g *Gemini) Vote(rng *rand.Rand, a *agents.Agent, p *council.Proposal, rapport int) council.Vote {
	return g.fallback.Vote(rng, a, p, rapport)
}

func (g *Gemini) Quote(rng *rand.Rand, a *agents.Agent, c Context) string {
	prompt := fmt.Sprintf(
		"%s\nSpeaking register: %s. Topic: %s. Weather: %s.\nWrite one spoken line under 25 words. Stay in character, no narration, no quotation marks.",
		persona(a), c.Kind, orElse(c.Topic, "village business"), orElse(c.Weather, "unremarkable"))
	if line, err := g.generate(prompt); err == nil {
		return line
	}
	return g.fallback.Quote(rng, a, c)
}

func (g *Gemini) NewsReaction(rng *rand.Rand, a *agents.Agent, ev humannews.Event) string {
	prompt := fmt.Sprintf(
		"%s\nThe village just heard outside news from the %s: %q.\nWrite their one-line spoken reaction, under 25 words, no quotation marks.",
		persona(a), ev.Source, ev.Headline)
	if line, err := g.generate(prompt); err == nil {
		return line
	}
	return g.fallback.NewsReaction(rng, a, ev)
}

// Action delegates to the template labels; short working notes don't earn
// a network round trip.
func (g *Gemini) Action(rng *rand.Rand, a *agents.Agent, v View) string {
	return g.fallback.Action(rng, a, v)
}

func (g *Gemini) generate(prompt string) (string, error) {
	g.mu.Lock()
	now := time.Now()
	if now.After(g.resetAt) {
		g.callCount = 0
		g.resetAt = now.Add(time.Minute)
	}
	if g.callCount >= g.maxPerMin {
		g.mu.Unlock()
		return "", fmt.Errorf("gemini rate limit exceeded (%d calls/min)", g.maxPerMin)
	}
	g.callCount++
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		nil)
	if err != nil {
		slog.Debug("gemini call failed, using template line", "err", err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	line := cleanLine(resp.Text())
	if line == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return line, nil
}

// persona describes the speaker for the model without leaking sim internals.
func persona(a *agents.Agent) string {
	return fmt.Sprintf(
		"You speak as %s, a %d-year-old %s in a small mountain settlement called Emberhold. Temperament: %s.",
		a.Name, a.Age, a.Archetype, temperament(a.Personality))
}

func temperament(p agents.Personality) string {
	var tr []string
	if p.Courage >= 65 {
		tr = append(tr, "bold")
	} else if p.Courage <= 35 {
		tr = append(tr, "cautious")
	}
	if p.Empathy >= 65 {
		tr = append(tr, "warm")
	} else if p.Empathy <= 35 {
		tr = append(tr, "blunt")
	}
	if p.Ambition >= 65 {
		tr = append(tr, "driven")
	}
	if p.Curiosity >= 65 {
		tr = append(tr, "inquisitive")
	}
	if p.Discipline >= 65 {
		tr = append(tr, "methodical")
	} else if p.Discipline <= 35 {
		tr = append(tr, "impulsive")
	}
	if len(tr) == 0 {
		return "even-keeled"
	}
	return strings.Join(tr, ", ")
}

// cleanLine flattens a model response to one trimmed spoken line.
func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, `"'`)
	if len(s) > 200 {
		s = s[:200]
	}
	return strings.TrimSpace(s)
}
