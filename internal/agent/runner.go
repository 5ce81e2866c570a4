// Package agent runs the reply cycle for a room: fetch history, select a
// speaker, generate a reply, normalize it, post it, cool down, repeat.
package agent

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BigOtis/Polylogue/clients/go/polylogue"
	"github.com/BigOtis/Polylogue/internal/metrics"
	"github.com/BigOtis/Polylogue/internal/models"
	"github.com/BigOtis/Polylogue/internal/oracle"
	"github.com/BigOtis/Polylogue/internal/turn"
)

// emptyRoomDelay is the short pause before re-checking a room with no
// messages yet.
const emptyRoomDelay = 5 * time.Second

// generateTimeout bounds a single text-generation call.
const generateTimeout = 2 * time.Minute

// Config holds the dependencies and tuning for one room's runner.
type Config struct {
	Client       *polylogue.Client
	Oracle       oracle.Generator
	Coordinator  *turn.Coordinator
	Participants []models.Participant
	Room         string
	HistoryLimit int
	CooldownMin  time.Duration
	CooldownMax  time.Duration
	Logger       zerolog.Logger
}

// Runner drives the reply cycle for a single room. It is a sequential loop
// with no internal parallelism; run one Runner per room.
type Runner struct {
	client       *polylogue.Client
	oracle       oracle.Generator
	coordinator  *turn.Coordinator
	participants []models.Participant
	room         string
	historyLimit int
	cooldownMin  time.Duration
	cooldownMax  time.Duration
	logger       zerolog.Logger
}

// NewRunner creates a runner for one room.
func NewRunner(cfg Config) *Runner {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 30
	}

	return &Runner{
		client:       cfg.Client,
		oracle:       cfg.Oracle,
		coordinator:  cfg.Coordinator,
		participants: cfg.Participants,
		room:         cfg.Room,
		historyLimit: historyLimit,
		cooldownMin:  cfg.CooldownMin,
		cooldownMax:  cfg.CooldownMax,
		logger:       cfg.Logger.With().Str("room", cfg.Room).Logger(),
	}
}

// Run executes reply cycles until the context is canceled. No cycle error
// ever terminates the loop; each iteration is its own fault boundary.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info().
		Int("participants", len(r.participants)).
		Msg("starting reply cycle")

	for {
		delay := r.safeCycle(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reply cycle stopped")
			return
		case <-time.After(delay):
		}
	}
}

// safeCycle runs one cycle behind a recover barrier and returns how long to
// wait before the next one.
func (r *Runner) safeCycle(ctx context.Context) (delay time.Duration) {
	log := r.logger.With().Str("cycle_id", uuid.NewString()).Logger()
	delay = r.cooldown()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("cycle panicked")
			metrics.CyclesTotal.WithLabelValues("panic").Inc()
		}
	}()

	outcome, cycleDelay := r.cycle(ctx, log)
	metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	if cycleDelay > 0 {
		delay = cycleDelay
	}
	return delay
}

// cycle runs one pass of the state machine. It returns the metrics outcome
// and, optionally, a delay overriding the normal cooldown.
func (r *Runner) cycle(ctx context.Context, log zerolog.Logger) (string, time.Duration) {
	history, err := r.fetchHistory(ctx)
	if err != nil {
		log.Error().Err(err).Msg("history fetch failed")
		return "error", 0
	}
	if len(history) == 0 {
		log.Debug().Msg("room is empty, nothing to react to")
		return "empty_room", emptyRoomDelay
	}

	last := history[len(history)-1]
	speaker, err := r.coordinator.SelectSpeaker(ctx, history, r.participants, last.Name)
	if err != nil {
		if errors.Is(err, turn.ErrNoEligibleSpeaker) {
			// Misconfiguration, not a transient fault. Stay alive and loud.
			log.Error().Err(err).Msg("room needs at least two participants")
			return "error", 0
		}
		log.Error().Err(err).Msg("speaker selection failed")
		return "error", 0
	}

	// Selection already excludes the last author; this is a safety net for
	// a roster where every name collides with it.
	if strings.EqualFold(speaker.Name, last.Name) {
		log.Warn().Str("speaker", speaker.Name).Msg("selected speaker posted last, skipping cycle")
		return "skipped", 0
	}

	gctx, cancel := context.WithTimeout(ctx, generateTimeout)
	text, err := r.oracle.Generate(gctx, speaker.Model, replyPrompt(speaker, history))
	cancel()
	if err != nil {
		metrics.OracleFailures.WithLabelValues("text").Inc()
		log.Warn().Err(err).Str("speaker", speaker.Name).Msg("text generation failed")
		text = ""
	}

	text = Normalize(speaker.Name, text)
	if text == "" {
		log.Info().Str("speaker", speaker.Name).Msg("empty reply, nothing to post")
		return "skipped", 0
	}

	if _, err := r.client.PostMessage(ctx, r.room, speaker.Name, text); err != nil {
		log.Error().Err(err).Str("speaker", speaker.Name).Msg("message post failed")
		return "error", 0
	}

	log.Info().
		Str("speaker", speaker.Name).
		Str("replying_to", last.Name).
		Msg("reply posted")
	return "posted", 0
}

// fetchHistory pulls recent messages and converts them to the internal model.
func (r *Runner) fetchHistory(ctx context.Context) ([]models.Message, error) {
	fetched, err := r.client.Messages(ctx, r.room, r.historyLimit, 0)
	if err != nil {
		return nil, err
	}

	history := make([]models.Message, len(fetched))
	for i, m := range fetched {
		history[i] = models.Message{
			ID:        m.ID,
			Room:      m.Room,
			Name:      m.Name,
			Body:      m.Body,
			Seq:       m.Seq,
			Timestamp: m.Timestamp,
		}
	}
	return history, nil
}

// cooldown returns a randomized pause so multiple runners never fall into
// lockstep.
func (r *Runner) cooldown() time.Duration {
	if r.cooldownMax <= r.cooldownMin {
		return r.cooldownMin
	}
	return r.cooldownMin + time.Duration(rand.Int63n(int64(r.cooldownMax-r.cooldownMin)))
}

// replyPrompt builds the text-oracle prompt for the chosen speaker.
func replyPrompt(p models.Participant, history []models.Message) string {
	var b strings.Builder
	last := history[len(history)-1]

	b.WriteString("You are ")
	b.WriteString(p.Name)
	b.WriteString(", a chatbot with a distinct persona: ")
	b.WriteString(p.Persona)
	b.WriteString(".\nYour goal is to ")
	b.WriteString(p.Goal)
	b.WriteString(".\n")
	b.WriteString("This is a multi-participant group chat. Type in a texting-style tone, as your character would in a real group chat. Stay true to your own voice and agenda. Do not mimic the other participants.\n")
	b.WriteString("You may take initiative and drive the conversation when appropriate. Interact with what others have said when relevant.\n")
	b.WriteString("Respond briefly (1-2 sentences) in character and do not include your name.\n\n")

	b.WriteString("Here is the chat history so far:\n")
	for _, m := range history {
		b.WriteString(m.Name)
		b.WriteString(": ")
		b.WriteString(m.Body)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.Name)
	b.WriteString(", reply to ")
	b.WriteString(last.Name)
	b.WriteString(" now:")
	return b.String()
}
