// Package turn implements next-speaker selection for a room. The judgment
// oracle's reply is untrusted free text: it is parsed defensively and backed
// by a total fallback, so selection always succeeds when at least one
// participant is eligible.
package turn

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BigOtis/Polylogue/internal/metrics"
	"github.com/BigOtis/Polylogue/internal/models"
	"github.com/BigOtis/Polylogue/internal/oracle"
)

// ErrNoEligibleSpeaker signals a misconfigured room: every candidate is
// excluded, which can only happen with fewer than two participants.
var ErrNoEligibleSpeaker = errors.New("no eligible speaker")

// judgeTimeout bounds a single judgment call so a hung oracle cannot stall
// turn-taking.
const judgeTimeout = 30 * time.Second

// Coordinator selects the next speaker for a room.
type Coordinator struct {
	judge  oracle.Generator
	model  string
	logger zerolog.Logger
}

// NewCoordinator creates a coordinator that consults the given judge model.
func NewCoordinator(judge oracle.Generator, model string, logger zerolog.Logger) *Coordinator {
	return &Coordinator{judge: judge, model: model, logger: logger}
}

// SelectSpeaker picks the participant most likely to want to speak next.
// excludedName is the author of the most recent message; it is filtered out
// before anything else, so no oracle reply can ever select it. Any oracle
// failure or unparsable reply degrades to a uniform random pick from the
// eligible set.
func (c *Coordinator) SelectSpeaker(ctx context.Context, history []models.Message, candidates []models.Participant, excludedName string) (models.Participant, error) {
	eligible := make([]models.Participant, 0, len(candidates))
	for _, p := range candidates {
		if !strings.EqualFold(p.Name, excludedName) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return models.Participant{}, ErrNoEligibleSpeaker
	}

	jctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()

	reply, err := c.judge.Generate(jctx, c.model, judgePrompt(eligible, history))
	if err != nil {
		metrics.OracleFailures.WithLabelValues("judge").Inc()
		c.logger.Warn().Err(err).Msg("judge call failed, falling back to random pick")
	} else {
		name := firstLine(reply)
		if p, ok := matchName(eligible, name); ok {
			metrics.SpeakerSelections.WithLabelValues("oracle").Inc()
			c.logger.Debug().Str("speaker", p.Name).Msg("judge selected speaker")
			return p, nil
		}
		c.logger.Warn().Str("reply", name).Msg("judge named no eligible participant, falling back to random pick")
	}

	metrics.SpeakerSelections.WithLabelValues("fallback").Inc()
	return eligible[rand.Intn(len(eligible))], nil
}

// judgePrompt asks the oracle to name exactly one eligible participant,
// with a bias toward giving quiet participants a turn.
func judgePrompt(eligible []models.Participant, history []models.Message) string {
	var b strings.Builder
	b.WriteString("Given the following chat history and participant descriptions, choose the participant most likely to want to respond next. ")
	b.WriteString("Participants never reply to themselves. If someone has not spoken in a while, give them a chance.\n\n")

	b.WriteString("Participants:\n")
	for _, p := range eligible {
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Persona)
		b.WriteString("\n")
	}

	b.WriteString("\nChat history:\n")
	for _, m := range history {
		b.WriteString(m.Name)
		b.WriteString(": ")
		b.WriteString(m.Body)
		b.WriteString("\n")
	}

	b.WriteString("\nReturn ONLY the name of the participant most interested in replying (no explanation):")
	return b.String()
}

// firstLine returns the first non-empty line of the reply, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// matchName resolves a reply against the eligible set, case-insensitively.
// Only eligible names are searched, so a misbehaving oracle naming the
// excluded participant is a non-match by construction.
func matchName(eligible []models.Participant, name string) (models.Participant, bool) {
	if name == "" {
		return models.Participant{}, false
	}
	for _, p := range eligible {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return models.Participant{}, false
}
