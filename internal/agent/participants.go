package agent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BigOtis/Polylogue/internal/models"
)

// participantsFile is the on-disk roster shape.
type participantsFile struct {
	Participants []models.Participant `yaml:"participants"`
}

// LoadParticipants reads the participant roster from a YAML file. Names
// must be unique since they are the identity used for turn exclusion.
func LoadParticipants(path string) ([]models.Participant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read participants file: %w", err)
	}

	var file participantsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse participants file: %w", err)
	}
	if len(file.Participants) == 0 {
		return nil, fmt.Errorf("participants file %s defines no participants", path)
	}

	seen := make(map[string]bool, len(file.Participants))
	for i := range file.Participants {
		p := &file.Participants[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("participant %d has no name", i)
		}
		if p.Model == "" {
			return nil, fmt.Errorf("participant %q has no model", p.Name)
		}
		lower := strings.ToLower(p.Name)
		if seen[lower] {
			return nil, fmt.Errorf("duplicate participant name %q", p.Name)
		}
		seen[lower] = true
	}

	return file.Participants, nil
}
