package models

// Participant is a configured conversational agent. Loaded once at startup
// and immutable during a run. Name is the unique identity used for turn
// exclusion; Model, Persona and Goal feed the oracles.
type Participant struct {
	Name    string `json:"name" yaml:"name"`
	Model   string `json:"model" yaml:"model"`
	Persona string `json:"persona" yaml:"persona"`
	Goal    string `json:"goal" yaml:"goal"`
}
