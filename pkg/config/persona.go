package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Persona keys. One file per key in the persona directory: <key>.md.
const (
	PersonaCoordinator = "coordinator"
	PersonaIntake      = "intake"
	PersonaCredit      = "credit"
	PersonaIncome      = "income"
	PersonaRisk        = "risk"
)

var personaKeys = []string{
	PersonaCoordinator, PersonaIntake, PersonaCredit, PersonaIncome, PersonaRisk,
}

// genericFallback is the short persona used for a missing specialist file
// when fallback is allowed. The coordinator never falls back — its absence
// is fatal.
const genericFallback = "You are a careful financial assessment specialist. " +
	"Analyze the provided application data and respond with a single JSON object " +
	"matching the requested schema. Be factual and concise."

// PersonaSet holds the loaded persona texts. Built once at startup and passed
// into the orchestrator; agents take their text by value, not by lookup at
// call time.
type PersonaSet struct {
	personas map[string]string
}

// LoadPersonas reads every persona file from dir. A missing coordinator file
// is always an error; missing specialist files are errors unless allowFallback
// is set, in which case a short generic persona is substituted.
func LoadPersonas(dir string, allowFallback bool) (*PersonaSet, error) {
	set := &PersonaSet{personas: make(map[string]string, len(personaKeys))}
	for _, key := range personaKeys {
		path := filepath.Join(dir, key+".md")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				if key != PersonaCoordinator && allowFallback {
					set.personas[key] = genericFallback
					continue
				}
				return nil, fmt.Errorf("%w: %s (%s)", ErrMissingPersona, key, path)
			}
			return nil, fmt.Errorf("failed to read persona %s: %w", key, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, fmt.Errorf("%w: %s is empty", ErrMissingPersona, key)
		}
		set.personas[key] = text
	}
	return set, nil
}

// Get returns the persona text for key. Fails with ErrMissingPersona for
// unknown keys — LoadPersonas guarantees every known key is present.
func (p *PersonaSet) Get(key string) (string, error) {
	text, ok := p.personas[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingPersona, key)
	}
	return text, nil
}

// MustGet returns the persona text for key, panicking on unknown keys.
// For use at wiring time where the key set is static.
func (p *PersonaSet) MustGet(key string) string {
	text, err := p.Get(key)
	if err != nil {
		panic(err)
	}
	return text
}
