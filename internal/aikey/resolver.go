// Package aikey resolves the Gemini API credential from whichever deployment
// surface provides it. Resolution is an ordered probe list: the first probe
// returning a non-empty value wins, and its label identifies the source for
// display. The ordering is a compatibility fallback across environments, not
// a security mechanism.
package aikey

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dyuan/voiceledger/internal/storage"
)

// SourceMissing is the label returned when no probe supplies a credential.
const SourceMissing = "Missing"

// SettingsSlot is the durable slot holding the manual credential override.
const SettingsSlot = "settings"

// envNames are the conventional variable names probed, in priority order.
var envNames = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}

// dotEnvNames adds the bundler-style prefixed names probed in .env files.
var dotEnvNames = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY", "VITE_GEMINI_API_KEY"}

// Probe is one lookup attempt against a named configuration surface.
type Probe struct {
	Label  string
	Lookup func() string
}

// Resolver walks an ordered probe list on every call. No caching: callers may
// resolve once at startup for display and again per inference call.
type Resolver struct {
	probes []Probe
}

// NewResolver builds a resolver over an explicit probe list. Tests inject
// fake probes here.
func NewResolver(probes ...Probe) *Resolver {
	return &Resolver{probes: probes}
}

// Resolve returns the first non-empty credential and the label of the surface
// that supplied it, or ("", SourceMissing) when every probe comes up empty.
func (r *Resolver) Resolve() (key string, source string) {
	for _, p := range r.probes {
		if v := strings.TrimSpace(p.Lookup()); v != "" {
			return v, p.Label
		}
	}
	return "", SourceMissing
}

// DefaultProbes is the production probe list: process environment, .env file,
// runtime-injected override, then the local settings slot.
func DefaultProbes(slot storage.Slot) []Probe {
	probes := make([]Probe, 0, len(envNames)+len(dotEnvNames)+2)
	for _, name := range envNames {
		name := name
		probes = append(probes, Probe{
			Label:  "Env:" + name,
			Lookup: func() string { return os.Getenv(name) },
		})
	}
	for _, name := range dotEnvNames {
		name := name
		probes = append(probes, Probe{
			Label:  "DotEnv:" + name,
			Lookup: func() string { return dotEnvValue(name) },
		})
	}
	probes = append(probes, Probe{
		Label:  "Runtime",
		Lookup: RuntimeKey,
	})
	probes = append(probes, Probe{
		Label:  "LocalStorage",
		Lookup: func() string { return OverrideKey(slot) },
	})
	return probes
}

// dotEnvValue re-reads .env on every probe so edits take effect without a
// restart. A missing or unreadable file simply yields nothing.
func dotEnvValue(name string) string {
	values, err := godotenv.Read()
	if err != nil {
		return ""
	}
	return values[name]
}

var runtimeKey string

// SetRuntimeKey installs a process-lifetime credential override, the analog
// of a globally injected runtime variable. Set from a CLI flag.
func SetRuntimeKey(key string) {
	runtimeKey = key
}

// RuntimeKey returns the runtime-injected override, if any.
func RuntimeKey() string {
	return runtimeKey
}

type settings struct {
	APIKey string `json:"apiKey"`
}

// OverrideKey reads the manually saved credential from the settings slot.
// Any read or parse failure yields an empty value; the next probe decides.
func OverrideKey(slot storage.Slot) string {
	data, ok, err := slot.Read(SettingsSlot)
	if err != nil || !ok {
		return ""
	}
	var s settings
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s.APIKey
}

// SaveOverride persists a manual credential override to the settings slot.
func SaveOverride(slot storage.Slot, key string) error {
	data, err := json.Marshal(settings{APIKey: strings.TrimSpace(key)})
	if err != nil {
		return err
	}
	return slot.Write(SettingsSlot, data)
}
