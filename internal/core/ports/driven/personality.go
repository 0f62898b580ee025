package driven

// Well-known personality names.
const (
	PersonalityDefault = "default"
	PersonalityScholar = "scholar"
	PersonalityConcise = "concise"
)

// PersonalityStore resolves a personality name to the system-prompt
// lines that tune the voice of generated answers.
type PersonalityStore interface {
	// Load returns the prompt lines for the named personality.
	Load(name string) ([]string, error)

	// Names lists the available personality names.
	Names() []string

	// Reload clears any cached personalities, forcing fresh loads.
	Reload()
}
