package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
)

// Ensure PersonalityStore implements the interface.
var _ driven.PersonalityStore = (*PersonalityStore)(nil)

// PersonalityStore loads answer personalities from user-editable files
// on disk. Each personality is a plain-text file of system-prompt lines
// with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first
// accessed, not in the constructor. This makes testing easier and avoids
// unexpected I/O.
type PersonalityStore struct {
	mu             sync.RWMutex
	personalityDir string
	cache          map[string][]string
	initOnce       sync.Once
	initErr        error
}

// defaultPersonalities contains embedded default personalities.
// These are used when user files don't exist and as the initial content
// for new files.
var defaultPersonalities = map[string]string{
	driven.PersonalityDefault: `You write in a neutral, helpful tone.`,

	driven.PersonalityScholar: `You write like a careful academic reviewer.
Qualify uncertain claims and note where sources disagree.`,

	driven.PersonalityConcise: `You answer in at most three sentences.
Omit preamble and caveats unless essential.`,
}

// NewPersonalityStore creates a new file-based personality store.
// If personalityDir is empty, defaults to ~/.folio/personalities/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPersonalityStore(personalityDir string) (*PersonalityStore, error) {
	if personalityDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		personalityDir = filepath.Join(home, ".folio", "personalities")
	}

	return &PersonalityStore{
		personalityDir: personalityDir,
		cache:          make(map[string][]string),
	}, nil
}

// Load returns the prompt lines for the named personality.
// On first call, initialises the personality directory and creates
// default files. Returns cached value if available, otherwise loads from
// file. Falls back to embedded defaults if the file doesn't exist.
func (s *PersonalityStore) Load(name string) ([]string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if content, ok := defaultPersonalities[name]; ok {
			return splitLines(content), nil
		}
		return nil, fmt.Errorf("personality store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if lines, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return lines, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	lines, err := s.loadFromFile(name)
	if err != nil {
		if content, ok := defaultPersonalities[name]; ok {
			return splitLines(content), nil
		}
		return nil, fmt.Errorf("load personality %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = lines
	} else {
		lines = s.cache[name]
	}
	s.mu.Unlock()

	return lines, nil
}

// Names lists the available personality names: every .txt file in the
// personality directory plus the embedded defaults.
func (s *PersonalityStore) Names() []string {
	seen := make(map[string]struct{}, len(defaultPersonalities))
	for name := range defaultPersonalities {
		seen[name] = struct{}{}
	}

	entries, err := os.ReadDir(s.personalityDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if name, ok := strings.CutSuffix(entry.Name(), ".txt"); ok {
				seen[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reload clears the personality cache, forcing fresh loads from disk.
func (s *PersonalityStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string][]string)
	s.mu.Unlock()
}

// Dir returns the personality directory path.
func (s *PersonalityStore) Dir() string {
	return s.personalityDir
}

// initialise creates the personality directory and default files.
// Called once via sync.Once on first Load().
func (s *PersonalityStore) initialise() {
	if err := os.MkdirAll(s.personalityDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create personality directory: %w", err)
		return
	}

	// Create default files (only if they don't exist)
	for name, content := range defaultPersonalities {
		path := filepath.Join(s.personalityDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default personality %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a personality from disk.
func (s *PersonalityStore) loadFromFile(name string) ([]string, error) {
	path := filepath.Join(s.personalityDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitLines(string(data)), nil
}

// splitLines splits personality content into trimmed, non-empty lines.
func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// createReadme writes a README file explaining the personalities directory.
func (s *PersonalityStore) createReadme() error {
	path := filepath.Join(s.personalityDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Folio Personalities

This directory contains answer personalities used by ` + "`folio ask`" + `.

Each ` + "`.txt`" + ` file is one personality: plain-text lines that are
prepended to the system prompt when generating an answer. Add a new file
to create a personality, then select it with ` + "`folio ask --personality <name>`" + `.

Edits take effect on the next command or after restarting the TUI.
`
	return os.WriteFile(path, []byte(content), 0600)
}
