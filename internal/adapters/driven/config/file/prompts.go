package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads prompt templates from user-editable files on disk.
// Templates are loaded from a configurable directory with fallback to
// embedded defaults.
//
// The store uses lazy initialisation - files are only created when first
// accessed, not in the constructor. This makes testing easier and avoids
// unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default templates.
// These are used when user files don't exist and as the initial content
// for new files. The minimal and framework templates take two %s slots:
// the formatted context block and the user's question.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptMinimal: `Answer the question using only the sources below. Cite sources by their [S#] identifiers. If the sources do not contain the answer, say so.

Sources:
%s

Question: %s`,

	driven.PromptFramework: `Answer the question using only the sources below. Work through these steps:

1. Identify: which sources are relevant to the question.
2. Interpret: what the relevant passages actually say, in plain terms.
3. Analyze: how the passages relate to each other and to the question, noting conflicts or gaps.
4. Assess: how complete and reliable the answer is given the sources.
5. Cite: reference every claim with its [S#] source identifier.

Present the final answer first, then supporting citations. If the sources do not contain the answer, say so plainly rather than guessing.

Sources:
%s

Question: %s`,

	driven.PromptPersonaDefault: `You are a careful document analyst. You answer questions about the user's indexed documents using only the provided sources. You never invent facts, you cite every claim, and you say clearly when the sources are insufficient. Answer in the language the question was asked in.`,

	driven.PromptPersonaLegal: `You are a legal document analyst. You answer questions about contracts and legal documents using only the provided sources. You use precise legal terminology, distinguish obligations from permissions, flag ambiguous or risky language, and cite the exact clause for every claim. You never give legal advice - you describe what the documents say. Answer in the language the question was asked in.`,

	driven.PromptDegraded: `I could not fully process this question right now.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.lexquery/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".lexquery", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# LexQuery Prompts

This directory contains customisable prompt templates used when answering
questions about indexed documents.

## Files

- ` + "`minimal.txt`" + ` - Cheap instruction template for short, high-confidence queries
- ` + "`framework.txt`" + ` - Full analysis template (identify, interpret, analyze, assess, cite)
- ` + "`persona_default.txt`" + ` - Default assistant persona system prompt
- ` + "`persona_legal.txt`" + ` - Legal-analyst persona system prompt
- ` + "`degraded.txt`" + ` - Leading sentence of keyword-only fallback answers

## Customisation

Edit any file to customise behaviour. Changes take effect on the next
command.

## Format Placeholders

The minimal and framework templates use two Go fmt placeholders:
- first ` + "`%s`" + ` - the formatted source context block
- second ` + "`%s`" + ` - the user's question

Ensure customised templates keep both placeholders in order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
