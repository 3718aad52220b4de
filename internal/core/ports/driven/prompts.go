package driven

// Prompt template names used by the query orchestrator.
const (
	// PromptMinimal is the cheap instruction template for low-complexity,
	// high-confidence queries.
	PromptMinimal = "minimal"

	// PromptFramework is the full analysis template
	// (identify, interpret, analyze, assess, cite).
	PromptFramework = "framework"

	// PromptPersonaDefault is the default persona system prompt.
	PromptPersonaDefault = "persona_default"

	// PromptPersonaLegal is the legal-analyst persona system prompt.
	PromptPersonaLegal = "persona_legal"

	// PromptDegraded is the leading sentence of the degraded keyword
	// fallback answer.
	PromptDegraded = "degraded"
)

// PromptStore loads prompt templates by name.
// Backed by user-editable files with embedded defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
