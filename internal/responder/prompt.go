package responder

import (
	"strings"

	"github.com/soyeahso/hubrelay/internal/config"
)

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	Persona     string
	ExtraPrompt string
}

// BuildSystemPrompt constructs the fixed system instruction sent with every
// completion. The persona falls back to config.DefaultPersona.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	persona := strings.TrimSpace(cfg.Persona)
	if persona == "" {
		persona = config.DefaultPersona
	}
	b.WriteString(persona)

	// Extra/custom prompt
	if extra := strings.TrimSpace(cfg.ExtraPrompt); extra != "" {
		b.WriteString("\n\n")
		b.WriteString(extra)
	}

	return b.String()
}
