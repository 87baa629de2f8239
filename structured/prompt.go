package structured

import (
	"fmt"
	"strings"

	"github.com/BaSui01/llmschema/schema"
)

// PromptContext is the per-call pair a prompt is built from.
type PromptContext struct {
	Schema     *schema.Definition
	UserPrompt string
}

// Prompt renders the context with BuildPrompt.
func (c PromptContext) Prompt() string {
	return BuildPrompt(c.Schema, c.UserPrompt)
}

// BuildPrompt renders the instruction sent to the model. The output depends
// only on the definition's fields and the user prompt.
func BuildPrompt(def *schema.Definition, userPrompt string) string {
	var sb strings.Builder

	sb.WriteString("You are an AI assistant. Respond in strict JSON format: a single JSON object with exactly the fields listed below.\n\n")
	sb.WriteString("Fields:\n")
	for _, f := range def.Fields {
		sb.WriteString(FieldDirective(f))
		sb.WriteByte('\n')
	}
	sb.WriteString("\nIMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Return ONLY the JSON object. Do NOT include explanations, commentary or any text before or after the JSON.\n")
	sb.WriteString("2. Fields marked required: true must have real values. Do NOT use null, empty strings or placeholder values for them.\n")
	sb.WriteString("3. Do NOT add fields that are not listed above.\n\n")
	sb.WriteString("User Prompt: ")
	sb.WriteString(userPrompt)

	return sb.String()
}

// FieldDirective renders the instruction line for one field.
func FieldDirective(f schema.Field) string {
	return fmt.Sprintf("- %q: provide a value; description: %s; required: %t; type: %s",
		f.Name, f.Description, f.Required, f.Type)
}

// PromptBuilder builds prompts from any accepted schema source.
type PromptBuilder struct{}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build normalizes src and renders the prompt. Unrecognized sources fail
// with an INVALID_SCHEMA_FORMAT error.
func (b *PromptBuilder) Build(src any, userPrompt string) (string, error) {
	def, err := schema.Normalize(src)
	if err != nil {
		return "", err
	}
	return BuildPrompt(def, userPrompt), nil
}
