package llm

import (
	"fmt"
	"strings"

	"github.com/aretw0/relay/pkg/chain"
	"github.com/tmc/langchaingo/prompts"
)

const supervisorTemplate = `Background & Persona: {{.persona}}

Your main task is to determine which agent to use and pass them the message from User. Here are the available agents:
{{.agents}}

If you find an agent that can help, start the message with: "Agent=AGENT_NAME;".
Based on the chat history, you should try to get the user's intention and find an agent that can help.
Give simple, clear, and step-by-step instructions to the agent on what to do, based on the user's message and intention.

If no agent is available, simply reply and ask the user for more information.

REMEMBER: Never use an AGENT_NAME that is not in the list.`

// SupervisorPrompt renders the supervisor system prompt for the given
// persona and routable agents.
func SupervisorPrompt(persona string, agents []*chain.Descriptor) (string, error) {
	lines := make([]string, 0, len(agents))
	for _, a := range agents {
		lines = append(lines, fmt.Sprintf("- %s. %s", a.ID, a.Description))
	}

	tmpl := prompts.PromptTemplate{
		Template:       supervisorTemplate,
		InputVariables: []string{"persona", "agents"},
		TemplateFormat: prompts.TemplateFormatGoTemplate,
	}
	out, err := tmpl.Format(map[string]any{
		"persona": persona,
		"agents":  strings.Join(lines, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("render supervisor prompt: %w", err)
	}
	return out, nil
}

// NewSupervisor creates the routing agent. Options are applied after the
// rendered prompt, so WithSystemPrompt replaces it.
func NewSupervisor(model Model, persona string, agents []*chain.Descriptor, opts ...Option) (*Agent, error) {
	prompt, err := SupervisorPrompt(persona, agents)
	if err != nil {
		return nil, err
	}
	return New(model, append([]Option{WithSystemPrompt(prompt)}, opts...)...), nil
}
