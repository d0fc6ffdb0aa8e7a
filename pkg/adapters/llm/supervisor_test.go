package llm_test

import (
	"context"
	"testing"

	"github.com/aretw0/relay/internal/runtime"
	"github.com/aretw0/relay/pkg/adapters/llm"
	"github.com/aretw0/relay/pkg/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorPrompt(t *testing.T) {
	prompt, err := llm.SupervisorPrompt("You are the front desk of ACME.", []*chain.Descriptor{
		{ID: "billing", Description: "Answers questions about invoices"},
		{ID: "support", Description: "Fixes technical problems"},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Background & Persona: You are the front desk of ACME.")
	assert.Contains(t, prompt, "- billing. Answers questions about invoices\n- support. Fixes technical problems")
	assert.Contains(t, prompt, `"Agent=AGENT_NAME;"`)
}

func TestSupervisor_RoutesThroughGraph(t *testing.T) {
	supModel := &scriptedModel{replies: []string{"Agent=billing; check invoice 42"}}
	billingModel := &scriptedModel{replies: []string{"Invoice 42 is paid."}}

	billing := &chain.Descriptor{ID: "billing", Description: "Invoices", Agent: llm.New(billingModel)}
	sup, err := llm.NewSupervisor(supModel, "Front desk", []*chain.Descriptor{billing})
	require.NoError(t, err)
	assert.Contains(t, sup.SystemPrompt(), "- billing. Invoices")

	g, err := chain.Build(&chain.Descriptor{ID: chain.DefaultSupervisorID, Agent: sup}, []*chain.Descriptor{billing})
	require.NoError(t, err)

	res, err := runtime.NewEngine().Execute(context.Background(), g, "was invoice 42 paid?")
	require.NoError(t, err)
	assert.Equal(t, "Invoice 42 is paid.", res.Final.Output)

	// The routed agent answers the user's request, not the supervisor's marker.
	require.Len(t, billingModel.calls, 1)
	assert.Equal(t, "was invoice 42 paid?", text(t, billingModel.calls[0][0]))
}
