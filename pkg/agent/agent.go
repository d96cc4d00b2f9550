// Package agent defines the LLM-backed agents of the intake and assessment
// pipeline: the conversational coordinator and the four specialist
// assessors. Agents combine a persona, a response schema, an optional set of
// tool servers, and a per-call deadline. The deterministic lending policy
// lives in policy.go; the model supplies conversation and narrative, never
// the numbers.
package agent

import (
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lendwise/loanflow/pkg/config"
	"github.com/lendwise/loanflow/pkg/models"
)

// Per-agent deadlines. The coordinator answers interactively and gets a
// short leash; assessors that call tools get room for tool round-trips.
const (
	CoordinatorTimeout = 30 * time.Second
	IntakeTimeout      = 10 * time.Second
	CreditTimeout      = 90 * time.Second
	IncomeTimeout      = 60 * time.Second
	RiskTimeout        = 90 * time.Second
)

// MaxToolIterations bounds the tool-calling loop per agent run.
const MaxToolIterations = 6

// Agent is one configured pipeline participant.
type Agent struct {
	Name            string
	Persona         string
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration

	// ToolServers names the MCP servers this agent may call. Empty means
	// the agent runs without tools.
	ToolServers []string

	schema *jsonschema.Schema
}

// coordinatorSchema validates the coordinator's conversational reply. The
// model owns the message, the action, and the data it extracted; completion
// and quick replies are derived in code afterwards.
var coordinatorSchema = mustCompileSchema("coordinator_reply", `{
	"type": "object",
	"required": ["message", "action"],
	"properties": {
		"message": {"type": "string", "minLength": 1},
		"action": {"type": "string", "enum": ["collect_info", "ready_for_processing", "need_clarification"]},
		"collected_data": {"type": "object"},
		"next_step": {"type": "string"}
	}
}`)

// specialistSchema validates an assessor's narrative payload. Scores,
// bands, and the final recommendation come from the deterministic policy,
// so the model only supplies reasoning and factor lists.
var specialistSchema = mustCompileSchema("specialist_reply", `{
	"type": "object",
	"required": ["reasoning"],
	"properties": {
		"reasoning": {"type": "string", "minLength": 1},
		"positive_factors": {"type": "array", "items": {"type": "string"}},
		"negative_factors": {"type": "array", "items": {"type": "string"}},
		"conditions": {"type": "array", "items": {"type": "string"}},
		"data_limitations": {"type": "array", "items": {"type": "string"}},
		"note": {"type": "string"}
	}
}`)

// specialistNarrative is the decoded form of a specialist reply.
type specialistNarrative struct {
	Reasoning       string   `json:"reasoning"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
	Conditions      []string `json:"conditions"`
	DataLimitations []string `json:"data_limitations"`
	Note            string   `json:"note"`
}

// NewCoordinator builds the conversational coordinator agent.
func NewCoordinator(persona string) *Agent {
	return &Agent{
		Name:        models.AgentCoordinator,
		Persona:     persona,
		Temperature: 0.7,
		Timeout:     CoordinatorTimeout,
		schema:      coordinatorSchema,
	}
}

// NewIntakeAgent builds the validation specialist.
func NewIntakeAgent(persona string) *Agent {
	return &Agent{
		Name:        models.AgentIntake,
		Persona:     persona,
		Temperature: 0.2,
		Timeout:     IntakeTimeout,
		ToolServers: []string{config.ToolApplicationVerification, config.ToolDocumentProcessing},
		schema:      specialistSchema,
	}
}

// NewCreditAgent builds the credit assessment specialist.
func NewCreditAgent(persona string) *Agent {
	return &Agent{
		Name:        models.AgentCredit,
		Persona:     persona,
		Temperature: 0.2,
		Timeout:     CreditTimeout,
		ToolServers: []string{config.ToolFinancialCalculations},
		schema:      specialistSchema,
	}
}

// NewIncomeAgent builds the income verification specialist.
func NewIncomeAgent(persona string) *Agent {
	return &Agent{
		Name:        models.AgentIncome,
		Persona:     persona,
		Temperature: 0.2,
		Timeout:     IncomeTimeout,
		ToolServers: []string{config.ToolFinancialCalculations},
		schema:      specialistSchema,
	}
}

// RequiredToolServers returns the union of tool servers the pipeline agents
// declare, in pipeline order. Startup validation under strict mode requires
// an endpoint for each of these.
func RequiredToolServers() []string {
	seen := make(map[string]bool)
	var servers []string
	agents := []*Agent{
		NewCoordinator(""), NewIntakeAgent(""), NewCreditAgent(""),
		NewIncomeAgent(""), NewRiskAgent(""),
	}
	for _, a := range agents {
		for _, name := range a.ToolServers {
			if !seen[name] {
				seen[name] = true
				servers = append(servers, name)
			}
		}
	}
	return servers
}

// NewRiskAgent builds the final decision specialist. It synthesizes the
// prior stages' findings and needs no tools of its own.
func NewRiskAgent(persona string) *Agent {
	return &Agent{
		Name:        models.AgentRisk,
		Persona:     persona,
		Temperature: 0.2,
		Timeout:     RiskTimeout,
		schema:      specialistSchema,
	}
}
