package orchestrator

import "github.com/lendwise/loanflow/pkg/models"

// SharedState threads the application and accumulated assessments through
// one pipeline invocation. Writes are append-only per stage; it does not
// outlive the run.
type SharedState struct {
	Application  *models.LoanApplication
	Assessments  map[string]*models.SpecialistAssessment
	CurrentPhase models.Phase
}

// NewSharedState starts a pipeline run over a validated application.
func NewSharedState(app *models.LoanApplication) *SharedState {
	return &SharedState{
		Application: app,
		Assessments: make(map[string]*models.SpecialistAssessment, 4),
	}
}

// Record stores a stage's assessment and advances the phase tag.
func (s *SharedState) Record(stage string, phase models.Phase, assessment *models.SpecialistAssessment) {
	s.Assessments[stage] = assessment
	s.CurrentPhase = phase
}
