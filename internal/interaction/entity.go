package interaction

import (
	"maps"

	"github.com/kazz187/npcgate/internal/gateway"
)

// Phase is the client side view of a partner conversation.
type Phase string

const (
	PhaseNone         Phase = "NONE"
	PhaseTaskAssigned Phase = "TASK_ASSIGNED"
	PhaseGrading      Phase = "GRADING"
	PhaseCrossPartner Phase = "CROSS_PARTNER"
)

// State is kept per interaction partner for the lifetime of a session.
type State struct {
	Partner                 string                      `yaml:"partner"`
	HasActiveTask           bool                        `yaml:"has_active_task"`
	Phase                   Phase                       `yaml:"phase"`
	TaskName                string                      `yaml:"task_name"`
	LastResponse            *gateway.NormalizedResponse `yaml:"last_response"`
	CallInFlight            bool                        `yaml:"call_in_flight"`
	ConsecutiveInteractions int                         `yaml:"consecutive_interactions"`

	// callID identifies the outstanding call so a result arriving after a
	// reset is not applied to a fresh state.
	callID uint64
}

func NewState(partner string) *State {
	return &State{
		Partner: partner,
		Phase:   PhaseNone,
	}
}

// Clone returns a deep copy. Repositories hand out clones only.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastResponse != nil {
		resp := *s.LastResponse
		resp.AdditionalData = maps.Clone(s.LastResponse.AdditionalData)
		c.LastResponse = &resp
	}
	return &c
}
