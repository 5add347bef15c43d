package gateway

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kazz187/npcgate/internal/config"
)

// Operation parameterizes one gateway endpoint.
type Operation struct {
	Name      string // log attribute and route name
	TargetKey string // environment key of the backend URL
	Service   string // human readable backend name used in error messages
	Target    string
	Deadline  time.Duration
	Flags     url.Values // extra outbound query fields

	// DefaultMessage and DefaultPhase fill the normalized response when
	// the backend omits them.
	DefaultMessage func(game, npc string) string
	DefaultPhase   Phase
}

func (o *Operation) defaults(game, npc string) Defaults {
	d := Defaults{NextPhase: o.DefaultPhase}
	if o.DefaultMessage != nil {
		d.Message = o.DefaultMessage(game, npc)
	}
	return d
}

func (o *Operation) params(game, npc, email string) url.Values {
	params := url.Values{}
	if game != "" {
		params.Set("game", game)
	}
	if npc != "" {
		params.Set("npc", npc)
	}
	params.Set("email", email)
	for k, vs := range o.Flags {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return params
}

type Operations struct {
	Task     *Operation
	Grade    *Operation
	Pass     *Operation
	Register *Operation
}

func NewOperations(env *config.Env) Operations {
	return Operations{
		Task: &Operation{
			Name:      "game-task",
			TargetKey: "GameTaskFunctionUrl",
			Service:   "game task",
			Target:    env.GameTaskURL,
			Deadline:  env.TaskTimeout,
			DefaultMessage: func(game, npc string) string {
				return fmt.Sprintf("Game task for %s in game %s created successfully!", npc, game)
			},
			DefaultPhase: PhaseSetup,
		},
		Grade: &Operation{
			Name:      "grader",
			TargetKey: "GraderFunctionUrl",
			Service:   "grader",
			Target:    env.GraderURL,
			Deadline:  env.GradeTimeout,
			Flags:     url.Values{"mode": {"grading"}},
			DefaultMessage: func(game, npc string) string {
				return fmt.Sprintf("Grading for %s in game %s completed successfully!", npc, game)
			},
			DefaultPhase: PhaseChallenge,
		},
		Pass: &Operation{
			Name:      "pass-task",
			TargetKey: "PassTaskFunctionUrl",
			Service:   "pass task",
			Target:    env.PassTaskURL,
			Deadline:  env.PassTimeout,
		},
		Register: &Operation{
			Name:      "registration",
			TargetKey: "StudentRegistrationFunctionUrl",
			Service:   "registration",
			Target:    env.RegistrationURL,
			Deadline:  env.RegisterTimeout,
		},
	}
}
