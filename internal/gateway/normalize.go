package gateway

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Phase is the token telling the client what the backend expects next.
// Values outside the known vocabulary are passed through unchanged.
type Phase string

const (
	PhaseSetup            Phase = "SETUP"
	PhaseTaskAssigned     Phase = "TASK_ASSIGNED"
	PhaseChallenge        Phase = "CHALLENGE"
	PhaseReadyForNext     Phase = "READY_FOR_NEXT"
	PhaseBusyWithOtherNPC Phase = "BUSY_WITH_OTHER_NPC"
	PhaseWrongNPC         Phase = "WRONG_NPC_FOR_GRADING"
	PhaseNPCCooldown      Phase = "NPC_COOLDOWN"
	PhaseEncourageVariety Phase = "ENCOURAGE_VARIETY"
	PhaseAllCompleted     Phase = "ALL_COMPLETED"
)

func (p Phase) Known() bool {
	switch p {
	case PhaseSetup, PhaseTaskAssigned, PhaseChallenge, PhaseReadyForNext, PhaseBusyWithOtherNPC,
		PhaseWrongNPC, PhaseNPCCooldown, PhaseEncourageVariety, PhaseAllCompleted:
		return true
	}
	return false
}

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// NormalizedResponse is the fixed contract returned to the game client.
// Every field is always populated.
type NormalizedResponse struct {
	Status         string         `json:"status" yaml:"status"`
	Message        string         `json:"message" yaml:"message"`
	NextPhase      Phase          `json:"next_phase" yaml:"next_phase"`
	ReportURL      string         `json:"report_url" yaml:"report_url"`
	EasterEggURL   string         `json:"easter_egg_url" yaml:"easter_egg_url"`
	Score          int            `json:"score" yaml:"score"`
	CompletedTasks int            `json:"completed_tasks" yaml:"completed_tasks"`
	TaskName       string         `json:"task_name" yaml:"task_name"`
	TaskCompleted  bool           `json:"task_completed" yaml:"task_completed"`
	AdditionalData map[string]any `json:"additional_data" yaml:"additional_data"`
}

// Defaults are the operation specific fallbacks.
type Defaults struct {
	Message   string
	NextPhase Phase
}

// Backends have shipped several spellings of the same field over time.
var (
	statusKeys         = []string{"status"}
	messageKeys        = []string{"message"}
	phaseKeys          = []string{"next_phase", "next_game_phrase", "nextGamePhrase", "nextPhase"}
	reportURLKeys      = []string{"report_url", "reportUrl"}
	easterEggURLKeys   = []string{"easter_egg_url", "easterEggUrl"}
	scoreKeys          = []string{"score"}
	completedTasksKeys = []string{"completed_tasks", "completedTasks"}
	taskNameKeys       = []string{"task_name", "taskName"}
	taskCompletedKeys  = []string{"task_completed", "taskCompleted"}
	additionalDataKeys = []string{"additional_data", "additionalData"}
)

// Normalize maps an arbitrary backend payload onto NormalizedResponse.
// It is total: payloads that are not JSON objects yield the defaults.
func Normalize(payload []byte, d Defaults) NormalizedResponse {
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		doc = gjson.Result{}
	}

	resp := NormalizedResponse{
		Status:         StatusOK,
		Message:        d.Message,
		NextPhase:      d.NextPhase,
		AdditionalData: map[string]any{},
	}
	if v, ok := lookupString(doc, statusKeys); ok {
		resp.Status = strings.ToUpper(v)
	}
	if v, ok := lookupString(doc, messageKeys); ok {
		resp.Message = v
	}
	if v, ok := lookupString(doc, phaseKeys); ok {
		resp.NextPhase = Phase(v)
	}
	if v, ok := lookupString(doc, reportURLKeys); ok {
		resp.ReportURL = v
	}
	if v, ok := lookupString(doc, easterEggURLKeys); ok {
		resp.EasterEggURL = v
	}
	if v, ok := lookupCount(doc, scoreKeys); ok {
		resp.Score = v
	}
	if v, ok := lookupCount(doc, completedTasksKeys); ok {
		resp.CompletedTasks = v
	}
	if v, ok := lookupString(doc, taskNameKeys); ok {
		resp.TaskName = v
	}
	if v, ok := lookupBool(doc, taskCompletedKeys); ok {
		resp.TaskCompleted = v
	}
	if v, ok := lookupObject(doc, additionalDataKeys); ok {
		resp.AdditionalData = v
	}
	return resp
}

func lookup(doc gjson.Result, keys []string, want func(gjson.Result) bool) (gjson.Result, bool) {
	if !doc.Exists() {
		return gjson.Result{}, false
	}
	for _, key := range keys {
		v := doc.Get(gjson.Escape(key))
		if v.Exists() && want(v) {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func lookupString(doc gjson.Result, keys []string) (string, bool) {
	v, ok := lookup(doc, keys, func(v gjson.Result) bool {
		return v.Type == gjson.String && strings.TrimSpace(v.Str) != ""
	})
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v.Str), true
}

// lookupCount accepts non-negative integral numbers only.
func lookupCount(doc gjson.Result, keys []string) (int, bool) {
	v, ok := lookup(doc, keys, func(v gjson.Result) bool {
		return v.Type == gjson.Number && v.Num >= 0 && v.Num == float64(int64(v.Num))
	})
	if !ok {
		return 0, false
	}
	return int(v.Int()), true
}

func lookupBool(doc gjson.Result, keys []string) (bool, bool) {
	v, ok := lookup(doc, keys, func(v gjson.Result) bool {
		return v.IsBool()
	})
	if !ok {
		return false, false
	}
	return v.Bool(), true
}

func lookupObject(doc gjson.Result, keys []string) (map[string]any, bool) {
	v, ok := lookup(doc, keys, func(v gjson.Result) bool {
		return v.IsObject()
	})
	if !ok {
		return nil, false
	}
	m, ok := v.Value().(map[string]any)
	return m, ok
}
