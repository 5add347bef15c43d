package interaction

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/kazz187/npcgate/internal/gateway"
)

func TestWrapText(t *testing.T) {
	text := "Deploy a virtual machine in the East US region using the smallest size and tag it with your student id."
	lines := wrapText(text, wrapWidth)
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, utf8.RuneCountInString(l), wrapWidth, l)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))

	long := strings.Repeat("x", 70)
	assert.Equal(t, []string{"short", long, "tail"}, wrapText("short "+long+" tail", wrapWidth))
	assert.Nil(t, wrapText("", wrapWidth))
	assert.Equal(t, []string{"a", "b"}, wrapText("a\nb", wrapWidth))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		resp    gateway.NormalizedResponse
		grading bool
		want    Output
	}{
		{
			name: "error status",
			resp: gateway.NormalizedResponse{Status: gateway.StatusError, Message: "Unknown NPC", Score: 3, CompletedTasks: 1},
			want: Output{Clear: true, Lines: []string{"Unknown NPC", "Current Score: 3", "Completed Tasks: 1"}},
		},
		{
			name: "error status without message",
			resp: gateway.NormalizedResponse{Status: gateway.StatusError},
			want: Output{Clear: true, Lines: []string{"Something went wrong. Please try again.", "Current Score: 0", "Completed Tasks: 0"}},
		},
		{
			name: "busy with other npc",
			resp: gateway.NormalizedResponse{
				Status:         gateway.StatusOK,
				Message:        "You are busy.",
				NextPhase:      gateway.PhaseBusyWithOtherNPC,
				AdditionalData: map[string]any{"activeTaskName": "Deploy a VM", "activeTaskNPC": "Bob"},
			},
			want: Output{Lines: []string{"You are busy.", `Active task: "Deploy a VM" with Bob`}},
		},
		{
			name: "wrong npc",
			resp: gateway.NormalizedResponse{Status: gateway.StatusOK, Message: "Not me.", NextPhase: gateway.PhaseWrongNPC, Score: 9},
			want: Output{Lines: []string{"Not me."}},
		},
		{
			name: "encourage variety",
			resp: gateway.NormalizedResponse{
				Status:         gateway.StatusOK,
				Message:        "Try someone else.",
				NextPhase:      gateway.PhaseEncourageVariety,
				AdditionalData: map[string]any{"suggestion": "Visit Carol"},
			},
			want: Output{Lines: []string{"Try someone else.", "Visit Carol"}},
		},
		{
			name: "task assigned",
			resp: gateway.NormalizedResponse{
				Status:       gateway.StatusOK,
				Message:      "Deploy a VM",
				NextPhase:    gateway.PhaseTaskAssigned,
				EasterEggURL: "https://example.com/egg",
				Score:        10,
			},
			want: Output{
				Lines:   []string{"Deploy a VM", "Current Score: 10", "Completed Tasks: 0", "Complete this task and come back to me for grading!"},
				OpenURL: "https://example.com/egg",
			},
		},
		{
			name: "grading with failing tests",
			resp: gateway.NormalizedResponse{
				Status:         gateway.StatusOK,
				Message:        "Not quite.",
				NextPhase:      gateway.PhaseTaskAssigned,
				AdditionalData: map[string]any{"testResults": []any{"a"}, "passedTests": float64(2), "totalTests": float64(5)},
			},
			grading: true,
			want: Output{Lines: []string{
				"✅ Grading completed!", "Not quite.", "Current Score: 0", "Completed Tasks: 0",
				"Test Results: 2/5 tests passed", "Please fix the issues and talk to me again.",
			}},
		},
		{
			name: "grading completed everything",
			resp: gateway.NormalizedResponse{
				Status:         gateway.StatusOK,
				NextPhase:      gateway.PhaseAllCompleted,
				TaskCompleted:  true,
				Score:          100,
				CompletedTasks: 10,
				EasterEggURL:   "https://example.com/egg",
			},
			grading: true,
			want: Output{
				Lines: []string{
					"✅ Grading completed!", "Current Score: 100", "Completed Tasks: 10",
					"🎉 Congratulations! Task completed! 🎉", "Talk to me again for your next challenge!",
					"🏆 You are an Azure master! Well done! 🏆",
				},
				OpenURL: "https://example.com/egg",
			},
		},
		{
			name: "unknown phase renders defaults",
			resp: gateway.NormalizedResponse{Status: gateway.StatusOK, Message: "Hi", NextPhase: "SOMETHING_NEW"},
			want: Output{Lines: []string{"Hi", "Current Score: 0", "Completed Tasks: 0"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(&tt.resp, tt.grading))
		})
	}
}

func TestRenderCooldownMinutes(t *testing.T) {
	resp := gateway.NormalizedResponse{
		Status:         gateway.StatusOK,
		Message:        "Take a rest.",
		NextPhase:      gateway.PhaseNPCCooldown,
		AdditionalData: map[string]any{"cooldownMinutes": float64(5)},
	}
	out := Render(&resp, false)
	assert.Equal(t, []string{"Take a rest.", "⏰ Wait 5 more minutes"}, out.Lines)
	assert.Empty(t, out.OpenURL)
}
