package interaction

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kazz187/npcgate/internal/gateway"
)

const wrapWidth = 55

const (
	msgPleaseWait       = "Please wait, I am still processing your request..."
	msgUnavailable      = "Sorry, I cannot connect to the server right now!"
	msgNetworkError     = "Network error occurred. Please check your connection."
	msgSomethingWrong   = "Something went wrong. Please try again."
	msgGradingCompleted = "✅ Grading completed!"
	msgCongratulations  = "🎉 Congratulations! Task completed! 🎉"
	msgNextChallenge    = "Talk to me again for your next challenge!"
	msgFixAndRetry      = "Please fix the issues and talk to me again."
	msgComeBack         = "Complete this task and come back to me for grading!"
	msgAllCompleted     = "🏆 You are an Azure master! Well done! 🏆"
)

// Output is what the presentation layer shows for one interaction: message
// lines in order and at most one URL to open. Clear asks the presenter to
// drop anything still queued before showing Lines.
type Output struct {
	Clear   bool
	Lines   []string
	OpenURL string
}

func (o *Output) add(lines ...string) {
	o.Lines = append(o.Lines, lines...)
}

func (o *Output) addWrapped(text string) {
	o.Lines = append(o.Lines, wrapText(text, wrapWidth)...)
}

func (o *Output) addProgress(resp *gateway.NormalizedResponse) {
	o.add(
		fmt.Sprintf("Current Score: %d", resp.Score),
		fmt.Sprintf("Completed Tasks: %d", resp.CompletedTasks),
	)
}

// Render turns a normalized response into presentation output. grading
// reports whether the response answers a grading call.
func Render(resp *gateway.NormalizedResponse, grading bool) Output {
	var out Output

	if resp.Status != gateway.StatusOK {
		out.Clear = true
		msg := resp.Message
		if msg == "" {
			msg = msgSomethingWrong
		}
		out.addWrapped(msg)
		out.addProgress(resp)
		return out
	}

	data := resp.AdditionalData
	switch resp.NextPhase {
	case gateway.PhaseBusyWithOtherNPC:
		out.addWrapped(resp.Message)
		if npc := stringValue(data, "activeTaskNPC"); npc != "" {
			out.add(fmt.Sprintf("Active task: \"%s\" with %s", stringValue(data, "activeTaskName"), npc))
		}
		return out
	case gateway.PhaseWrongNPC:
		out.addWrapped(resp.Message)
		return out
	case gateway.PhaseEncourageVariety:
		out.addWrapped(resp.Message)
		if s := stringValue(data, "suggestion"); s != "" {
			out.add(s)
		}
		return out
	case gateway.PhaseNPCCooldown:
		out.addWrapped(resp.Message)
		if v, ok := data["cooldownMinutes"]; ok && v != nil {
			out.add(fmt.Sprintf("⏰ Wait %s more minutes", formatValue(v)))
		}
		return out
	}

	if grading {
		out.add(msgGradingCompleted)
	}
	if resp.Message != "" {
		out.addWrapped(resp.Message)
	}
	out.OpenURL = resp.EasterEggURL
	out.addProgress(resp)

	if resp.TaskCompleted {
		out.add(msgCongratulations, msgNextChallenge)
	}

	if truthy(data["testResults"]) {
		passed, total := intValue(data, "passedTests"), intValue(data, "totalTests")
		out.add(fmt.Sprintf("Test Results: %d/%d tests passed", passed, total))
		if passed < total {
			out.add(msgFixAndRetry)
		}
	}

	switch {
	case resp.NextPhase == gateway.PhaseTaskAssigned && !grading:
		out.add(msgComeBack)
	case resp.NextPhase == gateway.PhaseAllCompleted:
		out.add(msgAllCompleted)
	}
	return out
}

// wrapText breaks text on spaces so no line exceeds width, except single
// words that are longer than width.
func wrapText(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current strings.Builder
		n := 0
		for _, word := range strings.Fields(paragraph) {
			w := utf8.RuneCountInString(word)
			switch {
			case n == 0:
				current.WriteString(word)
				n = w
			case n+1+w <= width:
				current.WriteByte(' ')
				current.WriteString(word)
				n += 1 + w
			default:
				lines = append(lines, current.String())
				current.Reset()
				current.WriteString(word)
				n = w
			}
		}
		if current.Len() > 0 {
			lines = append(lines, current.String())
		}
	}
	return lines
}

func stringValue(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return formatValue(v)
}

func intValue(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// truthy follows the loose truthiness the backend relies on for flags.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}
