package conversation

import (
	"strings"

	"github.com/byoncocare/oncobot/internal/safety"
	"github.com/byoncocare/oncobot/internal/whatsapp"
)

// Action tells the caller what to do after a transition besides sending
// the fixed replies.
type Action int

const (
	// ActionNone means the replies are the whole response.
	ActionNone Action = iota
	// ActionAskAI means the caller should answer Prompt with the AI
	// provider and send that answer.
	ActionAskAI
)

// Input is one inbound message, already classified, as seen by the
// state machine. ExtractedText carries attachment text when the caller
// extracted one successfully; extraction failures never reach here.
type Input struct {
	Text          string
	Kind          whatsapp.MessageKind
	ExtractedText string
	Safety        safety.Result
}

// Outcome is the result of a transition. State mutation happens on the
// *State the caller passed in; persisting it is the caller's job.
type Outcome struct {
	Replies []string
	Action  Action
	Prompt  string
}

func reply(texts ...string) Outcome {
	return Outcome{Replies: texts}
}

func askAI(prompt string) Outcome {
	return Outcome{Action: ActionAskAI, Prompt: prompt}
}

// Transition advances state for one inbound message and returns what to
// send. It is pure apart from mutating state: no I/O, no clock, so the
// whole conversation flow is table-testable.
func Transition(state *State, in Input) Outcome {
	text := strings.TrimSpace(in.Text)
	lower := strings.ToLower(text)

	// The emergency gate outranks every stage, consent included.
	if in.Safety.Verdict == safety.VerdictEmergency {
		return reply(safety.EmergencyResponse)
	}

	if in.Kind == whatsapp.KindVideo {
		return reply(UnsupportedMediaReply)
	}

	if state.Stage == StageAwaitingConsent {
		if strings.EqualFold(text, "agree") {
			state.Consented = true
			state.Stage = StageOnboardingName
			return reply(onboardingPrompts[StageOnboardingName])
		}
		return reply(Disclaimer)
	}

	// Successful attachment extraction goes straight to the AI as a
	// report-explanation request, whatever stage the sender is in.
	if in.ExtractedText != "" {
		return askAI("Please explain this medical report to a patient in simple, non-alarming language. Highlight anything the treating doctor should be asked about.\n\nReport text:\n" + in.ExtractedText)
	}

	switch state.Stage {
	case StageOnboardingName, StageOnboardingAge, StageOnboardingCity:
		return transitionOnboarding(state, text, in.Safety)
	case StageActiveTask:
		return transitionIntake(state, text, lower, in.Safety)
	default:
		return transitionMenu(state, text, lower, in.Safety)
	}
}

func transitionOnboarding(state *State, text string, verdict safety.Result) Outcome {
	// Dosage and stop-treatment requests are refused in every stage;
	// mid-flow they must not be recorded as a field answer either.
	if verdict.Verdict == safety.VerdictRisky {
		return reply(safety.RiskyContentResponse)
	}
	if text == "" {
		return reply(onboardingPrompts[state.Stage])
	}
	state.Profile[profileField(state.Stage)] = text
	next, done := nextOnboardingStage(state.Stage)
	state.Stage = next
	if done {
		name := state.Profile["name"]
		return reply("Thank you, "+name+"! You are all set.\n\n"+MenuText)
	}
	return reply(onboardingPrompts[next])
}

func transitionIntake(state *State, text, lower string, verdict safety.Result) Outcome {
	if verdict.Verdict == safety.VerdictRisky {
		return reply(safety.RiskyContentResponse)
	}
	if strings.Contains(lower, "coordinator") {
		state.Stage = StageMenu
		state.TaskFields = make(map[string]string)
		return reply(CoordinatorReply)
	}
	if text == "" {
		return reply(IntakeQuestion(state.TaskFields))
	}
	if done := recordIntakeAnswer(state.TaskFields, text); done {
		recs := BuildRecommendations(state.TaskFields)
		state.Stage = StageMenu
		state.TaskFields = make(map[string]string)
		return reply(recs)
	}
	return reply(IntakeQuestion(state.TaskFields))
}

func transitionMenu(state *State, text, lower string, verdict safety.Result) Outcome {
	switch {
	case lower == "menu":
		return reply(MenuText)
	case strings.Contains(lower, "coordinator"):
		return reply(CoordinatorReply)
	case lower == "1" || lower == "report" || lower == "reports":
		return reply(ReportPrompt)
	case lower == "2":
		return reply(SideEffectsPrompt)
	case lower == "3":
		return reply(NutritionPrompt)
	case lower == "4":
		return reply(CostsPrompt)
	case lower == "5" || strings.Contains(lower, "find care"):
		state.Stage = StageActiveTask
		state.TaskFields = make(map[string]string)
		return reply(IntakeQuestion(state.TaskFields))
	}

	switch verdict.Verdict {
	case safety.VerdictRisky:
		return reply(safety.RiskyContentResponse)
	case safety.VerdictOffTopic:
		return reply(safety.OffTopicResponse)
	}
	return askAI(text)
}
