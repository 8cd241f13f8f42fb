package conversation

import "time"

// Stage enumerates where a sender is in the conversation lifecycle.
type Stage string

const (
	StageAwaitingConsent Stage = "awaiting_consent"
	StageOnboardingName  Stage = "onboarding_name"
	StageOnboardingAge   Stage = "onboarding_age"
	StageOnboardingCity  Stage = "onboarding_city"
	StageMenu            Stage = "menu"
	StageActiveTask      Stage = "active_task"
)

// onboardingOrder is the fixed field sequence collected one per turn.
var onboardingOrder = []Stage{StageOnboardingName, StageOnboardingAge, StageOnboardingCity}

// State is the per-sender conversation record. It is created lazily on
// first contact and only ever reset, never deleted, by user commands.
// Writes are last-writer-wins: the platform delivers a given user's
// messages in order, and the idempotency ledger guards redelivery.
type State struct {
	SenderID  string
	Consented bool
	Stage     Stage
	// Profile holds onboarding answers (name, age, city).
	Profile map[string]string
	// TaskFields holds structured intake answers while Stage is
	// StageActiveTask, keyed by intake field name.
	TaskFields map[string]string
	UpdatedAt  time.Time
}

// NewState returns the initial state for a first-contact sender.
func NewState(senderID string) *State {
	return &State{
		SenderID:   senderID,
		Stage:      StageAwaitingConsent,
		Profile:    make(map[string]string),
		TaskFields: make(map[string]string),
	}
}

// Reset clears collected fields and returns to the consent gate. The
// opt-out flag lives in the opt-out registry and is deliberately not
// touched here.
func (s *State) Reset() {
	s.Consented = false
	s.Stage = StageAwaitingConsent
	s.Profile = make(map[string]string)
	s.TaskFields = make(map[string]string)
}

// InActiveFlow reports whether the sender is mid-way through a
// structured flow where bare answers ("Mumbai", "45") are expected and
// the domain gate must not fire.
func (s *State) InActiveFlow() bool {
	switch s.Stage {
	case StageOnboardingName, StageOnboardingAge, StageOnboardingCity, StageActiveTask:
		return true
	}
	return false
}

func profileField(stage Stage) string {
	switch stage {
	case StageOnboardingName:
		return "name"
	case StageOnboardingAge:
		return "age"
	case StageOnboardingCity:
		return "city"
	}
	return ""
}

func nextOnboardingStage(current Stage) (Stage, bool) {
	for i, stage := range onboardingOrder {
		if stage == current {
			if i+1 < len(onboardingOrder) {
				return onboardingOrder[i+1], false
			}
			return StageMenu, true
		}
	}
	return StageMenu, true
}
