package safety

import (
	"regexp"
	"strings"
)

// Verdict is the gating outcome for one message.
type Verdict int

const (
	// VerdictOK lets the message proceed to the state machine.
	VerdictOK Verdict = iota
	// VerdictEmergency short-circuits everything with the fixed urgent-care reply.
	VerdictEmergency
	// VerdictRisky refuses dosage/treatment-change requests.
	VerdictRisky
	// VerdictOffTopic refuses messages outside the oncology domain.
	VerdictOffTopic
)

func (v Verdict) String() string {
	switch v {
	case VerdictEmergency:
		return "emergency"
	case VerdictRisky:
		return "risky"
	case VerdictOffTopic:
		return "off_topic"
	default:
		return "ok"
	}
}

// IntentTags are independent boolean flags computed per message. They
// shape responses downstream but never gate them.
type IntentTags struct {
	Emergency         bool
	RecurrenceAnxiety bool
	HospitalAccess    bool
	CostQuery         bool
	TreatmentInfo     bool
	NutritionSupport  bool
	EmotionalSupport  bool
}

// Active returns the names of the set tags, for transcripts and logs.
func (t IntentTags) Active() []string {
	var names []string
	for _, entry := range []struct {
		set  bool
		name string
	}{
		{t.Emergency, string(CategoryEmergency)},
		{t.RecurrenceAnxiety, string(CategoryRecurrence)},
		{t.HospitalAccess, string(CategoryHospitalAccess)},
		{t.CostQuery, string(CategoryCost)},
		{t.TreatmentInfo, string(CategoryTreatment)},
		{t.NutritionSupport, string(CategoryNutrition)},
		{t.EmotionalSupport, string(CategoryEmotional)},
	} {
		if entry.set {
			names = append(names, entry.name)
		}
	}
	return names
}

// Result is the full classification of one message.
type Result struct {
	Verdict Verdict
	// Reply carries the fixed response for gated verdicts, empty for VerdictOK.
	Reply   string
	Intents IntentTags
}

// Classifier evaluates the ordered rule tables over normalized text.
// It is stateless and safe for concurrent use.
type Classifier struct {
	emergency []Rule
	risky     []Rule
	domain    []Rule
	intents   []Rule
}

// NewClassifier returns a classifier backed by the built-in rule tables.
func NewClassifier() *Classifier {
	return &Classifier{
		emergency: emergencyRules,
		risky:     riskyRules,
		domain:    domainRules,
		intents:   intentRules,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize lower-cases and collapses whitespace so keyword rules match
// uniformly across scripts.
func Normalize(text string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// Classify runs the three ordered gates (emergency → risky → domain)
// and then tags intents. inActiveFlow suppresses the domain gate for
// continuations of a structured intake flow, where single-word answers
// like "Mumbai" are expected.
func (c *Classifier) Classify(text string, inActiveFlow bool) Result {
	normalized := Normalize(text)
	intents := c.tagIntents(normalized)

	if matchAny(c.emergency, normalized) {
		intents.Emergency = true
		return Result{Verdict: VerdictEmergency, Reply: EmergencyResponse, Intents: intents}
	}
	if matchAny(c.risky, normalized) {
		return Result{Verdict: VerdictRisky, Reply: RiskyContentResponse, Intents: intents}
	}
	if !inActiveFlow && !c.isOnTopic(normalized) {
		return Result{Verdict: VerdictOffTopic, Reply: OffTopicResponse, Intents: intents}
	}
	return Result{Verdict: VerdictOK, Intents: intents}
}

// isOnTopic is the hard allow-list gate. Very short messages carry no
// signal and fail closed.
func (c *Classifier) isOnTopic(normalized string) bool {
	if len(normalized) < 3 {
		return false
	}
	return matchAny(c.domain, normalized)
}

func (c *Classifier) tagIntents(normalized string) IntentTags {
	var tags IntentTags
	for _, rule := range c.intents {
		if !matchRule(rule, normalized) {
			continue
		}
		switch rule.Category {
		case CategoryRecurrence:
			tags.RecurrenceAnxiety = true
		case CategoryHospitalAccess:
			tags.HospitalAccess = true
		case CategoryCost:
			tags.CostQuery = true
		case CategoryTreatment:
			tags.TreatmentInfo = true
		case CategoryNutrition:
			tags.NutritionSupport = true
		case CategoryEmotional:
			tags.EmotionalSupport = true
		}
	}
	return tags
}

func matchAny(rules []Rule, normalized string) bool {
	for _, rule := range rules {
		if matchRule(rule, normalized) {
			return true
		}
	}
	return false
}

func matchRule(rule Rule, normalized string) bool {
	if rule.Pattern != nil {
		return rule.Pattern.MatchString(normalized)
	}
	return rule.Keyword != "" && strings.Contains(normalized, rule.Keyword)
}
