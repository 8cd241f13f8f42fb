package conversation

import (
	"fmt"
	"strings"
)

// Guided find-care intake: one structured question per turn, answers
// accumulated in State.TaskFields, then a rule-based shortlist.

type intakeField struct {
	Name     string
	Question string
}

var intakeFields = []intakeField{
	{"cancer_type", "Let me ask a few questions so I can point you to the right options.\nWhat type of cancer is it? (e.g. breast, lung, blood, mouth; type \"not sure\" if unknown)"},
	{"cancer_stage", "What stage has the doctor mentioned? (1-4, or \"not sure\")"},
	{"city", "Which city are you in, and how far can you travel for treatment? (e.g. \"Nagpur, up to 200 km\")"},
	{"budget", "Roughly what budget can the family manage for treatment? (e.g. \"under 2 lakh\", \"2-10 lakh\", \"above 10 lakh\", or \"need free/government options\")"},
	{"urgency", "How urgent is this? (e.g. \"already diagnosed, starting treatment\", \"waiting for reports\", \"second opinion\")"},
	{"need", "And what do you need most right now? (e.g. \"find a hospital\", \"cost estimate\", \"second opinion\", \"financial help\")"},
}

func intakeFieldIndex(fields map[string]string) int {
	for i, f := range intakeFields {
		if _, ok := fields[f.Name]; !ok {
			return i
		}
	}
	return len(intakeFields)
}

// IntakeQuestion returns the next unanswered intake question, or ""
// when the flow is complete.
func IntakeQuestion(fields map[string]string) string {
	i := intakeFieldIndex(fields)
	if i >= len(intakeFields) {
		return ""
	}
	return intakeFields[i].Question
}

// recordIntakeAnswer stores the reply against the current field and
// reports whether the intake is now complete.
func recordIntakeAnswer(fields map[string]string, answer string) bool {
	i := intakeFieldIndex(fields)
	if i < len(intakeFields) {
		fields[intakeFields[i].Name] = strings.TrimSpace(answer)
	}
	return intakeFieldIndex(fields) >= len(intakeFields)
}

// budgetTier buckets the free-text budget answer.
func budgetTier(budget string) string {
	b := strings.ToLower(budget)
	switch {
	case strings.Contains(b, "free") || strings.Contains(b, "government") || strings.Contains(b, "sarkari") || strings.Contains(b, "ayushman"):
		return "government"
	case strings.Contains(b, "under") || strings.Contains(b, "below") || strings.Contains(b, "less"):
		return "low"
	case strings.Contains(b, "above") || strings.Contains(b, "more than") || strings.Contains(b, "10"):
		return "high"
	default:
		return "mid"
	}
}

// BuildRecommendations composes the 3-5 item shortlist from completed
// intake fields. Every shortlist ends with the human-coordinator offer.
func BuildRecommendations(fields map[string]string) string {
	city := fields["city"]
	if city == "" {
		city = "your city"
	}
	cancerType := fields["cancer_type"]
	if cancerType == "" || strings.Contains(strings.ToLower(cancerType), "not sure") {
		cancerType = "cancer"
	}

	var recs []string
	switch budgetTier(fields["budget"]) {
	case "government":
		recs = append(recs,
			"Check eligibility for the Ayushman Bharat (PM-JAY) scheme, which covers cancer treatment at empanelled hospitals at no cost.",
			fmt.Sprintf("Ask at the nearest government medical college or district hospital near %s for an oncology referral; government regional cancer centres treat %s at subsidised rates.", city, cancerType),
			"Tata Memorial Hospital (Mumbai) and its regional network treat a large number of patients in the general (subsidised) category.",
		)
	case "low":
		recs = append(recs,
			fmt.Sprintf("Look at government regional cancer centres and trust-run hospitals near %s, where %s treatment is significantly cheaper than private hospitals.", city, cancerType),
			"Check whether the family qualifies for PM-JAY or a state health scheme; many private hospitals are empanelled.",
			"NGOs such as the Indian Cancer Society and CanKids run patient-assistance funds that can cover part of the cost.",
		)
	case "high":
		recs = append(recs,
			fmt.Sprintf("Large private oncology centres near %s (for example Apollo, Fortis, HCG, or Max) offer full %s care with short waiting times; ask for a written cost estimate before admission.", city, cancerType),
			"A second opinion from a tertiary centre such as Tata Memorial is worthwhile before finalising an expensive treatment plan.",
		)
	default:
		recs = append(recs,
			fmt.Sprintf("Mid-range private and trust hospitals near %s usually offer %s treatment packages; always ask for an itemised estimate and compare two hospitals.", city, cancerType),
			"Check insurance and employer health cover first, and whether the hospital is empanelled under any scheme the family holds.",
			"Government regional cancer centres remain an option if costs run higher than expected.",
		)
	}

	if strings.Contains(strings.ToLower(fields["need"]), "second opinion") {
		recs = append(recs, "For a second opinion, carry all reports, scans, and biopsy slides; many large centres also offer paid online second-opinion services.")
	}
	if strings.Contains(strings.ToLower(fields["urgency"]), "waiting") {
		recs = append(recs, "While waiting for reports, avoid starting any treatment or alternative medicine; use the time to organise documents and check scheme eligibility.")
	}
	if len(recs) > 5 {
		recs = recs[:5]
	}

	var b strings.Builder
	b.WriteString("Based on what you shared, here are some options:\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\nIf you would like, reply COORDINATOR and a member of our team will call you to help with the next steps. I am not a doctor; please confirm everything with a treating oncologist.")
	return b.String()
}
