package safety

import "regexp"

// Category buckets a rule. Emergency rules live in a strictly
// higher-priority table evaluated before everything else.
type Category string

const (
	CategoryEmergency Category = "emergency"
	CategoryRisky     Category = "risky"
	CategoryDomain    Category = "domain"

	CategoryRecurrence     Category = "recurrence_anxiety"
	CategoryHospitalAccess Category = "hospital_access"
	CategoryCost           Category = "cost_query"
	CategoryTreatment      Category = "treatment_info"
	CategoryNutrition      Category = "nutrition_support"
	CategoryEmotional      Category = "emotional_support"
)

// Language tags a rule for the script/language it covers.
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
	LangMarathi Language = "mr"
)

// Rule is one (category, pattern, language) entry. Keyword rules match
// as substrings over normalized text; Pattern rules are regexes for the
// few cases substring matching cannot express (typo variants, fever
// readings, dosage phrasing).
type Rule struct {
	Category Category
	Language Language
	Keyword  string
	Pattern  *regexp.Regexp
}

func kw(cat Category, lang Language, words ...string) []Rule {
	rules := make([]Rule, 0, len(words))
	for _, w := range words {
		rules = append(rules, Rule{Category: cat, Language: lang, Keyword: w})
	}
	return rules
}

func rx(cat Category, lang Language, patterns ...string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{Category: cat, Language: lang, Pattern: regexp.MustCompile(p)})
	}
	return rules
}

func flatten(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// emergencyRules is the highest-priority bucket: any match short-circuits
// all further processing including the AI call.
var emergencyRules = flatten(
	kw(CategoryEmergency, LangEnglish,
		"emergency", "urgent", "immediate", "right now",
		"can't breathe", "can't breath", "breathlessness", "shortness of breath",
		"chest pain", "heart attack", "heart pain",
		"heavy bleeding", "bleeding heavily", "uncontrolled bleeding",
		"fainting", "fainted", "passed out", "unconscious",
		"seizure", "convulsion", "fitting",
		"high fever", "neutropenic fever", "febrile neutropenia",
		"suicide", "suicidal", "kill myself", "end my life", "self harm", "self-harm",
		"severe pain", "extreme pain", "unbearable pain",
		"allergic reaction", "anaphylaxis", "difficulty swallowing",
	),
	kw(CategoryEmergency, LangHindi,
		"bahut dard", "बहुत दर्द", "saans nahi aa rahi", "सांस नहीं आ रही",
		"bleeding ho raha", "खून बह रहा", "ज्यादा बुखार",
		"chest mein dard", "छाती में दर्द",
	),
	kw(CategoryEmergency, LangMarathi,
		"khup dukh", "खूप दुखतं", "श्वास घ्यायला त्रास", "saans ghyayla tras",
		"रक्तस्राव", "खूप ताप", "जबरदस्त दुख",
	),
	rx(CategoryEmergency, LangEnglish,
		`fever\s*(of\s*)?(10[2-4]|38|39|40)`,
		`temperature\s*(of\s*)?(10[2-4]|38|39|40)`,
	),
	rx(CategoryEmergency, LangHindi,
		`bukhar\s*(10[2-4]|38|39|40|ज्यादा)`,
		`ताप\s*(10[2-4]|ज्यादा|खूप)`,
	),
)

// riskyRules catches requests that must be refused regardless of domain
// relevance: dosage advice, stopping prescribed treatment, replacing
// medical care with unproven alternatives.
var riskyRules = rx(CategoryRisky, LangEnglish,
	`tell me (the )?dosage`,
	`how much (should i take|to take|medicine)`,
	`(should|can) i stop (chemo|treatment|medication|medicine)`,
	`replace with (ayurveda|homeopathy|alternative)`,
	`only (ayurveda|homeopathy|alternative)`,
	`ignore (doctor|oncologist|medical advice)`,
	`don'?t need (doctor|oncologist|treatment)`,
	`alternative (cure|treatment) only`,
	`natural cure (only|instead)`,
)

// domainRules is the hard allow-list gate: a message with no match (and
// no active structured flow) is refused before any AI call.
var domainRules = flatten(
	kw(CategoryDomain, LangEnglish,
		"cancer", "carcinoma", "sarcoma", "lymphoma", "leukemia", "melanoma",
		"tumor", "tumour", "malignancy", "malignant", "benign", "neoplasm",
		"chemotherapy", "chemo", "radiation", "radiotherapy", "surgery", "surgical",
		"immunotherapy", "targeted therapy", "hormone therapy", "stem cell",
		"oncology", "oncologist", "cancer care", "cancer treatment",
		"biopsy", "pathology", "histology", "diagnosis", "stage", "staging",
		"metastasis", "metastatic", "recurrence", "remission",
		"ct scan", "mri", "pet scan", "pet ct", "ultrasound", "x-ray",
		"side effect", "symptom", "nausea", "fatigue", "hair loss",
		"neutropenia", "thrombocytopenia", "anemia",
		"medical report", "test result", "lab report", "pathology report",
		"report", "scan", "lab",
		"nutrition", "diet", "hospital", "cancer center",
		"treatment cost", "medical cost",
		"ki67", "ki-67", "her2", "her-2", "er/pr", "pdl1", "pd-l1",
		"egfr", "alk", "ros1", "braf", "ntrk", "brca", "brca1", "brca2",
		"microsatellite", "msi", "tmb",
		"tnm", "grade", "grading", "gleason", "figo", "ann arbor",
		"cea", "ca-125", "ca125", "ca19-9", "afp", "psa", "beta hcg",
		"ihc", "immunohistochemistry", "histopath", "histopathology",
		"cytology", "biomarker", "mutation", "amplification", "expression",
		"spread", "spreading", "last stage", "final stage", "early stage",
		"how bad", "how serious", "survival chance", "can it be cured",
		"life expectancy",
	),
	kw(CategoryDomain, LangHindi,
		"kancer", "कैंसर", "ganth", "गांठ", "sujan", "सूजन",
		"fail gaya", "फैल गया", "phail gaya", "aakhri stage", "आख़िरी स्टेज",
		"dawai", "दवाई", "कीमो", "रेडिएशन", "ऑपरेशन", "इलाज",
		"रिपोर्ट", "स्कैन", "बायोप्सी",
		"bukhar", "बुखार",
		"kharcha", "खर्च", "kitna paisa", "kitna cost", "aspatal", "अस्पताल",
		"डॉक्टर", "doctor ne bola", "डॉक्टर ने बोला",
		"wapas aaya", "वापस आया", "phir se cancer", "dubara cancer",
		"admit", "bharti", "भरती", "icu",
		"piliya", "पीलिया", "paani bhar gaya", "ascites",
		"kuch khaya nahi", "kha nahi pa raha", "kamjori", "कमजोरी",
		"ghabrahat", "घबराहट", "कोई उपाय है क्या", "madat kara",
	),
	kw(CategoryDomain, LangMarathi,
		"कॅन्सर", "गाठ", "सूज",
		"pasarla", "पसरला", "शेवटचा स्टेज",
		"upchar", "उपचार", "औषध", "ऑपरेशन करायचं आहे", "गाठ काढायची आहे",
		"स्कॅन", "बायोप्सी", "ताप", "कावीळ",
		"दवाखाना", "डॉक्टर म्हणाले",
		"parat aala", "परत आला",
		"खायला जमत नाही", "भीती", "bhiti", "काही उपाय आहे का", "मदत करा",
	),
	// Narrow typo tolerance for a handful of high-traffic terms. This is
	// deliberately not a fuzzy matcher.
	rx(CategoryDomain, LangEnglish,
		`che+mo+|kemotherapy`,
		`c[ae]ncer|kancer`,
		`pet[- ]?ct|pet\s+scan`,
		`radia+tion+`,
	),
)

// intentRules tag independent, non-exclusive intents used to shape
// responses; they never gate.
var intentRules = flatten(
	kw(CategoryRecurrence, LangEnglish, "recurrence", "recurred", "came back"),
	kw(CategoryRecurrence, LangHindi, "wapas aaya", "वापस आया", "phir se cancer", "dubara cancer"),
	kw(CategoryRecurrence, LangMarathi, "parat aala", "परत आला"),

	kw(CategoryHospitalAccess, LangEnglish, "admit", "admission", "icu", "bed available", "hospital admission"),
	kw(CategoryHospitalAccess, LangHindi, "bharti", "भरती", "bed nahi mil raha", "bed chahiye", "aspatal", "अस्पताल"),

	kw(CategoryCost, LangEnglish, "cost", "price", "estimate", "bill", "expense", "insurance", "free treatment", "government scheme"),
	kw(CategoryCost, LangHindi, "kitna paisa", "kitna cost", "kharcha", "खर्च", "अंदाज", "बिल", "मोफत इलाज", "सरकारी योजना", "ayushman", "आयुष्मान", "इन्शुरन्स"),
	kw(CategoryCost, LangMarathi, "पॅकेज"),

	kw(CategoryTreatment, LangEnglish, "chemotherapy", "chemo", "radiation", "radiotherapy", "surgery", "operation", "treatment", "doctor", "stage", "staging"),
	kw(CategoryTreatment, LangHindi, "कीमो", "रेडिएशन", "ऑपरेशन", "इलाज", "doctor ne bola", "डॉक्टर ने बोला", "tumor nikalna"),
	kw(CategoryTreatment, LangMarathi, "upchar", "उपचार", "ऑपरेशन करायचं आहे", "गाठ काढायची आहे"),

	kw(CategoryNutrition, LangEnglish, "nutrition", "diet", "food", "eating", "meal", "weakness", "weak"),
	kw(CategoryNutrition, LangHindi, "khana", "खाना", "kuch khaya nahi", "kha nahi pa raha", "kamjori", "कमजोरी", "kamzor"),
	kw(CategoryNutrition, LangMarathi, "खायला जमत नाही"),

	kw(CategoryEmotional, LangEnglish, "worried", "scared", "afraid", "anxious", "nervous", "please help", "support", "guidance"),
	kw(CategoryEmotional, LangHindi, "ghabrahat", "घबराहट", "कोई उपाय है क्या", "help kara", "madat kara"),
	kw(CategoryEmotional, LangMarathi, "bhiti", "भीती", "फार वाईट आहे", "काही उपाय आहे का", "मदत करा"),
)
