package conversation

// Fixed outbound templates. These are sent verbatim so that medical
// review of the copy stays meaningful; only the AI answer path and the
// intake recommendations produce composed text.

const Disclaimer = "Namaste! I am OncoBot, a support assistant for cancer patients and caregivers. " +
	"I can help with understanding reports, managing side effects, nutrition, and finding hospitals and cost information. " +
	"Important: I am not a doctor and this is not medical advice. Always confirm with your treating oncologist. " +
	"In an emergency, call 108 or go to the nearest hospital immediately. " +
	"Reply AGREE to continue."

const NamePrompt = "Thank you! To help you better, may I know your name (or the patient's name)?"

const AgePrompt = "Thank you. What is the patient's age?"

const CityPrompt = "And which city are you in? This helps me suggest nearby hospitals and resources."

const MenuText = "How can I help you today? Reply with a number or just type your question.\n" +
	"1. Understand a medical report (you can also send a photo or PDF)\n" +
	"2. Managing side effects\n" +
	"3. Diet and nutrition\n" +
	"4. Hospitals and treatment costs\n" +
	"5. Help me find care (guided questions)\n\n" +
	"You can type in English, Hindi, or Marathi."

const HelpText = "I can help with cancer treatment questions: reports, side effects, nutrition, hospitals, and costs.\n" +
	"Reply MENU to see options, RESET to start over, or STOP to unsubscribe.\n" +
	"I am not a doctor. In an emergency, call 108."

const ResetConfirmation = "Okay, I have cleared our conversation and we can start fresh.\n\n" + Disclaimer

const ReportPrompt = "Please send a photo or PDF of the report you would like me to explain, or type out the part you have a question about."

const UnsupportedMediaReply = "Sorry, I can only read photos and PDF documents right now. " +
	"Please send the report as an image or PDF, or type your question."

const SideEffectsPrompt = "I can help with that. What side effects is the patient experiencing, and which treatment are they on (chemo, radiation, surgery recovery)?"

const NutritionPrompt = "Happy to help with diet. What treatment is the patient undergoing, and are there specific problems like nausea, mouth sores, or loss of appetite?"

const CostsPrompt = "I can share general cost and hospital information. Which city are you looking at, and what treatment has the doctor advised?"

const CoordinatorReply = "I have noted your details. A care coordinator from our team will reach out to you on this number within 24 hours. " +
	"If anything is urgent in the meantime, call 108 or visit the nearest hospital."

// onboardingPrompts maps the stage being entered to the question asked.
var onboardingPrompts = map[Stage]string{
	StageOnboardingName: NamePrompt,
	StageOnboardingAge:  AgePrompt,
	StageOnboardingCity: CityPrompt,
}
