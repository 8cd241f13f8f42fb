package safety

// EmergencyResponse is the fixed urgent-care reply. It is sent instead
// of any AI answer whenever an emergency rule matches.
const EmergencyResponse = `🚨 URGENT MEDICAL SITUATION DETECTED

This appears to be a medical emergency. Please:

1. Call emergency services immediately:
   - India: 108 or 102
   - USA: 911
   - UK: 999

2. If you're a cancer patient with fever above 100.4°F (38°C):
   - This could be neutropenic fever (life-threatening)
   - Go to the nearest emergency room immediately
   - Do NOT wait

3. For severe symptoms:
   - Chest pain, difficulty breathing → Emergency room NOW
   - Heavy bleeding → Apply pressure, call ambulance
   - Seizures → Protect from injury, call ambulance

I cannot provide emergency medical advice. Please seek immediate professional medical care.

For non-emergency questions, you can message me again after you've received care.`

// RiskyContentResponse refuses dosage/treatment-change requests and
// redirects to the treating clinician.
const RiskyContentResponse = `I understand your concern, but I cannot provide specific medical advice about:

- Medication dosages
- Stopping or changing treatment
- Replacing medical treatment with alternative therapies

Why? These decisions must be made with your oncologist based on your specific medical condition, test results, and treatment history.

What I CAN help with:
- Understanding your medical reports
- Preparing questions to ask your doctor
- General information about cancer treatments
- Nutrition and lifestyle guidance during treatment
- Finding hospitals and specialists

Would you like help preparing questions for your next doctor's appointment?`

// OffTopicResponse is the fixed refusal for messages with no domain
// keyword and no active structured flow.
const OffTopicResponse = `I'm specialized in oncology (cancer) care and can only provide information related to cancer diagnosis, treatment, and management. If you have any questions about cancer or treatment options, feel free to ask!`
