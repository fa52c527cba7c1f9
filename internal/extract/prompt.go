package extract

// PromptVersion identifies the extraction prompt revision. The prompt
// text is part of the provider contract, not business logic; bump this
// when the wording changes so stored leads can be tied to the prompt
// that produced them.
const PromptVersion = "card-extract-v2"

// BuildCardPrompt returns the extraction prompt for business card
// images or pre-extracted card text. Cards may be multilingual; the
// backend is instructed to translate everything to English.
func BuildCardPrompt() string {
	return `You are a business card data extraction assistant. Analyze the provided business card and extract the contact details into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- The card may be in any language. Translate all extracted values to English.
- Extract every email address and phone number that appears on the card.
- Do not invent values. If a field is not present on the card, use an empty string or empty array.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation, just the raw JSON object:

{
  "firstName": "",
  "lastName": "",
  "company": "",
  "position": "",
  "emails": [],
  "phoneNumbers": [],
  "website": "",
  "address": "",
  "city": "",
  "zipcode": "",
  "country": "",
  "notes": "",
  "rawText": ""
}

"rawText" must contain the full text visible on the card, transcribed line by line.`
}
