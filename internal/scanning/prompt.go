package scanning

// labelExtractionPrompt is the system instruction shared by all extraction backends
const labelExtractionPrompt = `Extract ONLY the RECIPIENT data from a shipping label.

COMPLETELY IGNORE:
- QR codes
- sender (remetente)
- delivery date
- order codes
- promotional text

Typical layout:
Name
Street / Block / Lot / Number
District (bairro)
City - State
Postal code (CEP)
Phone

Return ONLY a valid JSON object with the fields:
name, street, district, city, state, postalCode, phone, country

Use an empty string for any field that is not on the label.
Do not include any text before or after the JSON.
Do not use markdown code blocks.`

// labelTranscriptionPrompt asks a vision model for a plain transcription
const labelTranscriptionPrompt = `Transcribe all text printed on this shipping label exactly as it appears.
Keep one printed line per output line, in reading order.
Do not translate, summarize, correct or add anything.
Return only the transcription.`
