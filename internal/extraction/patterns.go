package extraction

import "regexp"

// Candidate patterns per field, most specific first. Extraction tries
// them in order and stops at the first one that matches; later patterns
// in the same list are never consulted once one hits. Labels cover both
// Hebrew and English invoice layouts.

var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:חברה|חברת|ח\.פ\.?|מ\.ח\.ח\.?|שם העסק)[:\s]+(.+?)(?:\n|ח\.פ|מ\.ח\.ח|$)`),
	regexp.MustCompile(`(?im)^(.+?)(?:בע"מ|בע״מ|ושות'|ושותפים|עמותה)`),
	regexp.MustCompile(`(?i)(?:מאת|אצל|שם)[:\s]+(.+?)(?:\n|$)`),
}

// A company registration number is exactly nine digits; longer digit
// runs are not truncated to fit.
var companyIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:ח\.פ\.?|ח"פ|מ\.ח\.ח\.?|עוסק מורשה)[:\s#]*(\d{9})\b`),
	regexp.MustCompile(`(?i)(?:company|registration|tax)[:\s]*(\d{9})\b`),
}

// The captured token must start with an alphanumeric rune so that a
// labeled "INV-2024-001" is captured whole rather than from its first
// hyphen.
var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:מספר חשבונית|חשבונית מס'?|חשבונית|invoice|inv)[.:#\s]*([A-Za-z0-9][A-Za-z0-9_-]*)`),
	regexp.MustCompile(`(?i)(?:מס'|מספר)[:\s]*(\d+)`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:תאריך|date)[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})`),
}

var totalAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:סה"כ|סה״כ|סכום כולל|total)[:\s]*([0-9,]+\.?\d*)[:\s]*(?:ש"ח|₪|ils|shekel)`),
	regexp.MustCompile(`(?i)(?:לתשלום|לחיוב)[:\s]*([0-9,]+\.?\d*)[:\s]*(?:ש"ח|₪)`),
	regexp.MustCompile(`(?i)([0-9,]+\.?\d*)[:\s]*(?:ש"ח|₪)(?:\s*$|\s*\n)`),
}

var taxAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:מע"מ|מע״מ|vat|tax)[:\s]*([0-9,]+\.?\d*)[:\s]*(?:ש"ח|₪|%)`),
}

var itemLinePattern = regexp.MustCompile(`(.+?)\s+(\d+\.?\d*)\s*(?:ש"ח|₪)`)

// One shared list for addressee and address labels. Unlike the per-field
// lists above, the first hit across the whole list populates the single
// customer name field.
var customerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:לכבוד|לקוח|customer)[:\s]+(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?i)(?:כתובת|address)[:\s]+(.+?)(?:\n|$)`),
}
