package categorization

import "regexp"

// DefaultCategory is the safe fallback when neither the site, the model,
// nor the keyword rules produce a usable category.
const DefaultCategory = "Workplace Policy & Culture"

// Taxonomy is the fixed, ordered set of category labels. Every category
// attached to an output item is a member of this list.
var Taxonomy = []string{
	"Talent Acquisition",
	"Compensation & Benefits",
	"Learning & Development",
	"Performance Management",
	"Employee Engagement",
	"Diversity & Inclusion",
	"HR Tech & AI",
	"Workplace Policy & Culture",
	"Legal & Compliance",
	"Org Design & Restructuring",
	"People Analytics",
}

// KeywordRule pairs a taxonomy category with the pattern that signals it.
type KeywordRule struct {
	Category string
	Pattern  *regexp.Regexp
}

// KeywordRules is checked in declared order; the first match wins.
var KeywordRules = []KeywordRule{
	{"Talent Acquisition", regexp.MustCompile(`(?i)\bhiring|recruit|recruitment|campus|sourcing|ATS\b|offer\b|onboard|on-?boarding|talent acquisition\b`)},
	{"Compensation & Benefits", regexp.MustCompile(`(?i)\bcompensation|pay|salary|wage|bonus|incentive|esop|benefit|perks|gratuity|pf\b`)},
	{"Learning & Development", regexp.MustCompile(`(?i)\bL&D\b|learning|upskilling|reskilling|training|academy|certificate|cohort\b`)},
	{"Performance Management", regexp.MustCompile(`(?i)\bOKR|KPI|performance review|appraisal|PMS\b|rating|calibration\b`)},
	{"Employee Engagement", regexp.MustCompile(`(?i)\bengagement|wellbeing|well-being|experience\b|\bEX\b|culture survey|pulse\b`)},
	{"Diversity & Inclusion", regexp.MustCompile(`(?i)\bDEI\b|D&I|diversity|inclusion|equity|belonging|LGBTQ|women leadership|neurodivers`)},
	{"HR Tech & AI", regexp.MustCompile(`(?i)\bAI\b|gen\s*AI|LLM|chatbot|automation|HCM|HRIS|Workday|SuccessFactors|BambooHR|Rippling|Darwinbox`)},
	{"Workplace Policy & Culture", regexp.MustCompile(`(?i)\breturn to office|RTO|hybrid|remote|flexi|policy\b|leave policy|dress code|code of conduct|ethics`)},
	{"Legal & Compliance", regexp.MustCompile(`(?i)\bEEOC|NLRB|compliance|regulation|law\b|litigation|GDPR|DPDP|privacy|OSHA|labor court|industrial dispute`)},
	{"Org Design & Restructuring", regexp.MustCompile(`(?i)\brestructur(ing|e)|reorg|org design|span of control|delayering|rightsiz|downs(iz|cal)|merger|acquisition|spin[- ]?off`)},
	{"People Analytics", regexp.MustCompile(`(?i)\banalytics|dashboard|insight|attrition model|predictive|workforce analytics\b`)},
}
