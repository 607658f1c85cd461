package dosing

import "strings"

// Classifier flags medications that change how the CBD plan is built.
// The keyword implementation is a best-effort heuristic on free text names.
type Classifier interface {
	Classify(med Medication) DrugClass
}

type DrugClass struct {
	BenzoOrOpioid bool
	Sensitive     bool
}

var (
	benzoClass     = []string{"diazepam", "lorazepam", "alprazolam", "clonazepam", "benzo"}
	opioidClass    = []string{"tramadol", "oxycodon", "morphin", "fentanyl", "opioid", "opiat"}
	sensitiveClass = []string{
		"antidepress", "ssri", "snri",
		"epilep", "antikonvulsiv",
		"marcumar", "warfarin", "blutverdünn",
		"immunsuppress", "ciclosporin",
	}
	sensitiveCategories = []string{"benzo", "antidepress", "epilep", "blutverdünn", "immunsuppress", "opioid"}
)

type KeywordClassifier struct{}

func (KeywordClassifier) Classify(med Medication) DrugClass {
	name := strings.ToLower(strings.TrimSpace(med.Name))
	class := DrugClass{
		BenzoOrOpioid: hasClassToken(name, benzoClass) || hasClassToken(name, opioidClass),
	}
	class.Sensitive = class.BenzoOrOpioid || hasClassToken(name, sensitiveClass)

	if med.Category != nil && !class.Sensitive {
		category := strings.ToLower(med.Category.Name)
		risk := strings.ToLower(med.Category.RiskLevel)
		class.Sensitive = hasClassToken(category, sensitiveCategories) || risk == RiskHigh || risk == RiskVeryHigh
	}
	return class
}

func hasClassToken(text string, class []string) bool {
	for _, drug := range class {
		if strings.Contains(text, drug) {
			return true
		}
	}
	return false
}
