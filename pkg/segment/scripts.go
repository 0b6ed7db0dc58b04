package segment

import "unicode"

// scriptClass buckets a rune for run building.
type scriptClass int

const (
	classNeutral scriptClass = iota // whitespace, punctuation, digits
	classLatin
	classDevanagari
	classBengali
	classTamil
	classTelugu
	classKannada
	classMalayalam
	classGujarati
	classGurmukhi
	classOriya
	classArabic
	classOther
)

var scriptTable = []struct {
	class scriptClass
	table *unicode.RangeTable
}{
	{classLatin, unicode.Latin},
	{classDevanagari, unicode.Devanagari},
	{classBengali, unicode.Bengali},
	{classTamil, unicode.Tamil},
	{classTelugu, unicode.Telugu},
	{classKannada, unicode.Kannada},
	{classMalayalam, unicode.Malayalam},
	{classGujarati, unicode.Gujarati},
	{classGurmukhi, unicode.Gurmukhi},
	{classOriya, unicode.Oriya},
	{classArabic, unicode.Arabic},
}

func classOf(r rune) scriptClass {
	if !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r) {
		return classNeutral
	}
	for _, e := range scriptTable {
		if unicode.Is(e.table, r) {
			return e.class
		}
	}
	return classOther
}

// defaultLanguage maps a script deterministically to a language code.
// Latin and Arabic are the shared-script cases resolved elsewhere.
func (c scriptClass) defaultLanguage() string {
	switch c {
	case classDevanagari:
		return "hi"
	case classBengali:
		return "bn"
	case classTamil:
		return "ta"
	case classTelugu:
		return "te"
	case classKannada:
		return "kn"
	case classMalayalam:
		return "ml"
	case classGujarati:
		return "gu"
	case classGurmukhi:
		return "pa"
	case classOriya:
		return "or"
	case classArabic:
		return "ur"
	case classLatin:
		return "en"
	default:
		return "en"
	}
}
