package lexicon

import "github.com/asy251189/HarmonyGuard/pkg/detection"

// seedRow is a compact builder for the built-in lexicon.
type seedRow struct {
	term string
	cat  detection.Category
	mode MatchMode
}

// Builtin returns the seed lexicon used when no lexicon directory is
// available. Severities come from the category defaults.
func Builtin() *Lexicon {
	seed := map[string][]seedRow{
		"en": {
			{"damn", detection.CategoryProfanity, MatchNormalized},
			{"hell", detection.CategoryProfanity, MatchExact},
			{"shit", detection.CategoryProfanity, MatchFuzzy},
			{"fuck", detection.CategoryProfanity, MatchFuzzy},
			{"bitch", detection.CategoryProfanity, MatchFuzzy},
			{"asshole", detection.CategoryProfanity, MatchFuzzy},
			{"bastard", detection.CategoryProfanity, MatchNormalized},
			{"kill yourself", detection.CategoryThreat, MatchNormalized},
			{"i will kill you", detection.CategoryThreat, MatchNormalized},
			{"terrorist", detection.CategoryHateSpeech, MatchNormalized},
			{"nazi", detection.CategoryHateSpeech, MatchExact},
			{"stupid", detection.CategoryHarassment, MatchFuzzy},
			{"idiot", detection.CategoryHarassment, MatchFuzzy},
			{"moron", detection.CategoryHarassment, MatchNormalized},
			{"loser", detection.CategoryHarassment, MatchFuzzy},
			{"ugly", detection.CategoryHarassment, MatchNormalized},
			{"dumb", detection.CategoryHarassment, MatchNormalized},
		},
		"hi": {
			// Devanagari
			{"बकवास", detection.CategoryProfanity, MatchNormalized},
			{"भड़वा", detection.CategoryProfanity, MatchNormalized},
			{"रंडी", detection.CategoryProfanity, MatchNormalized},
			{"आतंकवादी", detection.CategoryHateSpeech, MatchNormalized},
			{"मार डालूंगा", detection.CategoryThreat, MatchNormalized},
			{"बेवकूफ", detection.CategoryHarassment, MatchNormalized},
			{"मूर्ख", detection.CategoryHarassment, MatchNormalized},
			{"गधा", detection.CategoryHarassment, MatchNormalized},
			{"कुत्ता", detection.CategoryHarassment, MatchNormalized},
			// Romanized
			{"bewakoof", detection.CategoryHarassment, MatchFuzzy},
			{"bevakoof", detection.CategoryHarassment, MatchFuzzy},
			{"gadha", detection.CategoryHarassment, MatchFuzzy},
			{"kamina", detection.CategoryProfanity, MatchFuzzy},
			{"kutta", detection.CategoryHarassment, MatchFuzzy},
			{"harami", detection.CategoryProfanity, MatchFuzzy},
			{"pagal", detection.CategoryHarassment, MatchNormalized},
		},
		"bn": {
			{"বাজে", detection.CategoryProfanity, MatchNormalized},
			{"গন্দা", detection.CategoryProfanity, MatchNormalized},
			{"বোকা", detection.CategoryHarassment, MatchNormalized},
			{"মূর্খ", detection.CategoryHarassment, MatchNormalized},
			{"boka", detection.CategoryHarassment, MatchFuzzy},
			{"pagol", detection.CategoryHarassment, MatchNormalized},
		},
		"ta": {
			{"முட்டாள்", detection.CategoryHarassment, MatchNormalized},
			{"muttal", detection.CategoryHarassment, MatchFuzzy},
			{"loosu", detection.CategoryHarassment, MatchFuzzy},
		},
		"ur": {
			{"بیوقوف", detection.CategoryHarassment, MatchNormalized},
			{"کتا", detection.CategoryHarassment, MatchNormalized},
			{"پاگل", detection.CategoryHarassment, MatchNormalized},
		},
	}

	lex := &Lexicon{byLang: map[string][]Entry{}}
	for lang, rows := range seed {
		entries := make([]Entry, 0, len(rows))
		for _, r := range rows {
			e := Entry{
				Term:     r.term,
				Language: lang,
				Category: r.cat,
				Severity: r.cat.BaseSeverity(),
				Mode:     r.mode,
			}
			e.prepare()
			entries = append(entries, e)
		}
		lex.byLang[lang] = entries
	}
	return lex
}
