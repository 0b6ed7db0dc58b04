package analyzer

// Marker word lists for the context rules. All lookups happen on the
// normalized (lowercased) text, so entries are lowercase.

var negationMarkers = map[string]bool{
	// English
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"doesn't": true, "doesnt": true, "won't": true, "wont": true,
	"can't": true, "cant": true, "isn't": true, "isnt": true,
	"aren't": true, "arent": true, "wasn't": true, "wasnt": true,
	"nobody": true, "neither": true, "nor": true,
	// Hindi / Urdu (Devanagari and romanized)
	"नहीं": true, "ना": true, "मत": true,
	"nahi": true, "nahin": true, "mat": true, "na": true,
	// Bengali
	"না": true, "noy": true, "nei": true,
	// Tamil / Telugu romanized
	"illa": true, "illai": true, "ledu": true, "kadu": true,
}

// clauseBreakers end a negation scope even without punctuation.
var clauseBreakers = map[string]bool{
	"but": true, "however": true, "although": true, "though": true,
	"लेकिन": true, "मगर": true, "magar": true, "lekin": true, "kintu": true,
}

var selfMarkers = map[string]bool{
	"i": true, "i'm": true, "im": true, "myself": true,
	"मैं": true, "मुझे": true, "खुद": true,
	"main": true, "mai": true, "mujhe": true, "khud": true,
	"ami": true, "naan": true, "nenu": true,
	"میں": true,
}

var interrogativeMarkers = map[string]bool{
	// English
	"what": true, "why": true, "how": true, "who": true, "whom": true,
	"when": true, "where": true, "which": true, "whose": true,
	"is": true, "are": true, "am": true, "do": true, "does": true,
	"did": true, "can": true, "could": true, "would": true, "will": true,
	// Hindi / Urdu
	"क्या": true, "क्यों": true, "कैसे": true, "कौन": true, "कब": true,
	"कहाँ": true, "कहां": true,
	"kya": true, "kyun": true, "kaise": true, "kaun": true, "kab": true,
	"kahan": true,
	// Bengali
	"কেন": true, "কি": true, "keno": true, "kemon": true,
	// Tamil / Telugu
	"enna": true, "yen": true, "eppadi": true, "enti": true, "enduku": true,
}

var reportingVerbs = map[string]bool{
	"said": true, "says": true, "say": true, "wrote": true, "writes": true,
	"told": true, "tells": true, "asked": true, "asks": true,
	"yelled": true, "shouted": true, "replied": true, "posted": true,
	"कहा": true, "बोला": true, "बोली": true, "लिखा": true,
	"kaha": true, "bola": true, "boli": true,
}
