package segment

// Small high-frequency word lists used to classify Latin-script words as
// English or romanized Indian-language text. These are marker words, not
// exhaustive dictionaries: a handful of function words carries most of the
// signal in code-switched input.

var englishWords = wordSet(
	"a", "an", "the", "i", "you", "he", "she", "it", "we", "they",
	"am", "is", "are", "was", "were", "be", "been", "do", "does", "did",
	"have", "has", "had", "will", "would", "can", "could", "should",
	"and", "or", "but", "not", "no", "never", "so", "if", "then",
	"what", "why", "how", "who", "when", "where", "which",
	"this", "that", "these", "those", "my", "your", "his", "her", "their",
	"hello", "hi", "hey", "please", "thanks", "thank",
	"person", "people", "man", "woman", "friend", "today", "tomorrow",
	"good", "bad", "very", "really", "such", "some", "all", "me", "us",
	"doing", "going", "being", "like", "love", "hate", "think", "know",
	"stupid", "idiot", "fool", "loser", "ugly",
)

var romanizedWords = map[string]map[string]struct{}{
	"hi": wordSet(
		"hai", "hain", "tha", "thi", "the", "ho", "hoon", "hun",
		"kya", "kyun", "kaise", "kahan", "kab", "kaun", "kisko",
		"aur", "lekin", "magar", "phir", "abhi", "bahut", "bohot",
		"main", "mai", "mujhe", "mera", "meri", "mere", "hum", "hamara",
		"tu", "tum", "tera", "teri", "tere", "tumhara", "aap", "apna",
		"yeh", "ye", "woh", "wo", "yahan", "wahan",
		"nahi", "nahin", "mat", "na",
		"bhai", "yaar", "bhaiya", "didi", "beta",
		"acha", "accha", "theek", "thik", "sahi", "galat",
		"ka", "ki", "ke", "ko", "se", "par", "mein", "bhi", "toh", "to",
		"bewakoof", "bevakoof", "pagal", "gadha", "kamina", "kutta",
	),
	"ur": wordSet(
		"aap", "apka", "apki", "hum", "humein", "mein", "mujhe",
		"kyun", "kyunke", "jab", "tab", "magar", "lekin",
		"nahin", "nahi", "mat",
		"shukriya", "janab", "sahab", "bhai",
		"bohat", "bahut", "theek", "acha",
	),
	"bn": wordSet(
		"ami", "tumi", "apni", "amar", "tomar", "se", "tara",
		"keno", "kemon", "kothay", "kokhon", "ke", "ki",
		"na", "noy", "nei",
		"bhalo", "kharap", "khub", "onek",
		"boka", "pagol",
	),
	"ta": wordSet(
		"naan", "nee", "neenga", "avan", "aval", "adhu",
		"enna", "yen", "eppadi", "enga", "eppo", "yaru",
		"illa", "illai", "venam",
		"romba", "nalla", "seri",
		"muttal", "loosu",
	),
	"te": wordSet(
		"nenu", "nuvvu", "meeru", "atanu", "ame", "adi",
		"enti", "enduku", "ela", "ekkada", "eppudu", "evaru",
		"ledu", "kadu", "vaddu",
		"chala", "manchi", "bagundi",
	),
}

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}
