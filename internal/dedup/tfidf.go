package dedup

import (
	"math"
	"regexp"
	"strings"
)

// tokenPattern selects word tokens of two or more characters.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// maxDocFreqRatio drops terms appearing in more than this share of the
// corpus; such terms carry no discriminating signal for near-duplicate
// detection.
const maxDocFreqRatio = 0.85

// stopWords are common English terms excluded from the vocabulary.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about above across after afterwards again against all almost alone
along already also although always am among amongst an and another any anyhow anyone anything anyway
anywhere are around as at back be became because become becomes becoming been before beforehand behind
being below beside besides between beyond both bottom but by call can cannot could did do does doing
done down due during each eight either eleven else elsewhere empty enough even ever every everyone
everything everywhere except few fifteen fifty fill find fire first five for former formerly forty
found four from front full further get give go had has have he hence her here hereafter hereby herein
hereupon hers herself him himself his how however hundred i if in indeed interest into is it its itself
keep last latter latterly least less made many may me meanwhile might mine more moreover most mostly
move much must my myself name namely neither never nevertheless next nine no nobody none noone nor not
nothing now nowhere of off often on once one only onto or other others otherwise our ours ourselves
out over own part per perhaps please put rather re same see seem seemed seeming seems serious several
she should show side since six sixty so some somehow someone something sometime sometimes somewhere
still such take ten than that the their them themselves then thence there thereafter thereby therefore
therein thereupon these they third this those though three through throughout thru thus to together
too top toward towards twelve twenty two under until up upon us very via was we well were what whatever
when whence whenever where whereafter whereas whereby wherein whereupon wherever whether which while
whither who whoever whole whom whose why will with within without would yet you your yours yourself
yourselves`) {
		stopWords[w] = struct{}{}
	}
}

// tokenize lowercases text and returns its vocabulary-eligible tokens.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, skip := stopWords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// tfidfVectors converts documents into L2-normalized sparse TF-IDF vectors
// over a shared vocabulary. Cosine similarity between two results reduces to
// a sparse dot product.
func tfidfVectors(docs []string) []map[string]float64 {
	n := len(docs)
	tokenized := make([][]string, n)
	docFreq := make(map[string]int)
	for i, doc := range docs {
		tokenized[i] = tokenize(doc)
		seen := make(map[string]struct{})
		for _, tok := range tokenized[i] {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	// Smoothed IDF; ubiquitous terms are excluded from the vocabulary
	// entirely when the corpus is large enough to judge.
	idf := make(map[string]float64, len(docFreq))
	for tok, df := range docFreq {
		if n > 1 && float64(df)/float64(n) > maxDocFreqRatio {
			continue
		}
		idf[tok] = math.Log(float64(1+n)/float64(1+df)) + 1
	}

	vectors := make([]map[string]float64, n)
	for i, tokens := range tokenized {
		vec := make(map[string]float64)
		for _, tok := range tokens {
			if w, ok := idf[tok]; ok {
				vec[tok] += w
			}
		}
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for tok := range vec {
				vec[tok] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

// cosine computes the dot product of two L2-normalized sparse vectors.
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for tok, v := range a {
		sum += v * b[tok]
	}
	return sum
}
