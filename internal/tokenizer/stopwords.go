package tokenizer

// stopwords is the combined FR+EN set dropped when removeStopwords is set,
// mirroring the pinned list used by the prior memory service (pronouns,
// determiners, common verbs, prepositions).
var stopwords = buildStopwords()

func buildStopwords() map[string]bool {
	fr := []string{
		"le", "la", "les", "l", "un", "une", "des", "du", "de", "d",
		"et", "ou", "mais", "donc", "car", "que", "qui", "quoi",
		"je", "tu", "il", "elle", "on", "nous", "vous", "ils", "elles",
		"ce", "cette", "ces", "mon", "ton", "son", "notre", "votre", "leur",
		"est", "sont", "a", "ont", "fait", "peut", "doit", "etre", "avoir",
		"ne", "pas", "plus", "tres", "bien", "tout", "tous", "toute", "toutes",
		"pour", "dans", "sur", "avec", "sans", "par", "entre", "vers", "chez",
		"au", "aux", "si", "ni", "comme", "meme", "aussi", "encore",
	}
	en := []string{
		"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "shall", "may", "might", "must", "can",
		"i", "you", "he", "she", "it", "we", "they", "this", "that", "these",
		"of", "in", "to", "for", "with", "on", "at", "by", "from", "up", "out",
		"and", "or", "but", "if", "not", "no", "yes", "so", "as", "than",
		"very", "too", "just", "only", "also", "about", "more", "some", "any",
		"what", "which", "who", "when", "where", "how", "all", "each", "both",
	}

	set := make(map[string]bool, len(fr)+len(en))
	for _, w := range fr {
		set[w] = true
	}
	for _, w := range en {
		set[w] = true
	}
	return set
}
