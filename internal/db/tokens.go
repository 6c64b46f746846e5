package db

// dedupeTokens returns tokens with duplicates and empty strings removed,
// preserving first-seen order.
func dedupeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// unionTokens appends token to set unless it is already present.
func unionTokens(set []string, token string) []string {
	for _, t := range set {
		if t == token {
			return set
		}
	}
	return append(set, token)
}

// differenceTokens returns set without any of remove.
func differenceTokens(set []string, remove []string) []string {
	if len(remove) == 0 {
		return set
	}
	drop := make(map[string]struct{}, len(remove))
	for _, t := range remove {
		drop[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for _, t := range set {
		if _, ok := drop[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
