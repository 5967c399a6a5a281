package classify

import (
	"strconv"
	"strings"
)

// affirmativeTokens are the signals accepted as "yes" in a single-item
// response. The classifier answers in free prose, so this is a deliberately
// lenient heuristic; anything without an affirmative token is a 0. "evet" is
// kept because the deployed models were prompted on Turkish corpora and
// sometimes echo the localized token.
var affirmativeTokens = []string{"1", "yes", "evet"}

// parseSingleLabel extracts a binary label from a free-form single-item
// response.
func parseSingleLabel(response string) int {
	lowered := strings.ToLower(response)
	for _, tok := range affirmativeTokens {
		if strings.Contains(lowered, tok) {
			return 1
		}
	}
	return 0
}

// parseBatchLabels extracts one label per item from a batch response of
// "<index>:<Y/N>" lines, 1-indexed. Malformed lines, bad indices and
// out-of-range indices are skipped; the affected positions keep the default
// label 0. A single bad line never aborts the rest.
func parseBatchLabels(response string, n int) []int {
	labels := make([]int, n)
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		idxPart, answer, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(idxPart))
		if err != nil {
			continue
		}
		idx-- // response lines are 1-indexed
		if idx < 0 || idx >= n {
			continue
		}
		answer = strings.ToUpper(strings.TrimSpace(answer))
		if strings.Contains(answer, "Y") || strings.Contains(answer, "E") || strings.Contains(answer, "1") {
			labels[idx] = 1
		}
	}
	return labels
}
