package auth

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// nearMissThreshold is the Jaro-Winkler similarity above which a mismatched
// transcript is logged as a probable recognition slip rather than a genuinely
// wrong passphrase. Diagnostic only; the decision stays exact-match.
const nearMissThreshold = 0.88

// NormalizePassphrase canonicalises a transcript for comparison: lower-cased
// with runs of whitespace collapsed to single spaces. Verification compares
// normalised forms exactly; enrollment stores the normalised form.
func NormalizePassphrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// isNearMiss reports whether two already-normalised passphrases are close
// enough that the mismatch likely stems from a transcription slip. Operators
// watching verification logs use this to tell STT trouble from attackers
// guessing passphrases.
func isNearMiss(spoken, enrolled string) bool {
	if spoken == "" || enrolled == "" {
		return false
	}
	return matchr.JaroWinkler(spoken, enrolled, false) >= nearMissThreshold
}
