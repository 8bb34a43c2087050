// Package auth implements the voxauth decision pipeline: the audio format
// gate, passphrase normalisation, cosine similarity scoring, and the
// enrollment/verification engine that orchestrates the transcription and
// voiceprint ports into a typed outcome.
package auth

// FailureKind identifies why an enrollment or verification attempt failed.
// The kinds are deliberately distinguishable so that callers can tell "your
// audio was malformed" from "we couldn't understand you" from "wrong
// passphrase" from "voice didn't match" — these must never collapse into one
// generic error.
type FailureKind string

const (
	// FailureNone marks a successful outcome.
	FailureNone FailureKind = ""

	// FailureInvalidAudio means the sample violated a format rule.
	FailureInvalidAudio FailureKind = "invalid_audio_format"

	// FailureSpeechRecognition means the transcription backend failed or
	// could not understand the audio.
	FailureSpeechRecognition FailureKind = "speech_recognition_failed"

	// FailureEmbedding means the voiceprint backend failed.
	FailureEmbedding FailureKind = "embedding_generation_failed"

	// FailurePassphraseMismatch means the spoken transcript did not match
	// the enrolled passphrase.
	FailurePassphraseMismatch FailureKind = "passphrase_mismatch"

	// FailureVoiceprintMismatch means the passphrase matched but the voice
	// similarity fell below the acceptance threshold.
	FailureVoiceprintMismatch FailureKind = "voiceprint_mismatch"

	// FailureIdentityNotFound means no credential is enrolled for the
	// identity.
	FailureIdentityNotFound FailureKind = "identity_not_found"

	// FailureDuplicateIdentity means the identity is already enrolled.
	FailureDuplicateIdentity FailureKind = "duplicate_identity"

	// FailureDegenerateEmbedding means an embedding had zero norm and no
	// similarity could be computed.
	FailureDegenerateEmbedding FailureKind = "degenerate_embedding"

	// FailureInternal covers storage or other infrastructure errors that are
	// not the caller's fault.
	FailureInternal FailureKind = "internal_error"
)

// EnrollmentOutcome is the immutable result of one enrollment attempt.
type EnrollmentOutcome struct {
	// Success reports whether the credential was stored.
	Success bool

	// Passphrase echoes the normalised transcript back on success so the
	// user can confirm what was understood.
	Passphrase string

	// Kind identifies the failure; FailureNone on success.
	Kind FailureKind

	// Reason is a human-readable explanation of the outcome.
	Reason string
}

// VerificationOutcome is the immutable result of one verification attempt.
type VerificationOutcome struct {
	// Success reports whether the caller is accepted.
	Success bool

	// MatchPercentage is the cosine similarity rescaled to a 0–100 reporting
	// unit, rounded to two decimals. Sign is preserved: a negative value is
	// diagnostic of a wrong-speaker match and surfaced as-is. Fixed at 0 on
	// passphrase mismatch and on failures before scoring.
	MatchPercentage float64

	// Kind identifies the failure; FailureNone on success.
	Kind FailureKind

	// Reason is a human-readable explanation of the outcome.
	Reason string
}
