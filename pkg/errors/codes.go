package errors

import "strings"

// ErrorCode identifies a failure category. Codes carry a module prefix
// (MOL_, SCORE_, QSAR_, ENC_, PIPE_, CONF_) so that logs and metrics can
// aggregate failures per module via ModuleForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeOK             ErrorCode = "OK"
	ErrCodeUnknown        ErrorCode = "COMMON_000"
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeInvalidParam   ErrorCode = "COMMON_002"
	ErrCodeValidation     ErrorCode = "COMMON_003"
	ErrCodeNotImplemented ErrorCode = "COMMON_004"
	ErrCodeIOFailure      ErrorCode = "COMMON_005"
)

// Molecule module error codes.
const (
	ErrCodeInvalidSMILES     ErrorCode = "MOL_001"
	ErrCodeUnknownElement    ErrorCode = "MOL_002"
	ErrCodeUnclosedRing      ErrorCode = "MOL_003"
	ErrCodeUnbalancedBranch  ErrorCode = "MOL_004"
	ErrCodeEmptyMolecule     ErrorCode = "MOL_005"
	ErrCodeFingerprintFailed ErrorCode = "MOL_006"
)

// Scoring module error codes.
const (
	ErrCodeScoringFailed    ErrorCode = "SCORE_001"
	ErrCodeDegenerateScores ErrorCode = "SCORE_002"
	ErrCodeBatchTooSmall    ErrorCode = "SCORE_003"
	ErrCodeLengthMismatch   ErrorCode = "SCORE_004"
	ErrCodeUnknownObjective ErrorCode = "SCORE_005"
)

// QSAR module error codes.
const (
	ErrCodeQSARArtifactMissing   ErrorCode = "QSAR_001"
	ErrCodeQSARArtifactInvalid   ErrorCode = "QSAR_002"
	ErrCodeQSARDimensionMismatch ErrorCode = "QSAR_003"
)

// Encoder module error codes.
const (
	ErrCodeEncoderConfigInvalid  ErrorCode = "ENC_001"
	ErrCodeEncoderWeightsMissing ErrorCode = "ENC_002"
	ErrCodeEncoderWeightsInvalid ErrorCode = "ENC_003"
	ErrCodeEncoderInputTooLarge  ErrorCode = "ENC_004"
	ErrCodeEmbeddingDegenerate   ErrorCode = "ENC_005"
)

// Pipeline and dataset error codes.
const (
	ErrCodeDatasetMissing  ErrorCode = "PIPE_001"
	ErrCodeDatasetNoSMILES ErrorCode = "PIPE_002"
	ErrCodeDatasetEmpty    ErrorCode = "PIPE_003"
	ErrCodeEmbedderOutput  ErrorCode = "PIPE_004"
	ErrCodeArtifactWrite   ErrorCode = "PIPE_005"
)

// Configuration error codes.
const (
	ErrCodeConfigInvalid  ErrorCode = "CONF_001"
	ErrCodeConfigNotFound ErrorCode = "CONF_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages used when a call
// site has no more specific text to offer.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeInvalidParam:   "invalid parameter",
	ErrCodeValidation:     "validation failed",
	ErrCodeNotImplemented: "not implemented",
	ErrCodeIOFailure:      "i/o failure",

	ErrCodeInvalidSMILES:     "invalid SMILES format",
	ErrCodeUnknownElement:    "unknown element symbol",
	ErrCodeUnclosedRing:      "unclosed ring bond",
	ErrCodeUnbalancedBranch:  "unbalanced branch parentheses",
	ErrCodeEmptyMolecule:     "molecule has no atoms",
	ErrCodeFingerprintFailed: "failed to generate fingerprint",

	ErrCodeScoringFailed:    "property scoring failed",
	ErrCodeDegenerateScores: "score batch has zero variance",
	ErrCodeBatchTooSmall:    "score batch too small to normalize",
	ErrCodeLengthMismatch:   "score vector length mismatch",
	ErrCodeUnknownObjective: "unknown objective mode",

	ErrCodeQSARArtifactMissing:   "QSAR classifier artifact missing",
	ErrCodeQSARArtifactInvalid:   "QSAR classifier artifact invalid",
	ErrCodeQSARDimensionMismatch: "fingerprint dimensionality does not match classifier",

	ErrCodeEncoderConfigInvalid:  "encoder configuration invalid",
	ErrCodeEncoderWeightsMissing: "encoder weights artifact missing",
	ErrCodeEncoderWeightsInvalid: "encoder weights artifact invalid",
	ErrCodeEncoderInputTooLarge:  "molecule exceeds encoder atom limit",
	ErrCodeEmbeddingDegenerate:   "embedding has near-zero norm",

	ErrCodeDatasetMissing:  "dataset file missing",
	ErrCodeDatasetNoSMILES: "dataset has no smiles column",
	ErrCodeDatasetEmpty:    "dataset contains no usable molecules",
	ErrCodeEmbedderOutput:  "embedder output does not match batch",
	ErrCodeArtifactWrite:   "failed to write output artifact",

	ErrCodeConfigInvalid:  "invalid configuration",
	ErrCodeConfigNotFound: "configuration file not found",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "SCORE"
// for ErrCodeDegenerateScores. Used as a metric label.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

// IsFatalCode reports whether a code belongs to the fatal class of the
// error taxonomy: missing or incompatible artifacts, unimplemented
// objectives, degenerate statistics, and configuration errors terminate
// a run, while per-molecule parse failures (MOL_ codes) do not.
func IsFatalCode(code ErrorCode) bool {
	switch ModuleForCode(code) {
	case "MOL":
		return false
	case "OK":
		return false
	}
	return true
}
