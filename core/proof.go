package core

import "time"

// VerificationLevel is the credential strength a proof was generated with.
type VerificationLevel string

const (
	VerificationLevelOrb    VerificationLevel = "orb"
	VerificationLevelDevice VerificationLevel = "device"
)

// ProofPayload is the successful result of a personhood verify command in the wallet.
type ProofPayload struct {
	MerkleRoot        string            `json:"merkle_root"`
	NullifierHash     string            `json:"nullifier_hash"`
	Proof             string            `json:"proof"`
	VerificationLevel VerificationLevel `json:"verification_level"`
}

// ProofResult is the answer of the cloud proof verifier.
type ProofResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Action  string `json:"action,omitempty"`
}

// Verification records an address that proved personhood for an action.
type Verification struct {
	Address       string            `json:"address"`
	Action        string            `json:"action"`
	NullifierHash string            `json:"nullifier_hash"`
	Level         VerificationLevel `json:"verification_level"`
	VerifiedAt    time.Time         `json:"verified_at"`
}
