package worldid

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gojek/heimdall/v7"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
)

// DefaultBaseURL is the developer portal serving the cloud verify API
const DefaultBaseURL = "https://developer.worldcoin.org"

// ProofVerifier forwards personhood proofs to the cloud verify API
type ProofVerifier struct {
	client  heimdall.Doer
	baseURL string
	appID   string
}

type verifyRequest struct {
	NullifierHash     string `json:"nullifier_hash"`
	MerkleRoot        string `json:"merkle_root"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
	Action            string `json:"action"`
	SignalHash        string `json:"signal_hash"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

// NewProofVerifier creates a verifier for the given app id
func NewProofVerifier(baseURL, appID string, cfg HTTPConfig) ports.ProofVerifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ProofVerifier{
		client:  newHTTPClient(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
	}
}

// VerifyProof returns the verdict of the cloud API. A rejected proof is a
// result with Success false; only transport failures are errors.
func (v *ProofVerifier) VerifyProof(ctx context.Context, proof *core.ProofPayload, action, signal string) (*core.ProofResult, error) {
	url := fmt.Sprintf("%s/api/v2/verify/%s", v.baseURL, v.appID)

	status, body, err := postJSON(ctx, v.client, url, verifyRequest{
		NullifierHash:     proof.NullifierHash,
		MerkleRoot:        proof.MerkleRoot,
		Proof:             proof.Proof,
		VerificationLevel: string(proof.VerificationLevel),
		Action:            action,
		SignalHash:        HashToField([]byte(signal)),
	})
	if err != nil {
		return nil, err
	}
	if status >= http.StatusInternalServerError {
		return nil, fmt.Errorf("verify service unavailable (status %d)", status)
	}

	var res verifyResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("unexpected verify response (status %d): %w", status, err)
	}

	if status == http.StatusOK {
		return &core.ProofResult{Success: true, Action: res.Action}, nil
	}

	return &core.ProofResult{
		Success: false,
		Code:    res.Code,
		Detail:  res.Detail,
		Action:  action,
	}, nil
}

// HashToField maps input into the proof field: keccak256 shifted right by
// 8 bits, as 0x-prefixed 32-byte hex.
func HashToField(input []byte) string {
	hash := new(big.Int).SetBytes(crypto.Keccak256(input))
	hash.Rsh(hash, 8)
	return fmt.Sprintf("0x%064x", hash)
}
