package worldid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/layer-3/tute/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHTTP = HTTPConfig{Timeout: 2 * time.Second, RetryCount: 1, Backoff: time.Millisecond}

func testProof() *core.ProofPayload {
	return &core.ProofPayload{
		MerkleRoot:        "0x1f38b57f3bdf96f05ea62fa68814871bf0ca8ce4dbe073d8497d5a6b0a53e5e0",
		NullifierHash:     "0x0339861e70a9bdb6b01a88c7534a3332db915d3d06511b79a5724221a6958fbe",
		Proof:             "0x063942fd7ea1616f17787d2e3374c1826ebcd2d41d2394",
		VerificationLevel: core.VerificationLevelOrb,
	}
}

func TestHashToField(t *testing.T) {
	// keccak256("") = c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470
	assert.Equal(t, "0x00c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a4", HashToField(nil))

	h := HashToField([]byte("0xabc"))
	assert.Len(t, h, 66)
	assert.Equal(t, "0x00", h[:4])
}

func TestProofVerifier(t *testing.T) {
	t.Run("accepted proof", func(t *testing.T) {
		var got verifyRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v2/verify/app_staging_123", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"success":true,"action":"create-token","nullifier_hash":"0x03","created_at":"2024-01-01T00:00:00Z"}`))
		}))
		defer srv.Close()

		v := NewProofVerifier(srv.URL+"/", "app_staging_123", testHTTP)
		res, err := v.VerifyProof(context.Background(), testProof(), "create-token", "")
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.Equal(t, "create-token", res.Action)
		assert.Equal(t, testProof().NullifierHash, got.NullifierHash)
		assert.Equal(t, "orb", got.VerificationLevel)
		assert.Equal(t, "create-token", got.Action)
		assert.Equal(t, HashToField(nil), got.SignalHash)
	})

	t.Run("rejected proof", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"max_verifications_reached","detail":"This person has already verified for this action.","attribute":null}`))
		}))
		defer srv.Close()

		v := NewProofVerifier(srv.URL, "app_staging_123", testHTTP)
		res, err := v.VerifyProof(context.Background(), testProof(), "create-token", "0xabc")
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, "max_verifications_reached", res.Code)
		assert.Contains(t, res.Detail, "already verified")
	})

	t.Run("server failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		v := NewProofVerifier(srv.URL, "app_staging_123", testHTTP)
		_, err := v.VerifyProof(context.Background(), testProof(), "create-token", "")
		assert.Error(t, err)
	})
}

func TestDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)

		var body struct {
			Addresses []string `json:"addresses"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if len(body.Addresses) == 1 && body.Addresses[0] == "0xabc0000000000000000000000000000000000123" {
			_, _ = w.Write([]byte(`[{"address":"0xABC0000000000000000000000000000000000123","username":"alice","profile_picture_url":"https://img/alice.png"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	d := NewDirectory(srv.URL, testHTTP)

	t.Run("known address", func(t *testing.T) {
		p, err := d.ProfileByAddress(context.Background(), "0xabc0000000000000000000000000000000000123")
		require.NoError(t, err)
		assert.Equal(t, "alice", p.Username)
		assert.Equal(t, "https://img/alice.png", p.ProfilePictureURL)
	})

	t.Run("unknown address", func(t *testing.T) {
		p, err := d.ProfileByAddress(context.Background(), "0xdef0000000000000000000000000000000000456")
		require.NoError(t, err)
		assert.Empty(t, p.Username)
	})

	t.Run("directory down", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer down.Close()

		_, err := NewDirectory(down.URL, testHTTP).ProfileByAddress(context.Background(), "0xabc")
		assert.Error(t, err)
	})
}
