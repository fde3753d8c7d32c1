package worldid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gojek/heimdall/v7"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
)

// DefaultDirectoryURL serves wallet usernames
const DefaultDirectoryURL = "https://usernames.worldcoin.org"

// Directory resolves wallet addresses to public usernames
type Directory struct {
	client  heimdall.Doer
	baseURL string
}

type directoryEntry struct {
	Address           string `json:"address"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// NewDirectory creates a username directory client
func NewDirectory(baseURL string, cfg HTTPConfig) ports.ProfileResolver {
	if baseURL == "" {
		baseURL = DefaultDirectoryURL
	}
	return &Directory{
		client:  newHTTPClient(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ProfileByAddress returns the profile of address, or an empty profile when
// the address has no username.
func (d *Directory) ProfileByAddress(ctx context.Context, address string) (*core.Profile, error) {
	status, body, err := postJSON(ctx, d.client, d.baseURL+"/api/v1/query", map[string][]string{
		"addresses": {address},
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("username query failed with status %d", status)
	}

	var entries []directoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode username response: %w", err)
	}

	for _, e := range entries {
		if strings.EqualFold(e.Address, address) {
			return &core.Profile{Username: e.Username, ProfilePictureURL: e.ProfilePictureURL}, nil
		}
	}

	return &core.Profile{}, nil
}
