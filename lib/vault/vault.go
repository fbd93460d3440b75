package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/api"
	"github.com/joshnies/survol/lib/httpw"
)

// Headers shared by all authenticated API requests.
func AuthHeaders(accessToken string) http.Header {
	h := http.Header{}
	h.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	h.Set("Accept", constants.ContentTypeJSON)
	return h
}

// Get the account profile.
func FetchProfile(ctx context.Context, client *httpw.Client, cfg config.Config, accessToken string) (json.RawMessage, error) {
	return client.Get(ctx, api.BuildURL(cfg.APIURL, constants.PathProfile), AuthHeaders(accessToken))
}

// Get the full encrypted vault state.
func FetchSync(ctx context.Context, client *httpw.Client, cfg config.Config, accessToken string) (json.RawMessage, error) {
	return client.Get(ctx, api.BuildURL(cfg.APIURL, constants.PathSync), AuthHeaders(accessToken))
}
