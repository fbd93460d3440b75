package auth

import (
	"context"
	"encoding/json"

	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/api"
	"github.com/joshnies/survol/lib/httpw"
	"github.com/joshnies/survol/models"
)

// Fetch the account's KDF parameters from the identity service.
// The response is returned as-is.
func Prelogin(ctx context.Context, client *httpw.Client, cfg config.Config) (json.RawMessage, error) {
	reqUrl := api.BuildURL(cfg.IdentityURL, constants.PathPrelogin)
	return client.PostJSON(ctx, reqUrl, models.PreloginRequest{Email: cfg.Email}, nil)
}
