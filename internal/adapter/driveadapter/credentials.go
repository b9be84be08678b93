package driveadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jgivc/musicsync/internal/common"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// tokenFile accepts both the oauth2 token layout and the authorized user
// layout written by the Google client libraries.
type tokenFile struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// LoadCredentials builds a refreshing token source from a client secret and
// a previously authorized token. It never starts an interactive consent flow.
func LoadCredentials(ctx context.Context, fsys afero.Fs, secretPath, tokenPath string) (oauth2.TokenSource, error) {
	secret, err := readFile(fsys, secretPath)
	if err != nil {
		return nil, err
	}

	cfg, err := google.ConfigFromJSON(secret, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("cannot parse client secret %s: %w", secretPath, err)
	}

	data, err := readFile(fsys, tokenPath)
	if err != nil {
		return nil, err
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%w: cannot parse %s: %v", common.ErrInvalidToken, tokenPath, err)
	}

	tok := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
		TokenType:    tf.TokenType,
		Expiry:       tf.Expiry,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = tf.Token
	}

	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("%w: %s has no refresh token and the access token is unusable", common.ErrInvalidToken, tokenPath)
	}

	return cfg.TokenSource(ctx, tok), nil
}

func readFile(fsys afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrCredentialsNotFound, path)
		}

		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	return data, nil
}
