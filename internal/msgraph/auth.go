package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenFile returns where Graph tokens are kept under dataDir.
func TokenFile(dataDir string) string {
	return filepath.Join(dataDir, "auth", "msgraph_tokens.json")
}

// oauth2Config returns the oauth2.Config for Microsoft Graph using the
// provided tenant and client IDs.
func oauth2Config(tenantID, clientID string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(tenantID, "devicecode"),
			TokenURL:      msEndpoint(tenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token. A missing file yields nil.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken atomically persists tok at path.
func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("saving token file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restricting token file: %w", err)
	}
	return nil
}

// Authenticate returns a usable token for Microsoft Graph. It loads the token
// saved at tokenPath, refreshes it if needed, or runs the device code flow,
// printing the sign-in instructions to out.
func Authenticate(ctx context.Context, tenantID, clientID, tokenPath string, out io.Writer) (*oauth2.Token, *oauth2.Config, error) {
	cfg := oauth2Config(tenantID, clientID)

	tok, err := loadToken(tokenPath)
	if err != nil {
		logger.Warn("ignoring saved token", "err", err)
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, cfg, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := saveToken(tokenPath, refreshed); err != nil {
				logger.Warn("could not save refreshed token", "err", err)
			}
			return refreshed, cfg, nil
		}
		logger.Info("token refresh failed, re-authenticating", "err", err)
	}

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(out, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(out, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(out)

	newTok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := saveToken(tokenPath, newTok); err != nil {
		logger.Warn("could not save token", "err", err)
	}
	return newTok, cfg, nil
}
