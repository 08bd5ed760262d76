// Package gmailsource implements the email source and attachment
// fetcher against the Gmail API, including the OAuth2 installed-app
// flow that produces the stored token the client runs on.
package gmailsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

const oauthCallbackPath = "/callback"

// loadOAuthConfig reads an installed-app credentials JSON file as
// downloaded from the Google Cloud console.
func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}
	return cfg, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token file: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}

// authClient builds an HTTP client from a previously stored token. It
// does not start an interactive flow; callers without a token are told
// to connect first.
func authClient(ctx context.Context, credentialsPath, tokenPath string) (*http.Client, error) {
	cfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no stored token at %s, run the connect flow first: %w", tokenPath, err)
	}
	return cfg.Client(ctx, tok), nil
}

// Connect runs the interactive consent flow: it starts a loopback
// listener, returns the consent URL through openURL, waits for the
// redirect, exchanges the code and stores the token at tokenPath.
func Connect(ctx context.Context, credentialsPath, tokenPath string, openURL func(url string) error) error {
	cfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("starting callback listener: %w", err)
	}
	defer lis.Close()

	cfg.RedirectURL = fmt.Sprintf("http://%s%s", lis.Addr().String(), oauthCallbackPath)
	authURL := cfg.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+oauthCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			http.Error(w, "authorization failed: "+errMsg, http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization denied: %s", errMsg)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			errCh <- errors.New("callback without authorization code")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html dir="rtl"><body><h1>האימות הושלם בהצלחה</h1><p>אפשר לסגור את החלון הזה</p></body></html>`)
		codeCh <- code
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(lis) //nolint:errcheck
	defer srv.Close()

	if err := openURL(authURL); err != nil {
		return fmt.Errorf("opening consent url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := saveToken(tokenPath, tok); err != nil {
		return err
	}
	return nil
}
