package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"golang.org/x/term"

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driving/oauth"
	googleconn "github.com/custodia-labs/mailrag-cli/internal/connectors/google"
)

// googleScopes are the scopes requested during authorisation. Read-only
// access is enough for ingestion.
var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/calendar.readonly",
}

// authTimeout bounds how long we wait for the browser round trip.
const authTimeout = 5 * time.Minute

var (
	authClientID     string
	authClientSecret string
	authNoBrowser    bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorise access to your Google account",
	Long: `Runs the Google OAuth2 flow and stores the resulting tokens in the
config file. A browser window opens to Google's consent screen; the
authorization code is delivered back via a local callback server.

You need an OAuth client ID of type "Desktop app" from the Google Cloud
console, with the Gmail, Drive and Calendar APIs enabled.`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().StringVar(&authClientID, "client-id", "", "OAuth client ID (default from config)")
	authCmd.Flags().StringVar(&authClientSecret, "client-secret", "", "OAuth client secret (default from config)")
	authCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	clientID, clientSecret, err := resolveClientCredentials(cmd)
	if err != nil {
		return err
	}

	state := oauth.GenerateState()
	verifier := oauth2.GenerateVerifier()

	server := oauth.NewCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer server.Stop() //nolint:errcheck

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  server.RedirectURI(),
		Scopes:       googleScopes,
	}

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier))

	if authNoBrowser {
		cmd.Printf("Open this URL in your browser:\n\n%s\n\n", authURL)
	} else if err := oauth.OpenBrowser(authURL); err != nil {
		cmd.Printf("Could not open a browser. Open this URL manually:\n\n%s\n\n", authURL)
	}

	cmd.Println("Waiting for authorisation...")
	code, err := server.WaitForCode(authTimeout)
	if err != nil {
		return fmt.Errorf("authorisation failed: %w", err)
	}

	ctx := cmd.Context()
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	if err := saveCredentials(clientID, clientSecret, token); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	// The account's email address becomes the user ID all ingested
	// data is scoped to.
	userInfo, err := googleconn.GetUserInfo(ctx, token.AccessToken)
	if err == nil && userInfo.Email != "" {
		if err := configStore.Set("user.id", userInfo.Email); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		cmd.Printf("Authorised as %s.\n", userInfo.Email)
	} else {
		cmd.Println("Authorised. Set your account with: mailrag config set user.id <email>")
	}

	return nil
}

// resolveClientCredentials takes the OAuth client credentials from
// flags, then config, then interactive prompt.
func resolveClientCredentials(cmd *cobra.Command) (string, string, error) {
	clientID := authClientID
	if clientID == "" {
		clientID = configStore.GetString("google.client_id")
	}
	clientSecret := authClientSecret
	if clientSecret == "" {
		clientSecret = configStore.GetString("google.client_secret")
	}

	if clientID == "" {
		cmd.Print("OAuth client ID: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("read client ID: %w", err)
		}
		clientID = strings.TrimSpace(line)
	}
	if clientID == "" {
		return "", "", errors.New("an OAuth client ID is required")
	}

	if clientSecret == "" {
		cmd.Print("OAuth client secret (input hidden): ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		cmd.Println()
		if err != nil {
			return "", "", fmt.Errorf("read client secret: %w", err)
		}
		clientSecret = strings.TrimSpace(string(secret))
	}

	return clientID, clientSecret, nil
}

// saveCredentials persists everything the token provider needs across
// restarts.
func saveCredentials(clientID, clientSecret string, token *oauth2.Token) error {
	pairs := map[string]string{
		"google.client_id":     clientID,
		"google.client_secret": clientSecret,
		"google.access_token":  token.AccessToken,
	}
	if token.RefreshToken != "" {
		pairs["google.refresh_token"] = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		pairs["google.token_expiry"] = token.Expiry.Format(time.RFC3339)
	}

	for key, value := range pairs {
		if err := configStore.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}
