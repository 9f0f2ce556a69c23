package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/tubular/internal/config"
)

func newLoginCmd(c *cli) *cobra.Command {
	var creds config.YouTubeConfig

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save YouTube credentials",
		Long: `Save the YouTube Data API key and, optionally, an OAuth access token.
Without flags the API key is read from a hidden prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			// keep whatever is saved unless a flag overrides it
			merged := a.Config.YouTube
			if creds.APIKey != "" {
				merged.APIKey = creds.APIKey
			}
			if creds.AccessToken != "" {
				merged.AccessToken = creds.AccessToken
			}
			if creds.RefreshToken != "" {
				merged.RefreshToken = creds.RefreshToken
			}
			if creds.UserID != "" {
				merged.UserID = creds.UserID
			}

			if creds.APIKey == "" && creds.AccessToken == "" {
				cmd.Println()
				cmd.Println("YouTube Authentication")
				cmd.Println("━━━━━━━━━━━━━━━━━━━━━━")
				key, err := promptSecret(cmd, "API key: ")
				if err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}
				if key != "" {
					merged.APIKey = key
				}
			}

			if err := a.Session.SignIn(merged); err != nil {
				return err
			}
			cmd.Println("Credentials saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.APIKey, "api-key", "", "YouTube Data API key")
	cmd.Flags().StringVar(&creds.AccessToken, "access-token", "", "OAuth access token")
	cmd.Flags().StringVar(&creds.RefreshToken, "refresh-token", "", "OAuth refresh token")
	cmd.Flags().StringVar(&creds.UserID, "user-id", "", "channel id of the signed-in user")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user and clear local data",
		Long: `Remove the saved access and refresh tokens and clear the search history.
The API key is kept so anonymous browsing keeps working.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			if err := a.Session.SignOut(); err != nil {
				return err
			}
			cmd.Println("Signed out.")
			return nil
		},
	}
}

// promptSecret reads one line without echo when stdin is a terminal
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		cmd.Println() // Add newline after hidden input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
