package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quiz-client/internal/domain"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the session tokens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			username := ""
			if len(args) > 0 {
				username = args[0]
			} else {
				username, err = promptLine("Username: ")
				if err != nil {
					return err
				}
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			if err := client.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", username)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account (does not log you in)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			username := ""
			if len(args) > 0 {
				username = args[0]
			} else {
				username, err = promptLine("Username: ")
				if err != nil {
					return err
				}
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			user, err := client.Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Account %q created, log in with: quiz-client login %s\n", user.Username, user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			client.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			if !client.IsAuthenticated() {
				fmt.Println("Not logged in (guest)")
				return nil
			}
			user, err := client.Me(cmd.Context())
			if err != nil {
				if domain.IsUnauthorized(err) || errors.Is(err, domain.ErrCredentialRejected) || errors.Is(err, domain.ErrNoRefreshToken) {
					// Stored tokens are no longer usable; drop to guest.
					client.Logout()
					fmt.Println("Session expired, logged out (guest)")
					return nil
				}
				return err
			}
			fmt.Printf("%s", user.Username)
			if user.Email != "" {
				fmt.Printf(" <%s>", user.Email)
			}
			fmt.Println()
			return nil
		},
	}
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(password), nil
}
