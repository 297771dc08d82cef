package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/internal/cli/output"
	"github.com/kyberchat/kyberchat/internal/cli/prompt"
	"github.com/kyberchat/kyberchat/pkg/config"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
	"github.com/kyberchat/kyberchat/pkg/validation"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management",
	Long: `Manage user accounts in the KyberChat database.

Accounts carry an ML-KEM public key that other participants use to wrap
room keys for them. Keys are generated client-side; the server only ever
stores the public half, so adding a user requires pasting or pointing at
an existing public key.

Examples:
  # List all users
  kyberchat user list

  # Add a user (prompts for password)
  kyberchat user add alice --public-key-file alice.pub

  # Deactivate an account without deleting its messages
  kyberchat user deactivate alice

  # Reactivate it later
  kyberchat user activate alice`,
}

var (
	userAddPublicKey     string
	userAddPublicKeyFile string
	userListOutput       string
	userDeactivateForce  bool
)

func init() {
	userAddCmd.Flags().StringVar(&userAddPublicKey, "public-key", "", "Base64-encoded ML-KEM public key")
	userAddCmd.Flags().StringVar(&userAddPublicKeyFile, "public-key-file", "", "File containing the base64-encoded ML-KEM public key")
	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "", "Output format: table, json, yaml (default: table)")
	userDeactivateCmd.Flags().BoolVarP(&userDeactivateForce, "force", "f", false, "Skip confirmation prompt")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeactivateCmd)
	userCmd.AddCommand(userActivateCmd)
}

// openStore loads the configuration and opens the relational store for a
// user subcommand. The caller must Close the returned store.
func openStore() (*config.Config, store.Store, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}

	if err := InitLogger(cfg); err != nil {
		return nil, nil, err
	}

	st, err := config.CreateStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, st, nil
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Long: `Add a new user account (prompts for password).

The account's ML-KEM public key must be supplied with --public-key or
--public-key-file. Generate the key pair with a KyberChat client; the
private key never leaves the client device.

Examples:
  # Add a user with the key inline
  kyberchat user add alice --public-key "hkyNWF4..."

  # Add a user with the key from a file
  kyberchat user add alice --public-key-file alice.pub`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	if err := validation.Username(username); err != nil {
		return err
	}

	publicKey := strings.TrimSpace(userAddPublicKey)
	if userAddPublicKeyFile != "" {
		if publicKey != "" {
			return fmt.Errorf("--public-key and --public-key-file are mutually exclusive")
		}
		data, err := os.ReadFile(userAddPublicKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read public key file: %w", err)
		}
		publicKey = strings.TrimSpace(string(data))
	}
	if publicKey == "" {
		return fmt.Errorf("an ML-KEM public key is required: use --public-key or --public-key-file")
	}
	if err := validation.PublicKey(publicKey); err != nil {
		return err
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", models.MinPasswordLength)
	if err != nil {
		if prompt.IsAborted(err) {
			return prompt.ErrAborted
		}
		return err
	}
	if cfg.Auth.ValidatePasswordStrength {
		if err := validation.PasswordStrength(password); err != nil {
			return err
		}
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := st.CreateUser(context.Background(), &models.User{
		Username:     username,
		PasswordHash: hash,
		PublicKey:    publicKey,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("✓ User %q created (id: %d)\n", username, id)
	return nil
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long: `List all user accounts.

Examples:
  # List users as a table
  kyberchat user list

  # List as JSON
  kyberchat user list -o json`,
	RunE: runUserList,
}

// UserList renders users as a table.
type UserList []*models.User

// Headers implements TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"ID", "USERNAME", "ACTIVE", "CREATED"}
}

// Rows implements TableRenderer.
func (ul UserList) Rows() [][]string {
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", u.ID),
			u.Username,
			active,
			u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func runUserList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(userListOutput)
	if err != nil {
		return err
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, users)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, users)
	default:
		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}
		return output.PrintTable(os.Stdout, UserList(users))
	}
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate <username>",
	Short: "Deactivate a user account",
	Long: `Deactivate a user account.

A deactivated account can no longer log in or open websocket sessions.
Its messages and key ledger entries stay intact, and rooms it belongs to
are unaffected. Use activate to restore access.

Examples:
  # Deactivate with confirmation prompt
  kyberchat user deactivate alice

  # Deactivate without prompting
  kyberchat user deactivate alice --force`,
	Args: cobra.ExactArgs(1),
	RunE: runUserDeactivate,
}

func runUserDeactivate(cmd *cobra.Command, args []string) error {
	username := args[0]

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Deactivate user %q", username), userDeactivateForce)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Aborted")
		return nil
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SetUserActive(context.Background(), username, false); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	fmt.Printf("✓ User %q deactivated\n", username)
	fmt.Println("Existing sessions end when their tokens expire; new logins are rejected immediately.")
	return nil
}

var userActivateCmd = &cobra.Command{
	Use:   "activate <username>",
	Short: "Reactivate a user account",
	Long: `Reactivate a previously deactivated user account.

Examples:
  kyberchat user activate alice`,
	Args: cobra.ExactArgs(1),
	RunE: runUserActivate,
}

func runUserActivate(cmd *cobra.Command, args []string) error {
	username := args[0]

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SetUserActive(context.Background(), username, true); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to activate user: %w", err)
	}

	fmt.Printf("✓ User %q activated\n", username)
	return nil
}
