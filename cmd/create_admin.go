package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphadocs/alphadocs/internal/config"
	"github.com/alphadocs/alphadocs/internal/db"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Interactively create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "alphadocs.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		usernamePrompt := promptui.Prompt{
			Label: "Admin username",
			Validate: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return fmt.Errorf("username cannot be empty")
				}
				return nil
			},
		}
		username, err := usernamePrompt.Run()
		if err != nil {
			return err
		}
		username = strings.TrimSpace(username)

		emailPrompt := promptui.Prompt{Label: "Email (optional)"}
		email, err := emailPrompt.Run()
		if err != nil {
			return err
		}

		passwordPrompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if len(input) < 6 {
					return fmt.Errorf("password must be at least 6 characters")
				}
				return nil
			},
		}
		password, err := passwordPrompt.Run()
		if err != nil {
			return err
		}

		confirmPrompt := promptui.Prompt{
			Label: "Confirm password",
			Mask:  '*',
			Validate: func(input string) error {
				if input != password {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			},
		}
		if _, err := confirmPrompt.Run(); err != nil {
			return err
		}

		if err := createAdmin(cmd.Context(), database, username, strings.TrimSpace(email), password); err != nil {
			return err
		}
		fmt.Printf("Admin account %q created.\n", username)
		return nil
	},
}

// createAdmin inserts a pre-approved admin user. Admin accounts bypass
// the registration approval flow entirely.
func createAdmin(ctx context.Context, database *db.DB, username, email, password string) error {
	var count int
	if err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?1`, username).Scan(&count); err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("username %q already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = database.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_admin, is_approved, comment_needs_approval, created_at)
		 VALUES (?1, ?2, ?3, ?4, 1, 1, 0, ?5)`,
		uuid.NewString(), username, email, string(hash),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
}
