package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/contentupgrade/auth"
	"evalgo.org/contentupgrade/internal/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a JWT for the service API",
	Long: `Issue an HS256 token signed with auth.jwt_secret. The token is accepted by a
service running with auth.mode=jwt in the Authorization: Bearer header.

Examples:
  contentupgrade token --subject ci-pipeline
  contentupgrade token --subject ops --role admin --hours 1

  # Print a fresh random secret for auth.jwt_secret
  contentupgrade token --new-secret`,
	RunE: runToken,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [key]",
	Short: "Hash an API key for auth.api_key_hash",
	Long: `Print the bcrypt hash of an API key. Configure the hash as auth.api_key_hash
so the plain key does not have to be stored with the service.

With --generate a random key is created and printed together with its hash.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashKey,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(hashKeyCmd)

	tokenCmd.Flags().String("subject", "", "token subject, e.g. the calling system")
	tokenCmd.Flags().String("role", auth.RoleUpgrader, "role claim (admin or upgrader)")
	tokenCmd.Flags().Int("hours", 0, "validity in hours (default: auth.token_ttl)")
	tokenCmd.Flags().Bool("new-secret", false, "print a random secret for auth.jwt_secret and exit")

	hashKeyCmd.Flags().Bool("generate", false, "generate a random API key")
}

func runToken(cmd *cobra.Command, _ []string) error {
	if newSecret, _ := cmd.Flags().GetBool("new-secret"); newSecret {
		secret, err := generateJWTSecret()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), secret)
		return nil
	}

	subject, _ := cmd.Flags().GetString("subject")
	role, _ := cmd.Flags().GetString("role")
	hours, _ := cmd.Flags().GetInt("hours")

	if subject == "" {
		return domain.NewValidationError("subject", "required")
	}
	if !auth.ValidRole(role) {
		return domain.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ttl := cfg.Auth.TokenTTL
	if hours > 0 {
		ttl = time.Duration(hours) * time.Hour
	}

	token, err := auth.GenerateToken(subject, role, cfg.Auth.Issuer, cfg.Auth.JWTSecret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runHashKey(cmd *cobra.Command, args []string) error {
	generate, _ := cmd.Flags().GetBool("generate")

	var key string
	switch {
	case generate:
		var err error
		if key, err = generateAPIKey(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key:  %s\n", key)
	case len(args) == 1:
		key = args[0]
	default:
		return domain.NewValidationError("key", "pass a key or use --generate")
	}

	hash, err := auth.HashAPIKey(key)
	if err != nil {
		return err
	}
	if generate {
		fmt.Fprintf(cmd.OutOrStdout(), "hash: %s\n", hash)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), hash)
	}
	return nil
}

// generateJWTSecret generates a random JWT secret
func generateJWTSecret() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// generateAPIKey generates a random URL-safe API key
func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
