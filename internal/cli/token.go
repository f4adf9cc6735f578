package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/service"
)

type tokenOptions struct {
	userID string
	name   string
	email  string
	role   string
	secret string
	issuer string
	expiry time.Duration
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Long: `Mint an HS256 access token accepted by the API's JWT middleware.
The secret must match JWT_SECRET of the running API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, root)
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user-id", "", "Subject user id")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name (config: user)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email claim")
	cmd.Flags().StringVar(&opts.role, "role", string(models.RoleUser), "Role: ADMIN, USER, MANAGER or VIEWER")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Signing secret (config: secret)")
	cmd.Flags().StringVar(&opts.issuer, "issuer", "", "Issuer claim")
	cmd.Flags().DurationVar(&opts.expiry, "expiry", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (o *tokenOptions) run(cmd *cobra.Command, root *rootOptions) error {
	out := cmd.OutOrStdout()
	mode, err := resolveOutput(root.output, out)
	if err != nil {
		return err
	}

	secret := o.secret
	if secret == "" {
		secret = root.cfg.Secret
	}
	if secret == "" {
		return fmt.Errorf("no signing secret: pass --secret or set secret in the config")
	}
	role := models.UserRole(strings.ToUpper(o.role))
	if !slices.Contains(models.AvailableRoles(), role) {
		return fmt.Errorf("unknown role %q", o.role)
	}
	name := o.name
	if name == "" {
		name = root.cfg.User
	}

	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: secret,
		AccessTokenExpiry: o.expiry,
		Issuer:            o.issuer,
	})
	token, expiresAt, err := auth.IssueToken(models.UserInfo{ID: o.userID, FullName: name, Email: o.email, Role: role})
	if err != nil {
		return err
	}

	if mode == outputJSON {
		return writeJSON(out, tokenOutput{Token: token, ExpiresAt: expiresAt})
	}
	fmt.Fprintln(out, token)
	return nil
}
