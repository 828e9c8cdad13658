package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"regie/internal/domain/auth"
)

func newTokenCommand(state *rootState) *cobra.Command {
	var (
		tenantID string
		userID   string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if state.cfg.IsProduction() {
				return errors.New("token minting is disabled in production")
			}
			if strings.TrimSpace(state.cfg.JWTSecret) == "" {
				return errors.New("JWT_SECRET is required")
			}
			if !auth.KnownRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := auth.GenerateToken(state.cfg.JWTSecret, auth.Claims{
				UserID:   userID,
				TenantID: tenantID,
				RoleName: strings.ToLower(strings.TrimSpace(role)),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", auth.RoleViewer, "role name")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
