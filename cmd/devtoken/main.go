// 開発用トークン発行ツール。
// auth.mode=jwt で起動したサービスに渡すHS256署名のBearerトークンを標準出力に出力する。
//
//	devtoken --tenant T1 --user U1 --role student --secret <署名鍵>
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nao1215/enrollment/internal/auth"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd はトークン発行コマンドを生成する。
func newRootCmd() *cobra.Command {
	var (
		id     auth.Identity
		role   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "devtoken",
		Short:        "開発用のBearerトークンを発行する",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return errors.New("署名鍵を --secret または ENROLLMENT_AUTH_JWT_SECRET で指定してください")
			}
			id.Role = auth.Role(role)
			token, err := auth.IssueToken(secret, id, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&id.TenantID, "tenant", "", "テナントID")
	cmd.Flags().StringVar(&id.UserID, "user", "", "ユーザーID")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleStudent), "ロール (student|admin)")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("ENROLLMENT_AUTH_JWT_SECRET"), "署名鍵")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "有効期間")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
