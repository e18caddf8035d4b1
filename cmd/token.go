package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/research-hub/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token <email>",
	Short: "Mint a bearer token for the given user email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.AuthSecret == "" {
			return eris.New("auth secret is required (RESEARCHHUB_SERVER_AUTH_SECRET)")
		}

		token, err := server.NewTokenService(cfg.Server.AuthSecret).GenerateToken(args[0])
		if err != nil {
			return eris.Wrap(err, "generate token")
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
