package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wegpiraten/billing/internal/secrets"
)

var encryptKey string

var encryptCmd = &cobra.Command{
	Use:   "encrypt-secret <plaintext>",
	Short: "Encrypt a secret for the .env file",
	Long: `Encrypts a secret with Fernet. Without --key a fresh key is
generated and printed; store it as FERNET_KEY next to the token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if encryptKey != "" {
			token, err := secrets.EncryptWithKey(args[0], encryptKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
			return nil
		}
		key, token, err := secrets.Encrypt(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\ntoken: %s\n", secrets.FernetKeyEnv, key, token)
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVar(&encryptKey, "key", "", "existing Fernet key to encrypt with")
	rootCmd.AddCommand(encryptCmd)
}
