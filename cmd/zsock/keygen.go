package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/workspace-9/zsock"
)

func newKeygenCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a Z85 encoded CURVE key pair",
		Long: `Generate a CURVE key pair. With --secret, the public key of an existing
secret key is derived instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				pair zsock.CurveKeyPair
				err  error
			)
			if secret != "" {
				pair.Secret = secret
				pair.Public, err = zsock.CurvePublicKey(secret)
			} else {
				pair, err = zsock.NewCurveKeyPair()
			}
			if err != nil {
				return fmt.Errorf("failed to generate key pair: %w", err)
			}

			data, err := yaml.Marshal(map[string]string{
				"public_key": pair.Public,
				"secret_key": pair.Secret,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "derive the public key of this Z85 secret key")
	return cmd
}
