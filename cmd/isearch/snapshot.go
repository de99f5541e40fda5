package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"isearch/internal/app"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export and import encrypted catalog snapshots",
}

var snapshotKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		return withApp("snapshot-keygen", func(a *app.App) error {
			if a.HasKeys() && !force {
				return fmt.Errorf("keys already exist; use --force to replace them (older snapshots become unreadable)")
			}

			pass, err := readPassphrase("New passphrase: ")
			if err != nil {
				return err
			}
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if pass != confirm {
				return fmt.Errorf("passphrases do not match")
			}

			if err := a.GenerateKeys(pass); err != nil {
				return err
			}
			fmt.Printf("Public key:  %s\n", a.Config().Encryption.PublicKeyPath)
			fmt.Printf("Private key: %s\n", a.Config().Encryption.PrivateKeyPath)
			return nil
		})
	},
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an encrypted copy of the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		return withApp("snapshot-export", func(a *app.App) error {
			p, err := a.ExportSnapshot(dir)
			if err != nil {
				return err
			}
			fmt.Println(p)
			return nil
		})
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the catalog with an encrypted snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		dest, err := app.ImportSnapshot(cfg, args[0], pass, force)
		if err != nil {
			return err
		}
		fmt.Printf("Catalog restored to %s\n", dest)
		return nil
	},
}

func init() {
	snapshotKeygenCmd.Flags().Bool("force", false, "Replace existing keys")
	snapshotExportCmd.Flags().String("dir", "", "Output directory (default <base_dir>/snapshots)")
	snapshotImportCmd.Flags().Bool("force", false, "Overwrite the existing catalog")

	snapshotCmd.AddCommand(snapshotKeygenCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
	rootCmd.AddCommand(snapshotCmd)
}
