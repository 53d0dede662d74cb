package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"masteraccount/internal/auth"
)

const defaultAdminsFile = "admins.yaml"

func newHashPasswordCommand() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newAddAdminCommand() *cobra.Command {
	var (
		path      string
		fromStdin bool
		withTOTP  bool
		qrPath    string
	)

	cmd := &cobra.Command{
		Use:   "add-admin USERNAME",
		Short: "Add an admin to the admins file, or reset an existing admin's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return fmt.Errorf("username is required")
			}

			admins, err := readAdmins(path)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			admin := auth.Admin{Username: username, PasswordHash: hash}
			if i := indexOf(admins, username); i >= 0 {
				admin.TOTPSecret = admins[i].TOTPSecret
				admins[i] = admin
			} else {
				admins = append(admins, admin)
			}

			if withTOTP {
				secret, err := enrollTOTP(cmd, username, qrPath)
				if err != nil {
					return err
				}
				admins[indexOf(admins, username)].TOTPSecret = secret
			}

			if _, err := auth.New(admins); err != nil {
				return err
			}
			if err := auth.WriteFile(path, admins); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved admin %s to %s\n", username, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", defaultAdminsFile, "Admins file")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&withTOTP, "totp", false, "Also enroll a TOTP second factor")
	cmd.Flags().StringVar(&qrPath, "qr", "", "Write the TOTP enrollment QR code PNG to this path")
	return cmd
}

func newTOTPCommand() *cobra.Command {
	var (
		path    string
		qrPath  string
		disable bool
	)

	cmd := &cobra.Command{
		Use:   "totp USERNAME",
		Short: "Enroll or remove the TOTP second factor of an existing admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			admins, err := auth.ReadFile(path)
			if err != nil {
				return err
			}
			i := indexOf(admins, username)
			if i < 0 {
				return fmt.Errorf("admin %q not found in %s", username, path)
			}

			if disable {
				admins[i].TOTPSecret = ""
			} else {
				secret, err := enrollTOTP(cmd, username, qrPath)
				if err != nil {
					return err
				}
				admins[i].TOTPSecret = secret
			}

			if err := auth.WriteFile(path, admins); err != nil {
				return err
			}
			if disable {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed TOTP for %s\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", defaultAdminsFile, "Admins file")
	cmd.Flags().StringVar(&qrPath, "qr", "", "Write the enrollment QR code PNG to this path")
	cmd.Flags().BoolVar(&disable, "disable", false, "Remove the second factor instead of enrolling one")
	return cmd
}

// enrollTOTP generates a secret for username, prints it with its otpauth
// URL, and optionally writes a scannable QR code.
func enrollTOTP(cmd *cobra.Command, username, qrPath string) (string, error) {
	key, err := auth.GenerateTOTP(username)
	if err != nil {
		return "", err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "TOTP secret for %s: %s\n", username, key.Secret())
	fmt.Fprintf(out, "otpauth URL: %s\n", key.URL())

	if qrPath != "" {
		png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
		if err != nil {
			return "", fmt.Errorf("encode qr code: %w", err)
		}
		if err := os.WriteFile(qrPath, png, 0o600); err != nil {
			return "", fmt.Errorf("write qr code: %w", err)
		}
		fmt.Fprintf(out, "QR code written to %s\n", qrPath)
	}
	return key.Secret(), nil
}

// readAdmins returns the admins stored at path. A missing file is an empty list.
func readAdmins(path string) ([]auth.Admin, error) {
	admins, err := auth.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return admins, err
}

func indexOf(admins []auth.Admin, username string) int {
	for i, a := range admins {
		if a.Username == username {
			return i
		}
	}
	return -1
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line. With fromStdin the whole of stdin is the password.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return strings.TrimRight(strings.TrimRight(string(data), "\n"), "\r"), nil
	}

	if file, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
