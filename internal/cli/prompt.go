package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// Credentials are what the login form collects.
type Credentials struct {
	Email    string
	Password string
}

// PromptLogin asks for whatever part of creds is missing.
func PromptLogin(creds Credentials) (Credentials, error) {
	var fields []huh.Field

	if creds.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("voce@exemplo.com").
			Validate(requireEmail).
			Value(&creds.Email))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(requireValue("password")).
			Value(&creds.Password))
	}
	if len(fields) == 0 {
		return creds, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return Credentials{}, fmt.Errorf("login prompt failed: %w", err)
	}

	creds.Email = strings.TrimSpace(creds.Email)
	return creds, nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(message string) (bool, error) {
	var confirmed bool

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}

func requireEmail(s string) error {
	if !strings.Contains(s, "@") {
		return errors.New("enter a valid email")
	}
	return nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
