package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/session"
	"github.com/felixgeelhaar/vulnark/internal/ux"
)

// ciEnvVars disable prompts when any of them is set.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
}

// ShouldPrompt reports whether forms may be shown: not in CI, and both stdin
// and out are terminals.
func ShouldPrompt(out io.Writer) bool {
	for _, name := range ciEnvVars {
		if os.Getenv(name) != "" {
			return false
		}
	}
	return ux.Interactive(out)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func minLength(field string, n int) func(string) error {
	return func(s string) error {
		if len([]rune(s)) < n {
			return fmt.Errorf("%s must be at least %d characters", field, n)
		}
		return nil
	}
}

func sameAs(other *string) func(string) error {
	return func(s string) error {
		if s != *other {
			return errors.New("passwords do not match")
		}
		return nil
	}
}

// LoginForm builds the login form. creds.Username pre-fills the username.
func LoginForm(creds *session.Credentials) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Username").
			Value(&creds.Username).
			Validate(required("username")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password).
			Validate(required("password")),
	))
}

// PromptLogin asks for credentials.
func PromptLogin(username string) (session.Credentials, error) {
	creds := session.Credentials{Username: username}
	if err := LoginForm(&creds).Run(); err != nil {
		return session.Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	return creds, nil
}

// RegisterForm builds the self-registration form.
func RegisterForm(req *api.RegisterRequest) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&req.Username).Validate(required("username")),
			huh.NewInput().Title("Full name").Value(&req.FullName).Validate(required("full name")),
			huh.NewInput().Title("Email").Value(&req.Email).Validate(required("email")),
			huh.NewInput().Title("Phone").Description("Optional").Value(&req.Phone),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&req.Password).
				Validate(minLength("password", 6)),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&req.ConfirmPassword).
				Validate(sameAs(&req.Password)),
		),
	)
}

// PromptRegistration collects a registration request.
func PromptRegistration() (api.RegisterRequest, error) {
	var req api.RegisterRequest
	if err := RegisterForm(&req).Run(); err != nil {
		return api.RegisterRequest{}, fmt.Errorf("prompt failed: %w", err)
	}
	return req, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// PromptForSelect displays a selection prompt with multiple options
func PromptForSelect(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	var selected string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(message).
			Options(huh.NewOptions(options...)...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}
