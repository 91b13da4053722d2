package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/sketchbox/internal/session"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
)

// passwordEnv lets scripts avoid passing the password as a flag.
const passwordEnv = "SKETCHBOX_PASSWORD"

var (
	emailFlag    string
	passwordFlag string
	usernameFlag string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the animation service and keep the token locally",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the animation service",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&emailFlag, "email", "", "Account email")
		c.Flags().StringVar(&passwordFlag, "password", "", "Account password (or "+passwordEnv+")")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&usernameFlag, "username", "", "Display name")
	_ = registerCmd.MarkFlagRequired("username")
}

func password() (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("password required: pass --password or set %s", passwordEnv)
}

func runLogin(cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Session == nil {
		return errors.New("credential store unavailable")
	}

	res, err := a.Client.Login(cmd.Context(), types.LoginRequest{Email: emailFlag, Password: pw})
	if err != nil {
		return err
	}
	if err := a.Session.Login(res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", res.User.Username)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Session == nil {
		return errors.New("credential store unavailable")
	}

	res, err := a.Client.Register(cmd.Context(), types.RegisterRequest{
		Username: usernameFlag,
		Email:    emailFlag,
		Password: pw,
	})
	if err != nil {
		return err
	}
	if err := a.Session.Login(res); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", res.User.Username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Session == nil {
		return nil
	}
	if err := a.Session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Session == nil {
		return session.ErrNotAuthenticated
	}

	user, err := a.Session.User()
	if err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), user)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Username, user.Email)
	return nil
}
