// Command adduser appends a user to the Users table. It is how the first
// teacher account gets created, since only teachers may add users over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/policy"
	"absensi/internal/store"
	"absensi/internal/user"
)

// operator stands in for the teacher that would otherwise create the user.
var operator = policy.Identity{Username: "adduser", Role: policy.RoleTeacher}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	var candidate user.Candidate
	var role string

	flagSet := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file (empty for environment only)")
	flagSet.StringVarP(&candidate.Username, "username", "u", "", "username (3-50 characters)")
	flagSet.StringVarP(&candidate.Password, "password", "p", "", "password (at least 6 characters)")
	flagSet.StringVarP(&role, "role", "r", string(policy.RoleTeacher), "one of guru, siswa, sekertaris, guru_wali_murid")
	flagSet.StringVar(&candidate.Class, "class", "", "class, required for every role except guru")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	candidate.Role = policy.Role(role)
	if candidate.Role != policy.RoleTeacher && candidate.Class == "" {
		return fmt.Errorf("--class is required for role %s", role)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx := context.Background()
	s, err := store.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	usersTable, _ := store.Tables(cfg)
	tokens := auth.NewTokenService(cfg.Server.JWTSecret, cfg.TokenTTL())
	repo := user.NewRepository(s, usersTable, tokens, cfg.Auth.PasswordMode)
	if err := repo.Create(ctx, operator, candidate); err != nil {
		return err
	}
	fmt.Printf("User created successfully: %s (%s)\n", candidate.Username, candidate.Role)
	return nil
}
