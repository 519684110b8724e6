package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stopwatch-io/stopwatch-ce/internal/auth"
	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/config"
	"github.com/stopwatch-io/stopwatch-ce/internal/database"
	"github.com/stopwatch-io/stopwatch-ce/internal/email"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Create a user and email the generated password",
	Long: `Creates an account with a generated password. The password is
mailed to the new user and never printed; without email configured the
command refuses to run.`,
	RunE: runAddUser,
}

var (
	userNameFlag  string
	userEmailFlag string
	userGroupFlag int64
)

func init() {
	addUserCmd.Flags().StringVar(&userNameFlag, "name", "", "Login name (required)")
	addUserCmd.Flags().StringVar(&userEmailFlag, "email", "", "Email address (required)")
	addUserCmd.Flags().Int64Var(&userGroupFlag, "group", 1, "Usergroup id")
	addUserCmd.MarkFlagRequired("name")
	addUserCmd.MarkFlagRequired("email")
}

func runAddUser(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()
	if !cfg.Email.Enabled {
		return fmt.Errorf("email delivery is disabled; the generated password could not reach the user")
	}

	clk, err := clock.New(cfg.App.Timezone)
	if err != nil {
		return err
	}
	db, err := database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Name:     cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	password := auth.RandomPassword()
	user := &models.User{
		Name:        userNameFlag,
		Email:       userEmailFlag,
		UsergroupID: userGroupFlag,
		CreateTime:  clk.Now(),
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := repository.NewSQLUserRepository(db).Create(context.Background(), user); err != nil {
		return err
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.Email.SMTP.Host,
		Port:     fmt.Sprintf("%d", cfg.Email.SMTP.Port),
		Username: cfg.Email.SMTP.User,
		Password: cfg.Email.SMTP.Password,
		From:     cfg.Email.From,
		UseTLS:   cfg.Email.SMTP.TLS,
	})
	msg := &email.Message{
		To:      userEmailFlag,
		Subject: "Your time tracking account",
		Body:    "Account: " + userNameFlag + "\r\nPassword: " + password + "\r\n",
	}
	if err := mailer.Send(msg); err != nil {
		return fmt.Errorf("user %d created but credentials mail failed: %w", user.ID, err)
	}

	fmt.Printf("user %d created; credentials sent to %s\n", user.ID, userEmailFlag)
	return nil
}
