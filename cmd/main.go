package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"signalengine/src/database"
	"signalengine/src/repository"
	"signalengine/src/security"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Signalengine CMD"
	app.Usage = "The signalengine command line interface"

	app.Commands = []cli.Command{
		clearLogsCMD,
		hashTokenCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var clearLogsCMD = cli.Command{
	Name:        "clear_logs",
	Usage:       "delete all webhook log entries",
	Action:      clearLogsAction,
	ArgsUsage:   "",
	Flags:       []cli.Flag{},
	Description: `Wipe the webhook log table. Destructive maintenance command.`,
}

func clearLogsAction(_ *cli.Context) error {

	logrus.Info("Starting clear_logs CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	deleted, err := repository.NewWebhookLogRepository().Clear(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	logrus.WithField("deleted", deleted).Info("Webhook log cleared")
	return nil
}

var hashTokenCMD = cli.Command{
	Name:        "hash_token",
	Usage:       "print the bcrypt hash of a webhook token",
	Action:      hashTokenAction,
	ArgsUsage:   "<token>",
	Flags:       []cli.Flag{},
	Description: `Derive the WEBHOOK_TOKEN_HASH value for a plaintext token.`,
}

func hashTokenAction(c *cli.Context) error {
	token := c.Args().First()
	if token == "" {
		return fmt.Errorf("usage: hash_token <token>")
	}

	hash, err := security.HashToken(token)
	if err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}
