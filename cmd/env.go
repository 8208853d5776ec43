package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/guard"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/prompt"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/secrets"
	"github.com/spigell/resume-analyzer/internal/session"
)

// environment is everything a command needs, wired from the config.
type environment struct {
	config   *Config
	logger   *zap.Logger
	store    *session.Store
	client   *remote.Client
	terminal *prompt.Terminal
	guard    *guard.Guard
}

func setup() *environment {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting with config",
		zap.String("base_url", config.BaseURL),
		zap.String("state_dir", config.StateDir),
		zap.Duration("timeout", config.Timeout),
		zap.String("version", version),
	)

	store, err := session.New(session.NewFileBackend(config.StateDir), logger)
	if err != nil {
		logger.Fatal("loading the stored session", zap.Error(err), zap.String("state_dir", config.StateDir))
	}

	client := remote.New(store, logger)
	client.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}

	return &environment{
		config:   config,
		logger:   logger,
		store:    store,
		client:   client,
		terminal: prompt.NewTerminal(config.Yes, logger),
		guard:    guard.New(store, client, logger),
	}
}

// credentials resolves the username and password for a login. Values from
// flags and config win, the rest is prompted for.
func (e *environment) credentials(username string) guard.LoginFunc {
	return func(context.Context) (string, string, error) {
		if username == "" {
			username = e.config.Username
		}

		password, err := secrets.Load(secrets.Source{
			Name:     "password",
			File:     e.config.PasswordFile,
			Optional: true,
		})
		if err != nil {
			return "", "", err
		}

		if username == "" {
			if username, err = e.terminal.Ask("Username"); err != nil {
				return "", "", err
			}
		}
		if password == "" {
			if password, err = e.terminal.AskSecret("Password"); err != nil {
				return "", "", err
			}
		}

		return username, password, nil
	}
}

func (e *environment) fatal(msg string, err error, fields ...zap.Field) {
	e.logger.Fatal(msg, append(fields, zap.Error(err))...)
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
