// Package app wires configuration, logging and the PostgreSQL repositories
// into the operator commands of vaultctl.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/config"
	"github.com/dmitrijs2005/gophvault/internal/integration"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
)

var ErrUsage = errors.New("usage error")

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	repos    repomanager.RepositoryManager
	changers *integration.Registry
	out      io.Writer
	prompt   io.Writer
	now      func() time.Time
}

// NewApp connects to the configured database. Logs go to stderr and command
// output to stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, os.Stderr)

	db, err := repomanager.Open(ctx, c.DatabaseDSN, c.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(c, logger, db, repomanager.NewPostgresRepositoryManager(), os.Stdout, os.Stderr), nil
}

func newApp(c *config.Config, l logging.Logger, db *sql.DB, repos repomanager.RepositoryManager, out, prompt io.Writer) *App {
	return &App{
		config:   c,
		logger:   l,
		db:       db,
		repos:    repos,
		changers: integration.NewDefaultRegistry(l),
		out:      out,
		prompt:   prompt,
		now:      time.Now,
	}
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// globalFlags take a value and belong to config, not to a command.
var globalFlags = map[string]bool{
	"-d": true, "-l": true, "-g": true, "-m": true, "-t": true, "-c": true, "-config": true,
}

// splitCommand finds the command name after the global flags and returns it
// with the arguments that follow it.
func splitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return arg, args[i+1:]
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if globalFlags[arg] {
			i++
		}
	}
	return "", nil
}

const usage = `usage: vaultctl [-d dsn] [-l level] [-g admin-group] [-m depth] [-t seconds] [-c file] <command> [args]

commands:
  migrate                                   apply database migrations
  search   -user NAME USERNAME LOCATION     ids of readable items with that username
  expiring -user NAME                       items expired or about to expire
  grant    -user NAME -item ID [-overwrite] [-replace] (user|group):NAME=PERM...
  change   -user NAME -item ID              rotate the password through the location's changer
  delete   -user NAME -item ID              delete an item and all access to it
  changers                                  registered password changers
`

// Run executes the command named in args, which are the process arguments
// without the program name.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)

	a.logger.Debug(ctx, "running command", "command", cmd)

	switch cmd {
	case "migrate":
		return a.migrate(ctx)
	case "search":
		return a.search(ctx, rest)
	case "expiring":
		return a.expiring(ctx, rest)
	case "grant":
		return a.grant(ctx, rest)
	case "change":
		return a.change(ctx, rest)
	case "delete":
		return a.remove(ctx, rest)
	case "changers":
		return a.listChangers()
	case "", "help":
		fmt.Fprint(a.out, usage)
		if cmd == "" {
			return ErrUsage
		}
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}
