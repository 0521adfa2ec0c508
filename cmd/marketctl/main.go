// Command marketctl управляет рынком из командной строки поверх того же
// хранилища, что и демон agromarket. Результаты печатаются в JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/app"
)

const usage = `usage: marketctl <command> [args]

commands:
  seed                                   run the one-time seed migration
  products list [-seller M] [-stats]     list catalog products
  products get <id>                      product with ledger statistics
  products add -seller M -name N -unit U -price P -stock S [-initial I] [-image URL] [-date YYYY-MM-DD]
  products update <id> field=value...    edit name, imageUrl, unit, pricePerUnit
  products delete <id>
  orders create -product ID -qty Q [-buyer M] [-seller M] [-price P]
  orders get <id>
  orders list [-seller M | -buyer M | -product ID]
  stats [-seller M]                      seller dashboard totals
  legacy-user [M]                        seller with embedded products
  reconcile [-check] [-product ID]       heal stock drift from the ledger
  users list | users get <mobile>
  login [-role farmer|consumer] <mobile> | logout | whoami
  units                                  supported units of measure
  outbox stats | outbox failed | outbox requeue
`

var errUsage = errors.New("invalid usage")

type handler func(env *env, args []string) error

// env — общее окружение команд.
type env struct {
	deps   *app.Dependencies
	stdout io.Writer
}

var commands = map[string]handler{
	"seed":        runSeed,
	"products":    runProducts,
	"orders":      runOrders,
	"stats":       runStats,
	"legacy-user": runLegacyUser,
	"reconcile":   runReconcile,
	"users":       runUsers,
	"login":       runLogin,
	"logout":      runLogout,
	"whoami":      runWhoami,
	"units":       runUnits,
	"outbox":      runOutbox,
}

func main() {
	cfg, warnings := app.ConfigFromEnv(os.LookupEnv)

	log.SetOutput(os.Stderr)
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil || level > log.WarnLevel {
		level = log.WarnLevel
	}
	log.SetLevel(level)
	for _, w := range warnings {
		log.Warn(w)
	}

	deps, err := app.NewDependencies(context.Background(), cfg, log.WithField("component", "marketctl"))
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = run(deps, os.Args[1:], os.Stdout)
	if closeErr := deps.Close(); closeErr != nil {
		log.WithError(closeErr).Warn("failed to close storage")
	}

	switch {
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(os.Stderr, err)
		_, _ = fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	case err != nil:
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run выполняет одну команду.
func run(deps *app.Dependencies, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command is required", errUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q (known: %s)", errUsage, args[0], strings.Join(commandNames(), ", "))
	}
	return cmd(&env{deps: deps, stdout: stdout}, args[1:])
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// flags создаёт набор флагов подкоманды, не пишущий в stderr.
func flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// sessionMobile возвращает явно переданный номер или номер из сессии.
func (e *env) sessionMobile(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if mobile, ok := e.deps.Session.MobileNumber(); ok {
		return mobile, nil
	}
	return "", fmt.Errorf("%w: mobile number is required (pass it or login first)", errUsage)
}

func subcommand(args []string, name string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: %s requires a subcommand", errUsage, name)
	}
	return args[0], args[1:], nil
}

func singleArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s requires exactly one %s", errUsage, fs.Name(), what)
	}
	return fs.Arg(0), nil
}
