package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/secsvc"
)

func main() {
	f := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var (
		dbPath = f.String("db", "keyward.db", "keychain store file path")
		debug  = f.Bool("debug", false, "log debug messages")
	)
	f.Usage = func() {
		fmt.Fprintf(f.Output(), "%s [flags] <subcommand> [flags]\n", f.Name())
		fmt.Fprint(f.Output(), "\nFlags:\n")
		f.PrintDefaults()
		fmt.Fprint(f.Output(), "\nSubcommands:\n")
		fmt.Fprintln(f.Output(), "    store\tstore a secret")
		fmt.Fprintln(f.Output(), "    get\tretrieve a secret")
		fmt.Fprintln(f.Output(), "    rm\tremove a secret")
		fmt.Fprintln(f.Output(), "    ls\tlist items")
		fmt.Fprintln(f.Output(), "    export\texport items to a plist")
		fmt.Fprintln(f.Output(), "    import\timport items from a plist")
		fmt.Fprintln(f.Output(), "    inspect\tprint a stored certificate")
		fmt.Fprintln(f.Output(), "    rand\tgenerate a random secret")
	}
	f.Parse(os.Args[1:])

	if len(f.Args()) < 1 {
		fmt.Fprintln(f.Output(), "no subcommand supplied")
		f.Usage()
		os.Exit(2)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if !*debug {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	env := &cmdEnv{dbPath: *dbPath, logger: logger}

	var err error
	switch f.Args()[0] {
	case "store":
		err = storeCmd(env, f.Args()[1:], f.Usage)
	case "get":
		err = getCmd(env, f.Args()[1:], f.Usage)
	case "rm":
		err = rmCmd(env, f.Args()[1:], f.Usage)
	case "ls":
		err = lsCmd(env, f.Args()[1:], f.Usage)
	case "export":
		err = exportCmd(env, f.Args()[1:], f.Usage)
	case "import":
		err = importCmd(env, f.Args()[1:], f.Usage)
	case "inspect":
		err = inspectCmd(env, f.Args()[1:], f.Usage)
	case "rand":
		err = randCmd(f.Args()[1:], f.Usage)
	case "help":
		f.Usage()
	default:
		fmt.Fprintf(f.Output(), "invalid subcommand: %s\n", f.Args()[0])
		f.Usage()
		os.Exit(2)
	}
	if err != nil {
		level.Error(logger).Log("err", err)
		os.Exit(1)
	}
}

type cmdEnv struct {
	dbPath string
	logger log.Logger
}

// open unlocks the Bolt-backed store with the passphrase from the
// environment. The caller must Close the returned service.
func (env *cmdEnv) open() (*keyward.Keychain, *secsvc.BoltService, error) {
	passphrase := os.Getenv("KEYWARD_PASSPHRASE")
	if passphrase == "" {
		return nil, nil, fmt.Errorf("KEYWARD_PASSPHRASE not set")
	}
	svc, err := secsvc.OpenBolt(env.dbPath, []byte(passphrase), level.Debug(env.logger))
	if err != nil {
		return nil, nil, err
	}
	kc := keyward.New(svc, keyward.WithLogger(level.Debug(env.logger)))
	return kc, svc, nil
}
