// storefront is a command-line shopper for the storefront backend.
// Each command performs a single operation against the persisted session,
// making it composable for scripts.
//
// Commands:
//
//	storefront login -username NAME -password PASS
//	storefront products
//	storefront search -text T | -type T
//	storefront add -product ID [-qty N]
//	storefront update -product ID -qty N
//	storefront cart
//	storefront addresses | address-add -text T | address-rm -id ID
//	storefront checkout [-address ID]
//	storefront logout
//
// Examples:
//
//	storefront login -username crio.do -password learnbydoing
//	storefront add -product BW0jAAeDJmlZCF8i
//	ADDR=$(storefront address-add -text "1 Main St, Springfield" -q)
//	storefront checkout -address "$ADDR"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"storefront/internal/config"
	"storefront/internal/rest"
	"storefront/internal/session"
	"storefront/internal/storefront"
	"storefront/internal/transport"
)

// Global flags (apply to all commands)
var (
	quiet   bool
	noColor bool
	verbose bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

var commands = map[string]func(args []string){
	"products":    runProducts,
	"search":      runSearch,
	"cart":        runCart,
	"add":         runAdd,
	"update":      runUpdate,
	"addresses":   runAddresses,
	"address-add": runAddressAdd,
	"address-rm":  runAddressRemove,
	"checkout":    runCheckout,
	"login":       runLogin,
	"register":    runRegister,
	"logout":      runLogout,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	}

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	run(os.Args[2:])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storefront - shop from the command line

Usage:
  storefront <command> [options]

Commands:
  login        Log in and persist the session
  register     Create an account
  logout       Clear the session
  products     List the catalog
  search       Search products (-text runs once, -type replays keystrokes)
  cart         Show the cart, order summary and addresses
  add          Add a product to the cart
  update       Change the quantity of a product in the cart
  addresses    List saved addresses
  address-add  Save a new address
  address-rm   Delete an address
  checkout     Place the order

Configuration comes from the environment (STOREFRONT_BACKEND_URL, ...)
or from the JSON file named by CONFIG_FILE.

Run 'storefront <command> -h' for command-specific options.
`)
}

// newFlagSet creates a flag set carrying the global flags.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output ids or values")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - log backend traffic to stderr")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefront %s %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and applies the global flags.
func parse(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
}

// openShop loads configuration and the persisted session.
func openShop(opts storefront.Options) (*storefront.Shop, *config.Config) {
	logger := initLogger()

	cfg, err := config.Load(context.Background())
	if err != nil {
		fatal("Loading config: %v", err)
	}

	client, err := rest.New(rest.Config{
		Endpoint:  cfg.Endpoint(),
		Timeout:   cfg.HTTPTimeout,
		Transport: transport.New(cfg.Backend.TLSFingerprint, cfg.HTTPTimeout),
	})
	if err != nil {
		fatal("Creating backend client: %v", err)
	}

	if opts.SearchQuiet == 0 {
		opts.SearchQuiet = cfg.SearchDebounce
	}
	sess := session.New(session.NewFileStore(cfg.SessionFile, logger))
	printInfo("Backend %s", cfg.Endpoint())
	return storefront.New(client, sess, logger, opts), cfg
}

// initLogger logs to stderr: debug with -v, otherwise warnings only.
func initLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
