// Command ngotes is a terminal client for the notes service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/ngotes/internal/client"
	"github.com/and161185/ngotes/internal/config"
	"github.com/and161185/ngotes/internal/identity"
	"github.com/and161185/ngotes/internal/model"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

// ---- utils ----

func readAll(stdin io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// resolveID accepts a full note id or a unique prefix of one.
func resolveID(notes []model.Note, arg string) (string, error) {
	var match string
	for _, n := range notes {
		if n.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(n.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("ambiguous note id %q", arg)
			}
			match = n.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no note with id %q", arg)
	}
	return match, nil
}

// noteText takes the note text from -file or from the remaining arguments.
func noteText(stdin io.Reader, file string, args []string) (string, error) {
	if file != "" {
		b, err := readAll(stdin, file)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\n"), nil
	}
	if len(args) == 0 {
		return "", errUsage
	}
	return strings.Join(args, " "), nil
}

func usage(w io.Writer) {
	fmt.Fprint(w, `ngotes CLI
Usage:
  ngotes [-api URL] [-identity URL] [-v] <cmd> [args]

Commands:
  version
  signup   -e <email> -p <password>
  login    -e <email> -p <password> [-remember=false]
  confirm  <token>                         (from the confirmation link)
  logout
  whoami
  list     [-json]
  add      <text...> | -file <path|->      (first line is the title)
  edit     <id> <text...> | -file <path|->
  pin      <id>                            (toggles)
  rm       <id>
`)
}

// ---- main ----

func main() {
	_ = config.LoadEnvFile(".env")
	os.Exit(run(context.Background(), os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr))
}

type app struct {
	cfg    config.CLI
	vm     *client.Notes
	stdin  io.Reader
	stdout io.Writer
}

// run dispatches a command and returns the process exit code.
func run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.ParseCLI(args, getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		usage(stderr)
		return 2
	}
	if len(cfg.Args) < 1 {
		usage(stderr)
		return 2
	}
	cmd, rest := cfg.Args[0], cfg.Args[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "ngotes %s (%s)\n", version, buildDate)
		return 0
	}
	if cfg.IdentityURL == "" {
		fmt.Fprintln(stderr, "missing identity provider URL (-identity or IDENTITY_ENDPOINT)")
		return 2
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	hc := &http.Client{Timeout: cfg.Timeout}
	id := identity.New(cfg.IdentityURL, identity.DefaultFileStore(), logger, identity.WithHTTPClient(hc))
	a := &app{
		cfg:    cfg,
		vm:     client.New(id, client.NewAPI(cfg.APIURL, id, hc), logger),
		stdin:  stdin,
		stdout: stdout,
	}

	err = a.dispatch(ctx, cmd, rest)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		usage(stderr)
		return 2
	}
	fmt.Fprintln(stderr, "error:", describe(err))
	return 1
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup", "login":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		email := fs.String("e", "", "email")
		password := fs.String("p", "", "password")
		remember := fs.Bool("remember", true, "keep the session on disk")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a.vm.SetEntry(*email, *password, *remember)
		if cmd == "signup" {
			if err := a.vm.Signup(ctx); err != nil {
				return a.entryErr(err)
			}
			fmt.Fprintln(a.stdout, a.vm.Snapshot().Entry.Message)
			return nil
		}
		if err := a.vm.Login(ctx); err != nil {
			return a.entryErr(err)
		}
		s := a.vm.Snapshot()
		fmt.Fprintf(a.stdout, "signed in as %s (%d notes)\n", s.Email, len(s.Notes))
		return nil

	case "confirm":
		if len(args) != 1 {
			return errUsage
		}
		a.vm.SetEntry("", "", true)
		if err := a.vm.Init(ctx, "confirmation_token="+args[0]); err != nil {
			return a.entryErr(err)
		}
		fmt.Fprintf(a.stdout, "confirmed, signed in as %s\n", a.vm.Snapshot().Email)
		return nil
	}

	if err := a.vm.Init(ctx, ""); err != nil {
		return err
	}
	s := a.vm.Snapshot()
	if !s.SignedIn() {
		return errors.New("not signed in (run login first)")
	}

	switch cmd {
	case "whoami":
		fmt.Fprintln(a.stdout, s.Email)

	case "logout":
		if err := a.vm.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "signed out")

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		asJSON := fs.Bool("json", false, "print JSON")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *asJSON {
			printJSON(a.stdout, s.Notes)
			return nil
		}
		for _, n := range s.Notes {
			pin := " "
			if n.Pinned {
				pin = "*"
			}
			fmt.Fprintf(a.stdout, "%s %s %s\n", n.ID, pin, n.Title)
			if n.Content != "" {
				fmt.Fprintf(a.stdout, "    %s\n", client.Truncate(strings.ReplaceAll(n.Content, "\n", " "), 150))
			}
		}

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		file := fs.String("file", "", "read note text from file (- for stdin)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		text, err := noteText(a.stdin, *file, fs.Args())
		if err != nil {
			return err
		}
		a.vm.SetDraft(text)
		n, err := a.vm.CreateNote(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, n.ID)

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		file := fs.String("file", "", "read note text from file (- for stdin)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return errUsage
		}
		id, err := resolveID(s.Notes, fs.Arg(0))
		if err != nil {
			return err
		}
		text, err := noteText(a.stdin, *file, fs.Args()[1:])
		if err != nil {
			return err
		}
		if err := a.vm.OpenEdit(id); err != nil {
			return err
		}
		a.vm.SetEditValue(text)
		if err := a.vm.SaveEdit(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "ok")

	case "pin":
		if len(args) != 1 {
			return errUsage
		}
		id, err := resolveID(s.Notes, args[0])
		if err != nil {
			return err
		}
		if err := a.vm.TogglePin(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "ok")

	case "rm":
		if len(args) != 1 {
			return errUsage
		}
		id, err := resolveID(s.Notes, args[0])
		if err != nil {
			return err
		}
		if err := a.vm.OpenDelete(id); err != nil {
			return err
		}
		if err := a.vm.DeleteNote(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "ok")

	default:
		return errUsage
	}
	return nil
}

// entryErr prefers the entry form message, which carries validation and provider text.
func (a *app) entryErr(err error) error {
	if msg := a.vm.Snapshot().Entry.Message; msg != "" {
		return errors.New(msg)
	}
	return err
}

func describe(err error) string {
	var ae *client.APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var ie *identity.Error
	if errors.As(err, &ie) {
		return ie.Message()
	}
	return err.Error()
}
