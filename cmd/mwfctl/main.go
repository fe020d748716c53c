package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

type app struct {
	cfg    config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != errUsage && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "mwfctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("mwfctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return errUsage
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closer, err := setupLogging(cfg, stderr)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}
	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "info":
		return a.infoCmd(cmdArgs)
	case "anonymize":
		return a.anonymizeCmd(cmdArgs)
	case "csv":
		return a.csvCmd(cmdArgs)
	case "roundtrip":
		return a.roundtripCmd(cmdArgs)
	case "report":
		return a.reportCmd(cmdArgs)
	case "manifest":
		return a.manifestCmd(cmdArgs)
	case "verify-signature":
		return a.verifySignatureCmd(cmdArgs)
	case "batch":
		return a.batchCmd(cmdArgs)
	case "version":
		fmt.Fprintf(stdout, "mwfctl %s (built %s)\n", version, buildDate)
		return nil
	}
	usage(stderr)
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `mwfctl %s (built %s) [--config <mwfctl.yaml>] <command> [options]

Commands:
  info       --in <file> [--json <report.json>] [--strict]
  anonymize  --in <file> --out <file> [--audit <audit.jsonl>]
  csv        --in <file> --out <file.csv> [--channels 0,2] [--start N --end M | --start-sec S --end-sec E] [--progress] [--metrics]
  roundtrip  --in <file> --out <file>
  report     --in <file> [--pdf <report.pdf>] [--json <report.json>] [--lang en|de]
  manifest   --inputs <comma-separated> --out <manifest.json> [--sign --key <key.pem> --cert <cert.pem> --jws-out <file>]
  verify-signature --manifest <manifest.json> --jws <signature.jws> --cert <cert.pem>
  batch      --in <dir> --out-dir <dir> [--concurrency N] [--lang en|de]
  version
`, version, buildDate)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func required(names ...string) error {
	return fmt.Errorf("%w: required: %s", errUsage, strings.Join(names, ", "))
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// flagsSet reports which of the named flags were given on the command line.
func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
