// Package cliutil factors the flags and session wiring shared by every
// server-* tool: --ipcAddress, --ipcPort, --clientID, --verbose, --debug,
// plus a connect-and-defer-disconnect helper and a common per-path result
// printer. Each tool itself stays a single cobra.Command mapping to one
// operation, per spec.md §1 ("thin argument-parser + one operation each").
package cliutil

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	awaserver "github.com/funahara/awaserver"
)

// CommonFlags holds the flag values every server-* tool accepts.
type CommonFlags struct {
	IPCAddress string
	IPCPort    int
	ClientID   string
	Verbose    bool
	Debug      bool
}

// RegisterCommonFlags adds the shared flag set to fs, matching the
// illustrative CLI surface in spec.md §6.
func RegisterCommonFlags(fs *pflag.FlagSet, f *CommonFlags) {
	fs.StringVar(&f.IPCAddress, "ipcAddress", awaserver.DefaultIPCAddress, "address of the server daemon's IPC endpoint")
	fs.IntVar(&f.IPCPort, "ipcPort", awaserver.DefaultIPCPort, "port of the server daemon's IPC endpoint")
	fs.StringVar(&f.ClientID, "clientID", "", "target client endpoint name")
	fs.BoolVar(&f.Verbose, "verbose", false, "enable verbose logging")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
}

// LogLevel resolves the leveled sink from the --verbose/--debug flags.
func (f *CommonFlags) LogLevel() awaserver.LogLevel {
	switch {
	case f.Debug:
		return awaserver.LogLevelDebug
	case f.Verbose:
		return awaserver.LogLevelVerbose
	default:
		return awaserver.LogLevelWarning
	}
}

// Connect builds and connects a Session from f. The caller must Free it.
func (f *CommonFlags) Connect() (*awaserver.Session, error) {
	session := awaserver.NewSession(awaserver.SessionConfig{
		IPCAddress: f.IPCAddress,
		IPCPort:    f.IPCPort,
		Logger:     awaserver.NewLogger(f.LogLevel()),
	})
	if err := session.Connect(); err != nil {
		return nil, err
	}
	return session, nil
}

// PrintResult writes a one-line human diagnostic for a single path result
// to stdout (success and failure alike) and reports whether it was a
// success, per spec.md §6: "Tools print a one-line human diagnostic per
// failed path plus a symbolic code."
func PrintResult(path string, result awaserver.PathResult) bool {
	if result.Error == awaserver.ErrorKindSuccess {
		fmt.Printf("%s: Success\n", path)
		return true
	}
	if result.Error == awaserver.ErrorKindLWM2MError {
		fmt.Printf("%s: LWM2MError(%s)\n", path, result.LWM2MCode)
		return false
	}
	fmt.Printf("%s: %s\n", path, result.Error)
	return false
}

// Fail prints a single diagnostic line to stderr and exits with code 1.
func Fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// Exit sets the process exit code to 0 if allOK else 1, without actually
// terminating (so deferred cleanup such as Session.Free still runs).
func Exit(allOK bool) {
	if !allOK {
		exitCode = 1
	}
}

var exitCode int

// RunExit executes cmd and, after it (and any deferred cleanup) returns,
// exits the process with the exit code set by Exit (or by a returned
// error from RunE, which cobra itself turns into exit code 1).
func RunExit(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
