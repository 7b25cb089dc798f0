// Command server-execute invokes an executable resource on a client,
// with an optional argument payload read from standard input.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

func main() {
	flags := &cliutil.CommonFlags{}
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "server-execute <path>",
		Short: "Execute a resource on a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ClientID == "" {
				return fmt.Errorf("--clientID is required")
			}
			path, err := awaserver.ParsePath(args[0])
			if err != nil {
				return err
			}
			var arguments []byte
			if fromStdin {
				arguments, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading arguments from stdin: %w", err)
				}
			}

			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			op := awaserver.NewExecuteOperation(session)
			defer op.Free()
			if err := op.AddPath(flags.ClientID, path, arguments); err != nil {
				return err
			}

			allOK := true
			if err := op.Perform(10 * time.Second); err != nil && !errors.Is(err, awaserver.ErrResponse) {
				return err
			}
			resp, _ := op.Response()
			if !cliutil.PrintResult(path.String(), resp.Result(flags.ClientID, path)) {
				allOK = false
			}
			cliutil.Exit(allOK)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the execute argument payload from standard input")
	cliutil.RegisterCommonFlags(cmd.Flags(), flags)
	cliutil.RunExit(cmd)
}
