// Command server-delete deletes object instances on a client.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

func main() {
	flags := &cliutil.CommonFlags{}
	cmd := &cobra.Command{
		Use:   "server-delete [paths...]",
		Short: "Delete one or more object instances on a client",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ClientID == "" {
				return fmt.Errorf("--clientID is required")
			}
			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			op := awaserver.NewDeleteOperation(session)
			defer op.Free()
			for _, raw := range args {
				path, err := awaserver.ParsePath(raw)
				if err != nil {
					return err
				}
				if err := op.AddPath(flags.ClientID, path); err != nil {
					return err
				}
			}

			allOK := true
			if err := op.Perform(10 * time.Second); err != nil && !errors.Is(err, awaserver.ErrResponse) {
				return err
			}
			resp, _ := op.Response()
			for _, raw := range args {
				path, _ := awaserver.ParsePath(raw)
				if !cliutil.PrintResult(path.String(), resp.Result(flags.ClientID, path)) {
					allOK = false
				}
			}
			cliutil.Exit(allOK)
			return nil
		},
	}
	cliutil.RegisterCommonFlags(cmd.Flags(), flags)
	cliutil.RunExit(cmd)
}
