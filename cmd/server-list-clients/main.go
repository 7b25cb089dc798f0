// Command server-list-clients lists the clients currently registered
// with the daemon and their registered entities.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

func main() {
	flags := &cliutil.CommonFlags{}
	cmd := &cobra.Command{
		Use:   "server-list-clients",
		Short: "List clients registered with the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			op := awaserver.NewListClientsOperation(session)
			defer op.Free()
			if err := op.Perform(10 * time.Second); err != nil {
				return err
			}
			resp, _ := op.Response()
			for _, clientID := range resp.ClientIDs() {
				fmt.Println(clientID)
				for _, path := range resp.RegisteredEntities(clientID) {
					fmt.Printf("  %s\n", path)
				}
			}
			return nil
		},
	}
	cliutil.RegisterCommonFlags(cmd.Flags(), flags)
	cliutil.RunExit(cmd)
}
