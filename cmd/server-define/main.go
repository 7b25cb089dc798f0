// Command server-define registers one or more object definitions, read
// from an <ObjectDefinitions> XML file, with the daemon.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

func main() {
	flags := &cliutil.CommonFlags{}
	cmd := &cobra.Command{
		Use:   "server-define <definitions.xml>",
		Short: "Define one or more objects from an ObjectDefinitions XML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			defs, err := awaserver.ParseObjectDefinitionsXML(raw)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				return fmt.Errorf("%s defines no objects", args[0])
			}

			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			op := awaserver.NewDefineOperation(session)
			defer op.Free()
			for _, def := range defs {
				op.Add(def)
			}

			allOK := true
			if err := op.Perform(10 * time.Second); err != nil && !errors.Is(err, awaserver.ErrResponse) {
				return err
			}
			resp, _ := op.Response()
			for _, def := range defs {
				p, _ := awaserver.NewObjectPath(def.ID)
				if !cliutil.PrintResult(p.String(), resp.Result(def.ID)) {
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
