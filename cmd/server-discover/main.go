// Command server-discover reports the write-attributes currently set on
// one or more paths.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

var links = []awaserver.AttributeLink{
	awaserver.AttributeLinkMinPeriod,
	awaserver.AttributeLinkMaxPeriod,
	awaserver.AttributeLinkGreater,
	awaserver.AttributeLinkLess,
	awaserver.AttributeLinkStep,
}

func main() {
	flags := &cliutil.CommonFlags{}
	cmd := &cobra.Command{
		Use:   "server-discover [paths...]",
		Short: "Discover notification attributes on one or more paths",
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

			op := awaserver.NewDiscoverOperation(session)
			defer op.Free()

			paths := make([]awaserver.Path, 0, len(args))
			for _, raw := range args {
				path, err := awaserver.ParsePath(raw)
				if err != nil {
					return err
				}
				if err := op.AddPath(flags.ClientID, path); err != nil {
					return err
				}
				paths = append(paths, path)
			}

			allOK := true
			if err := op.Perform(10 * time.Second); err != nil && !errors.Is(err, awaserver.ErrResponse) {
				return err
			}
			resp, _ := op.Response()
			for _, path := range paths {
				result := resp.Result(flags.ClientID, path)
				if result.Error != awaserver.ErrorKindSuccess {
					if !cliutil.PrintResult(path.String(), result) {
						allOK = false
					}
					continue
				}
				fmt.Println(path)
				for _, link := range links {
					if v, ok := resp.Attribute(flags.ClientID, path, link); ok {
						fmt.Printf("  %s=%g\n", link, v)
					}
				}
			}
			cliutil.Exit(allOK)
			return nil
		},
	}
	cliutil.RegisterCommonFlags(cmd.Flags(), flags)
	cliutil.RunExit(cmd)
}
