// Command server-write-attributes tunes LWM2M notification attributes
// (pmin, pmax, gt, lt, stp) on one or more paths. Each attribute is given
// as a path/link/value triple, e.g. "/3/0/9 pmin 10".
package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

func main() {
	flags := &cliutil.CommonFlags{}
	cmd := &cobra.Command{
		Use:   "server-write-attributes [path link value]...",
		Short: "Write notification attributes on one or more paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ClientID == "" {
				return fmt.Errorf("--clientID is required")
			}
			if len(args)%3 != 0 {
				return fmt.Errorf("arguments must come in path/link/value triples")
			}

			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			op := awaserver.NewWriteAttributesOperation(session)
			defer op.Free()

			paths := make([]awaserver.Path, 0, len(args)/3)
			for i := 0; i < len(args); i += 3 {
				path, err := awaserver.ParsePath(args[i])
				if err != nil {
					return err
				}
				link := awaserver.AttributeLink(args[i+1])
				if err := stageAttribute(op, flags.ClientID, path, link, args[i+2]); err != nil {
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

func stageAttribute(op *awaserver.WriteAttributesOperation, clientID string, path awaserver.Path, link awaserver.AttributeLink, literal string) error {
	switch link {
	case awaserver.AttributeLinkMinPeriod, awaserver.AttributeLinkMaxPeriod:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer attribute %q: %w", literal, err)
		}
		return op.AddAttributeAsInteger(clientID, path, link, n)
	case awaserver.AttributeLinkGreater, awaserver.AttributeLinkLess, awaserver.AttributeLinkStep:
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return fmt.Errorf("invalid float attribute %q: %w", literal, err)
		}
		return op.AddAttributeAsFloat(clientID, path, link, f)
	default:
		return fmt.Errorf("unknown attribute link %q", link)
	}
}
