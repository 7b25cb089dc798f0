// Command server-read reads one or more LWM2M paths on a client.
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
		Use:   "server-read [paths...]",
		Short: "Read one or more resource paths on a client",
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

			op := awaserver.NewReadOperation(session)
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
			for _, path := range resp.PathIterator(flags.ClientID) {
				result := resp.Result(flags.ClientID, path)
				if result.Error == awaserver.ErrorKindSuccess {
					v, _ := resp.Value(flags.ClientID, path)
					fmt.Printf("%s: %s\n", path, describeValue(v))
				} else if !cliutil.PrintResult(path.String(), result) {
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

func describeValue(v awaserver.Value) string {
	switch v.Kind() {
	case awaserver.ResourceTypeString:
		s, _ := v.AsString()
		return s
	case awaserver.ResourceTypeInteger:
		n, _ := v.AsInteger()
		return fmt.Sprintf("%d", n)
	case awaserver.ResourceTypeFloat:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f)
	case awaserver.ResourceTypeBoolean:
		b, _ := v.AsBoolean()
		return fmt.Sprintf("%t", b)
	case awaserver.ResourceTypeOpaque:
		b, _ := v.AsOpaque()
		return fmt.Sprintf("<%d bytes>", len(b))
	case awaserver.ResourceTypeTime:
		t, _ := v.AsTime()
		return fmt.Sprintf("%d", t)
	case awaserver.ResourceTypeObjectLink:
		l, _ := v.AsObjectLink()
		return l.String()
	default:
		return "<array>"
	}
}
