// Command server-observe subscribes to a path on a client and prints
// each notification until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	awaserver "github.com/funahara/awaserver"
	"github.com/funahara/awaserver/cmd/internal/cliutil"
)

func main() {
	flags := &cliutil.CommonFlags{}
	cmd := &cobra.Command{
		Use:   "server-observe <path>",
		Short: "Observe a path on a client, printing notifications until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ClientID == "" {
				return fmt.Errorf("--clientID is required")
			}
			path, err := awaserver.ParsePath(args[0])
			if err != nil {
				return err
			}

			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			obs := awaserver.NewObservation(flags.ClientID, path, printChangeSet, nil)
			defer obs.Free()

			op := awaserver.NewObserveOperation(session)
			defer op.Free()
			if err := op.AddObservation(obs); err != nil {
				return err
			}
			if err := op.Perform(10 * time.Second); err != nil {
				return err
			}
			resp, _ := op.Response()
			if result := resp.Result(flags.ClientID, path); result.Error != awaserver.ErrorKindSuccess {
				cliutil.PrintResult(path.String(), result)
				cliutil.Exit(false)
				return nil
			}
			fmt.Printf("observing %s on %s, press Ctrl-C to stop\n", path, flags.ClientID)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			for {
				select {
				case <-sigCh:
					return cancelObservation(session, obs)
				default:
				}
				if err := session.Process(time.Second); err != nil {
					return err
				}
				if err := session.DispatchCallbacks(); err != nil {
					return err
				}
			}
		},
	}
	cliutil.RegisterCommonFlags(cmd.Flags(), flags)
	cliutil.RunExit(cmd)
}

func printChangeSet(cs *awaserver.ChangeSet) {
	for _, path := range cs.ChangedPaths() {
		changeType, _ := cs.ChangeType(path)
		if v, ok := cs.Value(path); ok {
			fmt.Printf("%s: %s %s\n", path, changeType, describeValue(v))
		} else {
			fmt.Printf("%s: %s\n", path, changeType)
		}
	}
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

func cancelObservation(session *awaserver.Session, obs *awaserver.Observation) error {
	cancel := awaserver.NewObserveOperation(session)
	defer cancel.Free()
	if err := cancel.AddCancelObservation(obs); err != nil {
		return err
	}
	return cancel.Perform(10 * time.Second)
}
