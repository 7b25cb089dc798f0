// Command server-write writes resource values to a client. Each value is
// given as a path/type/literal triple: <path> <type> <literal>, where
// type is one of string|integer|float|boolean|opaque|time|objectlink.
package main

import (
	"encoding/base64"
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
	var mode string
	cmd := &cobra.Command{
		Use:   "server-write [path type literal]...",
		Short: "Write one or more resource values to a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ClientID == "" {
				return fmt.Errorf("--clientID is required")
			}
			if len(args)%3 != 0 {
				return fmt.Errorf("arguments must come in path/type/literal triples")
			}
			writeMode := awaserver.WriteModeReplace
			if mode == "update" {
				writeMode = awaserver.WriteModeUpdate
			}

			session, err := flags.Connect()
			if err != nil {
				return err
			}
			defer session.Free()

			op := awaserver.NewWriteOperation(session, flags.ClientID, writeMode)
			defer op.Free()

			paths := make([]awaserver.Path, 0, len(args)/3)
			for i := 0; i < len(args); i += 3 {
				path, err := awaserver.ParsePath(args[i])
				if err != nil {
					return err
				}
				if err := stageValue(op, path, args[i+1], args[i+2]); err != nil {
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
	cmd.Flags().StringVar(&mode, "mode", "replace", "default write mode: replace or update")
	cliutil.RegisterCommonFlags(cmd.Flags(), flags)
	cliutil.RunExit(cmd)
}

func stageValue(op *awaserver.WriteOperation, path awaserver.Path, kind, literal string) error {
	switch kind {
	case "string":
		return op.AddValueAsString(path, literal)
	case "integer":
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", literal, err)
		}
		return op.AddValueAsInteger(path, n)
	case "float":
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q: %w", literal, err)
		}
		return op.AddValueAsFloat(path, f)
	case "boolean":
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", literal, err)
		}
		return op.AddValueAsBoolean(path, b)
	case "opaque":
		b, err := base64.StdEncoding.DecodeString(literal)
		if err != nil {
			return fmt.Errorf("invalid base64 opaque %q: %w", literal, err)
		}
		return op.AddValueAsOpaque(path, b)
	case "time":
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", literal, err)
		}
		return op.AddValueAsTime(path, n)
	case "objectlink":
		link, err := parseObjectLink(literal)
		if err != nil {
			return err
		}
		return op.AddValueAsObjectLink(path, link)
	default:
		return fmt.Errorf("unknown value type %q", kind)
	}
}

func parseObjectLink(literal string) (awaserver.ObjectLink, error) {
	var objectID, instanceID uint64
	n, err := fmt.Sscanf(literal, "%d:%d", &objectID, &instanceID)
	if err != nil || n != 2 {
		return awaserver.ObjectLink{}, fmt.Errorf("invalid object link %q, want O:I", literal)
	}
	return awaserver.ObjectLink{ObjectID: uint32(objectID), InstanceID: uint32(instanceID)}, nil
}
