package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yagosupro/ethparser/internal/abi"
	"github.com/yagosupro/ethparser/internal/model"
)

// newDecodeInputCmd builds the offline decoder. It needs no RPC or
// storage; the signature registry alone is enough. With --topics the
// argument is treated as log data instead of call data.
func newDecodeInputCmd() *cobra.Command {
	var topics []string

	cmd := &cobra.Command{
		Use:   "decode-input <calldata|logdata>",
		Short: "Decode call data or a raw log against the signature registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			decoder, err := abi.NewDecoder(abi.DefaultRegistry())
			if err != nil {
				return fmt.Errorf("build decoder: %w", err)
			}

			var methodID, name string
			var values []interface{}
			if len(topics) > 0 {
				decoded, err := decoder.DecodeLog(model.LogRecord{Topics: topics, Data: args[0]})
				if err != nil {
					return err
				}
				if decoded == nil {
					return fmt.Errorf("topic0 %s is not registered", topics[0])
				}
				methodID, name, values = decoded.MethodID, decoded.Name, decoded.Values
			} else {
				decoded, err := decoder.DecodeCallData(args[0])
				if err != nil {
					return err
				}
				methodID, name, values = decoded.MethodID, decoded.Name, decoded.Values
			}

			out := struct {
				MethodID string   `json:"method_id"`
				Name     string   `json:"name"`
				Values   []string `json:"values"`
			}{
				MethodID: methodID,
				Name:     name,
			}
			for _, v := range values {
				out.Values = append(out.Values, fmt.Sprintf("%v", v))
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringSliceVar(&topics, "topics", nil, "log topics, topic0 first; decodes the argument as log data")
	return cmd
}
