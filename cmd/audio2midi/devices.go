package main

import (
	"fmt"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/leandrodaf/audio2midi/sdk/midi"
	"github.com/spf13/cobra"
)

func newDevicesCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List MIDI output devices usable with --device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := midi.NewMIDIClient(contracts.WithLogger(s.log), contracts.WithLogLevel(s.level))
			if err != nil {
				return err
			}
			defer client.Stop()

			devices, err := client.ListDevices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", d.ID, d.Name, d.Manufacturer)
			}
			return nil
		},
	}
}
