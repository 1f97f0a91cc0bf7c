package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"Dormant/internal/provider"
	"Dormant/internal/schedule"
)

func newEncodeCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "encode [schedule-json]",
		Short: "Print the schedule tag value for a resource kind",
		Long: `encode converts a schedule written as JSON, for example
'{"mon":{"start":7,"stop":20}}', into the tag value expected by the given
resource kind. Without an argument the built-in default schedule is used.`,
		Example: `  dormant encode --kind rds '{"mon":{"start":7,"stop":20}}'
  mon_start=7 mon_stop=20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := provider.ParseKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q (want ec2 or rds)", kind)
			}

			sched := schedule.Default()
			if len(args) == 1 {
				var err error
				if sched, err = (schedule.NestedCodec{}).Decode(args[0]); err != nil {
					return err
				}
			}

			value, err := provider.CodecFor(k).Encode(sched)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(provider.KindCompute), "Resource kind: ec2 or rds")
	return cmd
}
