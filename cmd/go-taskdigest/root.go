package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/server"
)

// options are the flags shared by every command.
type options struct {
	debug      bool
	configFile string
	v          *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &options{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           config.BinaryName,
		Short:         config.CmdDescRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(opts.debug)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&opts.debug, config.FlagDebug, false, config.FlagDescDebug)
	rootCmd.PersistentFlags().StringVar(&opts.configFile, config.FlagConfig, "", config.FlagDescConfig)

	rootCmd.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdServe,
		Short: config.CmdDescServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logStartupInfo()
			ctx := cmd.Context()

			p, err := newPipeline(ctx, opts.v, opts.configFile)
			if err != nil {
				return err
			}
			defer p.Close()

			srv := server.NewTriggerServer(p.settings.Port, p.Run, p.Feed(), p.catalog)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			logStop()
			return nil
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdRun,
		Short: config.CmdDescRun,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logStartupInfo()
			ctx := cmd.Context()

			p, err := newPipeline(ctx, opts.v, opts.configFile)
			if err != nil {
				return err
			}
			defer p.Close()

			report, err := p.Run(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), config.MsgRunOutput,
				p.catalog.Msg(server.StatusKey(report.Status)),
				report.Status,
				report.TargetDate,
				report.RunID,
			)
			return err
		},
	}
	cmd.Flags().Int(config.FlagOffset, 0, config.FlagDescOffset)
	// The flag wins over TARGET_DAY_OFFSET only when it is given.
	_ = opts.v.BindPFlag(config.KeyTargetDayOffset, cmd.Flags().Lookup(config.FlagOffset))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.CmdDescVersion,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout())
		},
	}
}
