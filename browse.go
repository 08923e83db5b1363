package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"touchscenes/logger"
	"touchscenes/mdnsmanager"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List OSC services advertised on the local network",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().DurationP("timeout", "t", 10*time.Second, "How long to browse")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Browsing for %s (%s)...\n", cfg.Discovery.ServiceType, timeout)

	backend := mdnsmanager.NewDNSSD(log)
	err = backend.Browse(ctx, cfg.Discovery.ServiceType,
		func(e mdnsmanager.Entry) {
			fmt.Fprintf(out, "+ %s\t%s\tport %d\t%v\n", e.Instance, e.Host, e.Port, e.IPs)
		},
		func(e mdnsmanager.Entry) {
			fmt.Fprintf(out, "- %s\n", e.Instance)
		})
	if err != nil {
		log.Error("browse failed", logger.Error(err))
		return err
	}
	return nil
}
