package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"touchscenes/oscmanager"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print every OSC message received on the OSC port",
	Long:  `Binds the OSC port and prints incoming messages, for checking a controller layout's addresses without touching any scene.`,
	RunE:  runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().IntP("port", "p", 0, "OSC port to listen on (overrides osc.port)")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cmd.Flags().Changed("port") {
		cfg.OSC.Port, _ = cmd.Flags().GetInt("port")
	}

	out := cmd.OutOrStdout()
	router := oscmanager.NewRouter(log, nil)
	router.SetFallback(func(msg *osc.Message) {
		fmt.Fprintln(out, msg.String())
	})

	addr := net.JoinHostPort(cfg.OSC.ListenHost, strconv.Itoa(cfg.OSC.Port))
	mgr := oscmanager.New(addr, router, log, nil)
	if err := mgr.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Listening for OSC on %s, Ctrl+C to stop\n", mgr.LocalAddr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	return mgr.Stop()
}
