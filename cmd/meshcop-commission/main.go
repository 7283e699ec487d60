// Command meshcop-commission performs a single Thread 1.4 Commercial
// Commissioning attempt against a discovered Thread Border Router and
// prints the retrieved Active Operational Dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	meshcop "github.com/meshcop-go/commissioner"
)

var rootCmd = &cobra.Command{
	Use:   "meshcop-commission",
	Short: "Discover a Thread Border Router and retrieve its Active Operational Dataset",
	RunE:  run,
}

var (
	flagAdminCode      string
	flagDiscoverySecs  float64
	flagDTLSLogLevel   int
	flagVerboseLogging bool
)

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("loading .env")
	}

	flags := rootCmd.Flags()
	flags.StringVar(&flagAdminCode, "admin-code", "", "the 6-12 digit admin code displayed by the border router (required)")
	flags.Float64Var(&flagDiscoverySecs, "discovery-timeout", 10, "seconds to wait for discovery; <= 0 waits indefinitely")
	flags.IntVar(&flagDTLSLogLevel, "dtls-log-level", int(meshcop.LogLevelNone), "DTLS engine log level: 0=None 1=Error 3=Info 4=Verbose")
	flags.BoolVar(&flagVerboseLogging, "verbose", false, "enable debug-level application logging")
	_ = rootCmd.MarkFlagRequired("admin-code")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("meshcop-commission")
	}
}

func run(cmd *cobra.Command, args []string) error {
	if flagVerboseLogging {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Warn().Msg("interrupted, tearing down")
		cancel()
	}()

	discoveryCtx := ctx
	if flagDiscoverySecs > 0 {
		var dCancel context.CancelFunc
		discoveryCtx, dCancel = context.WithTimeout(ctx, time.Duration(flagDiscoverySecs*float64(time.Second)))
		defer dCancel()
	}

	log.Info().Str("service", "_meshcop-e._udp").Msg("searching for thread hub")
	hub, err := meshcop.SearchForHub(discoveryCtx)
	if err != nil {
		return fmt.Errorf("search for hub: %w", err)
	}
	log.Info().Str("addr", hub.Addr()).Msg("found thread hub")

	c := meshcop.NewCommissioner()
	c.SetDTLSLoggingLevel(meshcop.LogLevel(flagDTLSLogLevel))
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("closing commissioner")
		}
	}()

	log.Info().Msg("connecting")
	if err := c.Connect(ctx, hub, flagAdminCode); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if flagVerboseLogging {
		if hsLog := c.HandshakeLog(); hsLog != nil {
			log.Debug().Interface("handshake", hsLog).Msg("dtls handshake complete")
		}
	}

	log.Info().Msg("petitioning and requesting active dataset")
	dataset, err := c.GetThreadDataset(ctx)
	if err != nil {
		return fmt.Errorf("get thread dataset: %w", err)
	}

	if !dataset.IsComplete() {
		log.Warn().Msg("dataset is missing one or more fields required to join the network")
	}
	printDataset(dataset)
	return nil
}

func printDataset(ds meshcop.Dataset) {
	fmt.Printf("network_name:   %q\n", ds.NetworkName)
	if ds.PANID != nil {
		fmt.Printf("pan_id:         0x%04X\n", *ds.PANID)
	}
	if len(ds.ExtendedPANID) > 0 {
		fmt.Printf("xpan_id:        % X\n", ds.ExtendedPANID)
	}
	if ds.Channel != nil {
		fmt.Printf("channel:        page=%d id=%d\n", ds.Channel.Page, ds.Channel.Channel)
	}
	if len(ds.NetworkKey) > 0 {
		fmt.Printf("network_key:    % X\n", ds.NetworkKey)
	}
	if ds.ActiveTimestamp != nil {
		fmt.Printf("active_ts:      seconds=%d ticks=%d\n", ds.ActiveTimestamp.Seconds, ds.ActiveTimestamp.Ticks)
	}
}
