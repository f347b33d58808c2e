package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wifisurvey/internal/modules/survey/types"
	"wifisurvey/internal/mqtt"
)

type publishFlags struct {
	locationID   int64
	clientID     string
	signal24     int
	signal5      int
	speed24      float64
	speed5       float64
	interference int
	timeout      time.Duration
}

func newPublishCmd(c *cli) *cobra.Command {
	f := &publishFlags{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one measurement for a location over MQTT",
		Long: `Publish one measurement to survey/<location>/measurement, the way a survey
probe does. The server stores it when MQTT_ENABLED=true.

Example:
  wifisurvey publish --location 3 --signal-24 -52 --signal-5 -60 \
    --speed-24 72.5 --speed-5 310 --interference -88`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.publish(cmd.Context(), f, cmd)
		},
	}
	fl := cmd.Flags()
	fl.Int64Var(&f.locationID, "location", 0, "location id")
	fl.StringVar(&f.clientID, "client-id", "wifisurvey-probe", "MQTT client id")
	fl.IntVar(&f.signal24, "signal-24", 0, "2.4 GHz signal (dBm)")
	fl.IntVar(&f.signal5, "signal-5", 0, "5 GHz signal (dBm)")
	fl.Float64Var(&f.speed24, "speed-24", 0, "2.4 GHz speed (Mbps)")
	fl.Float64Var(&f.speed5, "speed-5", 0, "5 GHz speed (Mbps)")
	fl.IntVar(&f.interference, "interference", 0, "interference (dBm)")
	fl.DurationVar(&f.timeout, "timeout", 10*time.Second, "broker connect timeout")
	for _, name := range []string{"location", "signal-24", "signal-5", "speed-24", "speed-5", "interference"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (f *publishFlags) telemetry() types.Telemetry {
	return types.Telemetry{
		LocationID:   f.locationID,
		Timestamp:    time.Now().UTC(),
		Signal24:     &f.signal24,
		Signal5:      &f.signal5,
		Speed24:      &f.speed24,
		Speed5:       &f.speed5,
		Interference: &f.interference,
	}
}

func (c *cli) publish(ctx context.Context, f *publishFlags, cmd *cobra.Command) error {
	telemetry := f.telemetry()
	if err := mqtt.ValidateTelemetry(telemetry); err != nil {
		return err
	}

	pub, err := mqtt.NewPublisher(c.cfg, f.clientID, c.logger)
	if err != nil {
		return err
	}
	defer pub.Disconnect()

	connectCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := pub.Connect(connectCtx); err != nil {
		return fmt.Errorf("connect %s: %w", mqtt.BrokerURL(c.cfg), err)
	}
	if err := pub.PublishMeasurement(telemetry); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published to %s\n", mqtt.MeasurementTopic(f.locationID))
	return nil
}
