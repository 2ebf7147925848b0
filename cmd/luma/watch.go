package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/luma-home/luma/internal/client"
	"github.com/luma-home/luma/internal/eventbus"
	"github.com/luma-home/luma/internal/netmode"
)

func watchEvents(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	raw, _ := cmd.Flags().GetBool("raw")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	setupCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	c, cleanup, err := newApp(setupCtx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	explicit := ""
	if len(args) > 0 {
		explicit = args[0]
	}
	mode := refreshMode(setupCtx, c, explicit)
	if mode == netmode.ModeOffline {
		return reportError(out, "Cannot watch events", fmt.Errorf("watch: %w", client.ErrOffline))
	}

	homeID, err := resolveHomeID(setupCtx, c, explicit)
	if err != nil {
		return reportError(out, "Failed to resolve home", err)
	}
	if homeID == "" {
		if id, err := c.Store.GetGatewayID(setupCtx); err == nil {
			homeID = id
		}
	}
	if homeID == "" {
		return out.Error("No home to watch; pass a home id explicitly", nil)
	}

	statusSub := eventbus.SubscribeTo(c.Bus, eventbus.Channel.Status)
	defer statusSub.Close()
	stateSub := eventbus.SubscribeTo(c.Bus, eventbus.Entities.State)
	defer stateSub.Close()
	rawSub := eventbus.SubscribeTo(c.Bus, eventbus.Channel.Raw)
	defer rawSub.Close()

	if err := c.ConnectChannel(setupCtx, homeID); err != nil {
		return reportError(out, "Failed to open event channel", err)
	}

	if !out.jsonMode {
		fmt.Printf("Watching home %s via %s. Press Ctrl-C to stop.\n", homeID, mode)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-statusSub.C():
			if !ok {
				return nil
			}
			printStatusEvent(out, env.Payload)
			if env.Payload.State == eventbus.ChannelGaveUp {
				return out.Error("Event channel gave up reconnecting", nil)
			}
		case env, ok := <-stateSub.C():
			if !ok {
				return nil
			}
			if raw {
				continue
			}
			if out.jsonMode {
				out.Print(map[string]interface{}{
					"type":      "entity_state",
					"entity":    env.Payload.EntityID,
					"state":     env.Payload.State,
					"timestamp": env.Timestamp.Format(time.RFC3339),
				})
			} else {
				fmt.Printf("%s  %s  %s\n",
					env.Timestamp.Format("15:04:05"), env.Payload.EntityID, env.Payload.State)
			}
		case env, ok := <-rawSub.C():
			if !ok {
				return nil
			}
			if !raw {
				continue
			}
			fmt.Println(string(env.Payload.Data))
		}
	}
}

func printStatusEvent(out *OutputFormatter, ev eventbus.ChannelStatusEvent) {
	if out.jsonMode {
		out.Print(map[string]interface{}{
			"type":    "channel_status",
			"state":   string(ev.State),
			"attempt": ev.Attempt,
			"reason":  ev.Reason,
		})
		return
	}
	switch ev.State {
	case eventbus.ChannelConnected:
		fmt.Println("channel: connected")
	case eventbus.ChannelReconnecting:
		fmt.Printf("channel: reconnecting (attempt %d)\n", ev.Attempt)
	case eventbus.ChannelGaveUp:
		fmt.Println("channel: gave up")
	default:
		if ev.Reason != "" {
			fmt.Printf("channel: disconnected (%s)\n", ev.Reason)
		} else {
			fmt.Println("channel: disconnected")
		}
	}
}
