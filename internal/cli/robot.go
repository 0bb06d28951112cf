// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// robot.go - Robot status, descriptors, commands and API health.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/store"
	"github.com/jeranaias/valetdash/internal/ui/components"
)

const batteryBarWidth = 20

func stateLabel(state string) string {
	return components.StateLabel(state)
}

// Status prints the robot state and battery.
func (a *App) Status(ctx context.Context) error {
	status, err := a.Client.RobotStatus(ctx)
	if err != nil {
		return NewCommandError("status", "fetch", "could not read robot status", err)
	}

	return a.emit("status", NewStatusData(status), func() {
		a.printStatus(status)
	})
}

func (a *App) printStatus(status *api.RobotStatus) {
	if a.Args.Quiet {
		fmt.Fprintf(a.Out, "%s %d%%\n", status.State, status.Battery)
		return
	}
	fmt.Fprintln(a.Out, TitleStyle.Render("Robot Status"))
	fmt.Fprintln(a.Out, RenderField("State", stateLabel(status.State)))
	fmt.Fprintln(a.Out, RenderField("Battery",
		components.BatteryBar(status.Battery, batteryBarWidth)+" "+strconv.Itoa(status.Battery)+"%"))
	if status.HasError() {
		fmt.Fprintln(a.Out, RenderField("Error", ErrorStyle.Render(status.Error)))
	}
}

// Info prints the robot information descriptor.
func (a *App) Info(ctx context.Context) error {
	info, err := a.Client.RobotInfo(ctx)
	if err != nil {
		return NewCommandError("info", "fetch", "could not read robot info", err)
	}
	return a.printDescriptor("info", "Robot Info", info)
}

// Capabilities prints the robot capabilities descriptor.
func (a *App) Capabilities(ctx context.Context) error {
	caps, err := a.Client.Capabilities(ctx)
	if err != nil {
		return NewCommandError("capabilities", "fetch", "could not read robot capabilities", err)
	}
	return a.printDescriptor("capabilities", "Robot Capabilities", caps)
}

// printDescriptor pretty-prints an opaque document, highlighted on a terminal.
func (a *App) printDescriptor(command, title string, d api.Descriptor) error {
	return a.emit(command, d, func() {
		doc := d.Indent()
		if a.Color {
			doc = components.HighlightJSON(doc)
		}
		if !a.Args.Quiet {
			fmt.Fprintln(a.Out, TitleStyle.Render(title))
		}
		fmt.Fprintln(a.Out, doc)
	})
}

// Robot sends a robot command and prints the acknowledgement.
// Commands go through the controller so they share its rate limit.
func (a *App) Robot(ctx context.Context, cmd api.RobotCommand) error {
	if !cmd.Valid() {
		return NewValidationError("command", string(cmd), "unknown robot command")
	}

	ctrl := a.newController(store.New())
	ack, err := ctrl.RunCommand(ctx, cmd)
	if err != nil {
		return NewCommandError(string(cmd), "send", "robot command failed", err)
	}

	data := CommandData{Command: string(cmd), Status: ack.Status, Message: ackMessage(cmd, ack)}
	return a.emit(string(cmd), data, func() {
		fmt.Fprintln(a.Out, SuccessStyle.Render("[OK]")+" "+data.Message)
	})
}

func ackMessage(cmd api.RobotCommand, ack *api.Ack) string {
	if ack != nil && ack.Message != "" {
		return ack.Message
	}
	return "Sent " + string(cmd)
}

// Health checks the automation API and its dependencies.
func (a *App) Health(ctx context.Context) error {
	health, err := a.Client.Health(ctx)
	if err != nil {
		return NewCommandError("health", "check", "automation API unreachable", err)
	}

	return a.emit("health", health, func() {
		if a.Args.Quiet {
			fmt.Fprintln(a.Out, health.Status)
			return
		}
		fmt.Fprintln(a.Out, TitleStyle.Render("Automation API"))
		fmt.Fprintln(a.Out, RenderField("URL", a.Client.BaseURL()))
		fmt.Fprintln(a.Out, RenderField("Status", RenderHealth(health.Status)))
		fmt.Fprintln(a.Out, RenderField("Valetudo", RenderHealth(health.Valetudo)))
		fmt.Fprintln(a.Out, RenderField("AI", RenderHealth(health.AI)))
		if len(health.AvailableModels) > 0 {
			fmt.Fprintln(a.Out, RenderField("Models", strings.Join(health.AvailableModels, ", ")))
		}
	})
}
