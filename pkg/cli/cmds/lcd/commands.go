package lcd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fbrpc/pkg/cli/sh"
	"github.com/robotalks/fbrpc/pkg/display"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

var (
	// TestCmd sends a test message echoed by the device.
	TestCmd = ishell.Cmd{
		Name:    "test",
		Aliases: []string{"t"},
		Help:    "MESSAGE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCall(c, TestCall(strings.Join(c.Args, " ")))
		}),
	}

	// ClearCmd clears the display.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCall(c, func(ctx context.Context, client *rpc.Client) (rpc.Response, error) {
				return client.ClearDisplay(ctx)
			})
		}),
	}

	// DefaultCmd restores the default image.
	DefaultCmd = ishell.Cmd{
		Name: "default",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCall(c, func(ctx context.Context, client *rpc.Client) (rpc.Response, error) {
				return client.DisplayDefault(ctx)
			})
		}),
	}

	// ImageCmd sends an image file, PNG or raw RGB565.
	ImageCmd = ishell.Cmd{
		Name:    "image",
		Aliases: []string{"img"},
		Help:    "FILE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("image file expected"))
				return
			}
			call, err := ImageCall(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCall(c, call)
		}),
	}
)

// TestCall creates the call of test method.
func TestCall(message string) sh.Call {
	return func(ctx context.Context, client *rpc.Client) (rpc.Response, error) {
		return client.Test(ctx, message)
	}
}

// ImageCall loads fn and creates the call of display_image method.
func ImageCall(fn string) (sh.Call, error) {
	pixels, err := display.LoadImage(fn)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *rpc.Client) (rpc.Response, error) {
		return client.DisplayImage(ctx, pixels)
	}, nil
}

func init() {
	sh.AddCmds(
		&TestCmd,
		&ClearCmd,
		&DefaultCmd,
		&ImageCmd,
	)
}
