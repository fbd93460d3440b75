package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// Print a new device identifier.
func PrintDeviceID(c *cli.Context) error {
	_, err := fmt.Fprintln(c.App.Writer, uuid.New().String())
	return err
}
