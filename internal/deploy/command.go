package deploy

import (
	"context"

	"github.com/commoncode/vhdeploy/internal/remote"
)

type command struct {
	sudo bool
	cmd  string
}

// runAll runs cmds in dir, stopping at the first failure.
func runAll(ctx context.Context, r remote.Runner, dir string, cmds []command) error {
	for _, c := range cmds {
		var err error
		if c.sudo {
			_, err = r.Sudo(ctx, dir, c.cmd)
		} else {
			_, err = r.Run(ctx, dir, c.cmd)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
