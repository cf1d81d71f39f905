package cli

import (
	"fmt"

	"github.com/julianstephens/kvinspect/internal/kvinspect"
)

type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a config file with default settings"`
}

// ConfigInitCmd writes the default options, optionally with a store path, to Path.
type ConfigInitCmd struct {
	Path  string `arg:"" help:"Where to write the config file" type:"path"`
	Store string `help:"Store path to record in the config"   type:"path"`
}

func (c *ConfigInitCmd) Run(env *Env) error {
	o := kvinspect.DefaultOptions()
	o.StorePath = c.Store
	if err := o.Validate(); err != nil {
		return fail("config init", err)
	}
	if err := o.Save(c.Path); err != nil {
		return fail("config init", err)
	}
	env.Logger.Info("config written", "path", c.Path)
	if _, err := fmt.Fprintf(env.Out, "wrote %s\n", c.Path); err != nil {
		return fail("config init", err)
	}
	return nil
}
