package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	asScalar bool
	dump     bool
)

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   `resolve <name> [<name> ...]`,
		Short: `Resolve - Show what each fetcher or scalar name binds to`,
		Long: `Resolve - Show what each fetcher or scalar name binds to.
  Names are looked up in the built-in pool first and in the scripted
  fetchers second, applying the reserved namespace rule.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}
	flags := cmd.Flags()
	flags.BoolVar(&asScalar, `scalar`, false, `resolve scalar converter names instead of fetcher names`)
	flags.BoolVar(&dump, `dump`, false, `dump each resolved binding`)
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPools(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	var (
		out     = cmd.OutOrStdout()
		found   = color.New(color.FgGreen)
		missing = color.New(color.FgYellow)
		failed  = color.New(color.FgRed, color.Bold)
		errs    int
	)
	fetchers := p.fetcherSelector(cfg)
	scalars := p.scalarSelector(cfg)
	for _, name := range args {
		var (
			origin  string
			binding interface{}
			ok      bool
			err     error
		)
		if asScalar {
			b, bok, berr := scalars.ResolveBinding(name)
			origin, binding, ok, err = b.Origin, b, bok, berr
		} else {
			b, bok, berr := fetchers.ResolveBinding(name)
			origin, binding, ok, err = b.Origin, b, bok, berr
		}
		switch {
		case err != nil:
			errs++
			failed.Fprintf(out, "%s: %v\n", name, err)
		case !ok:
			missing.Fprintf(out, "%s: not found\n", name)
		default:
			found.Fprintf(out, "%s: %s\n", name, origin)
			if dump {
				spew.Fdump(out, binding)
			}
		}
	}
	if errs > 0 {
		return fmt.Errorf("%d of %d names failed to resolve", errs, len(args))
	}
	return nil
}
