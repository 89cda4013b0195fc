package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/log"
)

// NewQueryCommand creates new command instance
func NewQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "query [domain]",
		Args:              cobra.MaximumNArgs(1),
		Short:             "resolves a domain through the victim resolver, the victim domain by default",
		RunE:              query,
		PersistentPreRunE: initConfigPreRun,
	}
}

func query(_ *cobra.Command, args []string) error {
	res, err := newClient().Query(context.Background(), firstArg(args))
	if err != nil {
		return fmt.Errorf("can't execute: %w", err)
	}

	log.Log().Infof("Query result for '%s':", res.Domain)
	log.Log().Infof("\tip:            %20s", res.IP)
	log.Log().Infof("\tpoisoned:      %20t", res.Poisoned)
	log.Log().Infof("\tauthenticated: %20t", res.Authenticated)
	log.Log().Infof("\tcached:        %20t", res.Cached)

	return nil
}

func newCacheCommand() *cobra.Command {
	c := &cobra.Command{
		Use:               "cache",
		Short:             "Performs cache operations",
		PersistentPreRunE: initConfigPreRun,
	}

	c.AddCommand(&cobra.Command{
		Use:     "flush [domain]",
		Args:    cobra.MaximumNArgs(1),
		Aliases: []string{"clear"},
		Short:   "Flush the cached answer of a domain, all answers by default",
		RunE:    flushCache,
	})

	return c
}

func flushCache(_ *cobra.Command, args []string) error {
	if err := newClient().FlushCache(context.Background(), firstArg(args)); err != nil {
		return fmt.Errorf("can't execute %w", err)
	}

	log.Log().Info("OK")

	return nil
}

func newWebsiteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "website [domain]",
		Args:              cobra.MaximumNArgs(1),
		Short:             "loads the site a domain resolves to",
		RunE:              fetchWebsite,
		PersistentPreRunE: initConfigPreRun,
	}
}

func fetchWebsite(_ *cobra.Command, args []string) error {
	page, err := newClient().FetchSite(context.Background(), firstArg(args))
	if err != nil {
		return fmt.Errorf("can't execute: %w", err)
	}

	if !page.Success {
		return fmt.Errorf("can't load site of %s: %s", page.IP, page.Error)
	}

	log.Log().Infof("%s (%s, poisoned: %t)", page.URL, page.IP, page.Poisoned)
	log.Log().Info(page.HTML)

	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
