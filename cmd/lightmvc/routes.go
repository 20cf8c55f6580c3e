package main

import (
	"fmt"
	"path"
	"reflect"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lightmvc/lightmvc"
)

// controllerName is the controller type prefixed with its domain. Types of a
// main package have no domain: their package path is "main" in a binary but
// the full import path in a test binary.
func controllerName(r lightmvc.RouteInfo) string {
	ns := r.Namespace()
	if isMainPackage(r) {
		return ns.FileName
	}
	return path.Join(ns.DomainName, ns.FileName)
}

func newRoutesCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := newDemoApp(nil)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATTERN\tCONTROLLER")
			for _, r := range app.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Pattern, controllerName(r))
			}
			return w.Flush()
		},
	}
}

func isMainPackage(r lightmvc.RouteInfo) bool {
	t := reflect.TypeOf(r.Controller)
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() == reflect.TypeFor[rootOptions]().PkgPath()
}
