// Package cliflag groups pflag.FlagSets under a name, the way cobra/kubectl
// style CLIs print "Generic flags:", "LLM flags:", etc. in --help output.
package cliflag

import (
	"sort"

	"github.com/spf13/pflag"
)

// NamedFlagSets is an ordered collection of named flag sets.
type NamedFlagSets struct {
	order    []string
	flagSets map[string]*pflag.FlagSet
}

// FlagSet returns the flag set registered under name, creating it (and
// recording its insertion order) on first use.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.flagSets == nil {
		nfs.flagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.flagSets[name]; !ok {
		nfs.flagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.order = append(nfs.order, name)
	}
	return nfs.flagSets[name]
}

// Order returns the flag set names in insertion order.
func (nfs *NamedFlagSets) Order() []string { return nfs.order }

// FlagSets returns the map of name -> FlagSet.
func (nfs *NamedFlagSets) FlagSets() map[string]*pflag.FlagSet { return nfs.flagSets }

// SortedNames returns the flag set names sorted lexically, used when
// printing deterministic --help output.
func (nfs *NamedFlagSets) SortedNames() []string {
	names := append([]string(nil), nfs.order...)
	sort.Strings(names)
	return names
}
