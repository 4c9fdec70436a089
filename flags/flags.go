// Package flags defines command-line flags shared by the naming server and
// storage server binaries, registered opt-in so each binary declares only
// the flags it uses, the same shape as the teacher's flags package.
package flags

import (
	"flag"
	"fmt"

	"nsfs.io/log"
)

var (
	// ClientAddr is the naming server's client-service listen address.
	ClientAddr = ":8888"

	// RegistrarAddr is the naming server's registration-service listen
	// address, or, for a storage server, the naming server's
	// registration address to dial.
	RegistrarAddr = ":8889"

	// ListenHost is the host a storage server advertises to the naming
	// server, used when the bind address is not externally routable.
	ListenHost = "localhost"

	// StorageRoot is the local directory a storage server hosts.
	StorageRoot = ""

	// ConfigFile names a YAML configuration file whose values replace
	// those of the other flags.
	ConfigFile = ""

	// Log sets the level of logging: debug, info, error, disabled.
	Log logFlag = "info"
)

type logFlag string

// String implements flag.Value.
func (l *logFlag) String() string { return string(*l) }

// Set implements flag.Value.
func (l *logFlag) Set(level string) error {
	if err := log.SetLevel(level); err != nil {
		return err
	}
	*l = logFlag(level)
	return nil
}

// Get implements flag.Getter.
func (l *logFlag) Get() interface{} { return string(*l) }

var _ flag.Getter = (*logFlag)(nil)

// register is the set of flags this package knows how to define, keyed by
// the name a binary passes to Parse.
var register = map[string]func(){
	"clientaddr": func() {
		flag.StringVar(&ClientAddr, "clientaddr", ClientAddr, "naming server client-service listen address")
	},
	"registraraddr": func() {
		flag.StringVar(&RegistrarAddr, "registraraddr", RegistrarAddr, "naming server registration address")
	},
	"listenhost": func() {
		flag.StringVar(&ListenHost, "listenhost", ListenHost, "host this server advertises to its peers")
	},
	"root": func() {
		flag.StringVar(&StorageRoot, "root", StorageRoot, "local directory this storage server hosts")
	},
	"config": func() {
		flag.StringVar(&ConfigFile, "config", ConfigFile, "YAML configuration file")
	},
	"log": func() {
		flag.Var(&Log, "log", "level of logging: debug, info, error, disabled")
	},
}

// Parse registers the named command-line flags and calls flag.Parse. Each
// name must be one Parse recognizes; an unknown name panics, so a binary
// finds out immediately that it asked for a flag this package doesn't
// define, rather than silently ignoring it.
func Parse(names ...string) {
	for _, name := range names {
		fn, ok := register[name]
		if !ok {
			panic(fmt.Sprintf("flags: unknown flag %q", name))
		}
		fn()
	}
	flag.Parse()
}
