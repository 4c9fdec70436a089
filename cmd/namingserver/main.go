// Command namingserver runs the naming server: the process that owns the
// namespace and the storage-server registry and exposes them over the
// client-service and registration remote interfaces.
package main

import (
	"nsfs.io/config"
	"nsfs.io/flags"
	"nsfs.io/log"
	"nsfs.io/naming"
	"nsfs.io/rpc"
	"nsfs.io/shutdown"
)

func main() {
	flags.Parse("clientaddr", "registraraddr", "config", "log")

	clientAddr, registrarAddr := flags.ClientAddr, flags.RegistrarAddr
	if flags.ConfigFile != "" {
		cfg, err := config.NamingConfigFromFile(flags.ConfigFile)
		if err != nil {
			log.Fatalf("namingserver: loading %q: %v", flags.ConfigFile, err)
		}
		clientAddr, registrarAddr = cfg.ClientAddr, cfg.RegistrarAddr
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			log.Fatalf("namingserver: %v", err)
		}
	}

	s := naming.New(rpc.Address(clientAddr), rpc.Address(registrarAddr))
	if err := s.Start(); err != nil {
		log.Fatalf("namingserver: %v", err)
	}
	shutdown.Handle(s.Stop)

	log.Printf("namingserver: client service listening on %s", s.ClientAddr)
	log.Printf("namingserver: registration service listening on %s", s.RegistrationAddr)

	select {}
}
