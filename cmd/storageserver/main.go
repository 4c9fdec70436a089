// Command storageserver runs a storage server: a process that hosts a
// directory subtree on local disk, registers it with a naming server, and
// exposes byte-I/O and command remote interfaces over it.
package main

import (
	"nsfs.io/config"
	"nsfs.io/flags"
	"nsfs.io/log"
	"nsfs.io/rpc"
	"nsfs.io/shutdown"
	"nsfs.io/storageserver"
)

func main() {
	flags.Parse("listenhost", "registraraddr", "root", "config", "log")

	listenHost, registrarAddr, root := flags.ListenHost, flags.RegistrarAddr, flags.StorageRoot
	if flags.ConfigFile != "" {
		cfg, err := config.StorageConfigFromFile(flags.ConfigFile)
		if err != nil {
			log.Fatalf("storageserver: loading %q: %v", flags.ConfigFile, err)
		}
		listenHost, registrarAddr, root = cfg.ListenHost, cfg.RegistrarAddr, cfg.StorageRoot
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			log.Fatalf("storageserver: %v", err)
		}
	}
	if root == "" {
		log.Fatal("storageserver: -root (or storageroot in -config) is required")
	}
	if registrarAddr == "" {
		log.Fatal("storageserver: -registraraddr (or registraraddr in -config) is required")
	}

	s := storageserver.New(root)
	if err := s.Start(listenHost, rpc.Address(registrarAddr)); err != nil {
		log.Fatalf("storageserver: %v", err)
	}
	shutdown.Handle(s.Stop)

	log.Printf("storageserver: hosting %s, registered with %s", root, registrarAddr)
	log.Printf("storageserver: byte-I/O service at %s, command service at %s", s.ByteStub.Addr(), s.CommandStub.Addr())

	select {}
}
