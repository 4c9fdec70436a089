// Package config loads naming-server and storage-server configuration from
// a YAML file, the same YAML-over-defaults shape and $HOME-relative
// fallback path the teacher's config package used, generalized to this
// system's own keys. There is no key=value override on top of the file.
package config

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	osuser "os/user"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"

	"nsfs.io/errs"
)

// Known keys. All others are treated as errors.
const (
	keyListenHost    = "listenhost"
	keyClientAddr    = "clientaddr"
	keyRegistrarAddr = "registraraddr"
	keyStorageRoot   = "storageroot"
	keyLogLevel      = "loglevel"
)

// NamingConfig holds a naming server's startup configuration.
type NamingConfig struct {
	// ClientAddr is the address the client-service skeleton binds.
	ClientAddr string
	// RegistrarAddr is the address the registration skeleton binds.
	RegistrarAddr string
	// LogLevel is one of "debug", "info", "error", or "disabled".
	LogLevel string
}

// StorageConfig holds a storage server's startup configuration.
type StorageConfig struct {
	// ListenHost is the host portion storage servers advertise to the
	// naming server; it must be reachable from the naming server's host.
	ListenHost string
	// RegistrarAddr is the naming server's registration address.
	RegistrarAddr string
	// StorageRoot is the local directory this server hosts.
	StorageRoot string
	// LogLevel is one of "debug", "info", "error", or "disabled".
	LogLevel string
}

// defaultNamingVals and defaultStorageVals seed InitNamingConfig and
// InitStorageConfig with every recognized key, so an unrecognized key in the
// file is caught rather than silently ignored.
func defaultNamingVals() map[string]string {
	return map[string]string{
		keyClientAddr:    ":8888",
		keyRegistrarAddr: ":8889",
		keyLogLevel:      "info",
	}
}

func defaultStorageVals() map[string]string {
	return map[string]string{
		keyListenHost:    "",
		keyRegistrarAddr: "",
		keyStorageRoot:   "",
		keyLogLevel:      "info",
	}
}

// NamingConfigFromFile reads a naming server configuration from name. If the
// file cannot be opened and name is not absolute, $HOME/nsfs/name is tried
// as well, mirroring the teacher's FromFile fallback.
func NamingConfigFromFile(name string) (NamingConfig, error) {
	r, err := openConfigFile(name)
	if err != nil {
		return NamingConfig{}, err
	}
	defer r.Close()
	return InitNamingConfig(r)
}

// StorageConfigFromFile reads a storage server configuration from name, with
// the same fallback behavior as NamingConfigFromFile.
func StorageConfigFromFile(name string) (StorageConfig, error) {
	r, err := openConfigFile(name)
	if err != nil {
		return StorageConfig{}, err
	}
	defer r.Close()
	return InitStorageConfig(r)
}

func openConfigFile(name string) (*os.File, error) {
	const op = errs.Op("config.openConfigFile")
	f, err := os.Open(name)
	if err != nil && !filepath.IsAbs(name) && os.IsNotExist(err) {
		if home, errHome := Homedir(); errHome == nil {
			f, err = os.Open(filepath.Join(home, "nsfs", name))
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.E(op, errs.NotExist, err)
		}
		return nil, errs.E(op, err)
	}
	return f, nil
}

// InitNamingConfig parses a YAML document of the form
//
//	clientaddr: :8888
//	registraraddr: :8889
//	loglevel: info
//
// from r, applying defaults for any key left unset.
func InitNamingConfig(r io.Reader) (NamingConfig, error) {
	const op = errs.Op("config.InitNamingConfig")
	vals := defaultNamingVals()
	if err := loadYAMLVals(vals, r); err != nil {
		return NamingConfig{}, errs.E(op, err)
	}
	return NamingConfig{
		ClientAddr:    vals[keyClientAddr],
		RegistrarAddr: vals[keyRegistrarAddr],
		LogLevel:      vals[keyLogLevel],
	}, nil
}

// InitStorageConfig parses a YAML document of the form
//
//	listenhost: storage1.example.internal
//	registraraddr: naming.example.internal:8889
//	storageroot: /var/nsfs/storage1
//	loglevel: info
//
// from r, applying defaults for any key left unset.
func InitStorageConfig(r io.Reader) (StorageConfig, error) {
	const op = errs.Op("config.InitStorageConfig")
	vals := defaultStorageVals()
	if err := loadYAMLVals(vals, r); err != nil {
		return StorageConfig{}, errs.E(op, err)
	}
	if vals[keyRegistrarAddr] == "" {
		return StorageConfig{}, errs.E(op, errs.Invalid, errs.Str("registraraddr is required"))
	}
	if vals[keyStorageRoot] == "" {
		return StorageConfig{}, errs.E(op, errs.Invalid, errs.Str("storageroot is required"))
	}
	return StorageConfig{
		ListenHost:    vals[keyListenHost],
		RegistrarAddr: vals[keyRegistrarAddr],
		StorageRoot:   vals[keyStorageRoot],
		LogLevel:      vals[keyLogLevel],
	}, nil
}

// loadYAMLVals parses r as a flat YAML map and overwrites matching entries
// in vals. It fails on any key not already present in vals.
func loadYAMLVals(vals map[string]string, r io.Reader) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	newVals := map[string]interface{}{}
	if err := yaml.Unmarshal(data, newVals); err != nil {
		return errs.E(errs.Invalid, errs.Errorf("parsing YAML file: %v", err))
	}
	for k, v := range newVals {
		if _, ok := vals[k]; !ok {
			return errs.E(errs.Invalid, errs.Errorf("unrecognized key %q", k))
		}
		s, err := asString(v)
		if err != nil {
			return errs.E(errs.Invalid, errs.Errorf("%q: %v", k, err))
		}
		vals[k] = s
	}
	return nil
}

// asString converts a YAML-decoded scalar back into its string form.
func asString(v interface{}) (string, error) {
	switch vc := v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64, bool:
		return fmt.Sprintf("%v", vc), nil
	case string:
		return vc, nil
	}
	return "", errs.Errorf("unrecognized value %T", v)
}

// Homedir returns the home directory of the OS' logged-in user.
func Homedir() (string, error) {
	u, err := osuser.Current()
	if u == nil {
		e := errs.Str("lookup of current user failed")
		if err != nil {
			e = errs.Errorf("%v: %v", e, err)
		}
		return "", e
	}
	if u.HomeDir == "" {
		return "", errs.E(errs.NotExist, errs.Str("user home directory not found"))
	}
	return u.HomeDir, nil
}
