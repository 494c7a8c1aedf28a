package registry // import "code.cloudfoundry.org/veneer/registry"

import (
	"os"
	"strings"
)

// Prefix namespaces every runtime setting in the process environment.
const Prefix = "VENEER_"

// RootfsSetting names the rootfs path handed down by the embedding
// environment.
const RootfsSetting = "rootfs"

// Registry exposes runtime settings injected by whatever launched the
// process. Settings live in plain environment variables under Prefix, so
// any wrapper can provide them without knowing about config files.
type Registry struct {
}

func New() *Registry {
	return &Registry{}
}

// Get returns the value of a setting, or "" when it is not set.
func (r *Registry) Get(name string) string {
	value, _ := os.LookupEnv(Key(name))
	return value
}

// Lookup returns the value of a setting and whether it is set at all.
func (r *Registry) Lookup(name string) (string, bool) {
	return os.LookupEnv(Key(name))
}

// Key maps a setting name to its environment variable: upcased, dashes
// normalized to underscores, Prefix applied.
func Key(name string) string {
	name = strings.ToUpper(name)
	name = strings.ReplaceAll(name, "-", "_")
	return Prefix + name
}
