package sqlitecas

import (
	"flag"
	"fmt"

	"xdao.co/sealkit/storage"
	"xdao.co/sealkit/storage/casregistry"
)

var flagPath string

func open(path string) (storage.CAS, func() error, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("missing sqlite database path")
	}
	cas, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	return cas, cas.Close, nil
}

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "sqlite",
		Description: "SQLite envelope store (single database file)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagPath, "sqlite-path", "", "SQLite database file (for --backend=sqlite)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagPath)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			return open(cfg["sqlite-path"])
		},
	})
}
