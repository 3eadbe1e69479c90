package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
)

// parseFlags overlays flag values onto config.
//
//	-d string   PostgreSQL DSN
//	-l string   log level
//	-g string   admin group id
//	-m int      maximum hierarchy depth
//	-t int      database connect timeout, seconds
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-l", "-g", "-m", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.AdminGroupID, "g", config.AdminGroupID, "admin group id")
	fs.IntVar(&config.MaxHierarchyDepth, "m", config.MaxHierarchyDepth, "maximum hierarchy depth")
	connectTimeout := fs.Int("t", int(config.ConnectTimeout.Seconds()), "database connect timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ConnectTimeout = time.Duration(*connectTimeout) * time.Second
}
