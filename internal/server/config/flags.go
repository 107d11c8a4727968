package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/ogpblog/internal/flagx"
)

// parseFlags overlays values from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-i string   Imgix source domain
//	-r string   Redis URL
//	-l string   log level
//
// Only these flags are read; everything else in args is ignored.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-i", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ImgixDomain, "i", config.ImgixDomain, "imgix domain")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
