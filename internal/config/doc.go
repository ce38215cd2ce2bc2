// Package config holds the settings of the puzzlecrawl CLI.
//
// Settings come from four layers, each overriding the previous one:
// built-in defaults (XDG directories), an optional YAML file, PUZZLECRAWL_*
// environment variables and finally command-line flags.
package config
