package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"ljbuild/internal/config"
)

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	fmt.Printf("# %s\n# dataset dir: %s\n", cfg.Paths.ConfigPath, cfg.DatasetDir())
	out, err := toml.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	fmt.Print(string(out))
	if err := cfg.Validate(); err != nil {
		fmt.Printf("# invalid: %v\n", err)
	}
}
