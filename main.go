package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/app"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Voice-to-text: records or listens to the microphone, transcribes speech")
	fmt.Fprintln(os.Stderr, "via the configured API and pastes the text into the active application.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Without -config, ./config.json is used when present. When neither exists")
	fmt.Fprintln(os.Stderr, "and no flags are given, a default config.json is generated and the")
	fmt.Fprintln(os.Stderr, "program exits so it can be edited first.")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage

	var configPath string
	var filePath string
	var mode string
	flag.StringVar(&configPath, "config", "", "path to config JSON")
	flag.StringVar(&filePath, "file", "", "path to existing audio file to upload (skips recording)")
	flag.StringVar(&mode, "mode", "record", "startup mode: record (hotkey driven) or listen (hands-free)")
	fv := config.BindFlags(flag.CommandLine)

	flag.Parse()

	cfg, ok := resolveConfig(configPath, fv, filePath != "")
	if !ok {
		return
	}

	config.LoadEnv(&cfg)

	if err := config.Validate(&cfg); err != nil {
		fmt.Printf("[main] invalid config: %v\n", err)
		os.Exit(1)
	}
	config.InitCacheDir(&cfg)

	switch {
	case filePath != "":
		if err := app.RunFileMode(cfg, filePath, fv.OutputPath); err != nil {
			fmt.Printf("[main] file mode failed: %v\n", err)
			os.Exit(3)
		}
	case mode == "listen":
		if err := app.RunListenMode(cfg); err != nil {
			fmt.Printf("[main] %v\n", err)
			os.Exit(1)
		}
	case mode == "record":
		if err := app.RunRecordMode(cfg); err != nil {
			fmt.Printf("[main] %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("[main] unknown mode '%s' (want record or listen)\n", mode)
		os.Exit(1)
	}
}

// resolveConfig picks the effective config. With -config the named file
// must load. Otherwise ./config.json is used when present. When neither
// exists and no flags were given, a default config.json is generated so
// the user can fill in the token, and the program exits.
func resolveConfig(configPath string, fv *config.FlagValues, fileMode bool) (config.Config, bool) {
	var cfg config.Config

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("[main] failed to load config '%s': %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	} else if _, err := os.Stat("config.json"); err == nil {
		loaded, err := config.Load("config.json")
		if err != nil {
			fmt.Printf("[main] failed to load existing config.json: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else if os.IsNotExist(err) {
		if !fv.AnySet() && !fileMode {
			if err := config.SaveDefault("config.json"); err != nil {
				fmt.Printf("[main] failed to write default config: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("[main] default config created at config.json. Please edit it and re-run.")
			return cfg, false
		}
		cfg = config.DefaultConfig()
	} else {
		fmt.Printf("[main] failed to stat config.json: %v\n", err)
		os.Exit(1)
	}

	config.ApplyFlags(&cfg, fv)
	return cfg, true
}
