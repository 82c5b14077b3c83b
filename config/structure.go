package config

import "time"

type Config struct {
	Environment   string
	Port          string
	LogFolder     string
	PrintersFile  string
	StreamFolder  string
	ModelFolder   string
	StaticFolder  string
	PollInterval  time.Duration
	BoardUpstream string
}

// PrinterConfig is one entry of the fleet file. Every field is
// optional; an entry without a recognized type becomes a static
// printer showing only its configured video and link.
type PrinterConfig struct {
	Type          string `yaml:"type"`
	Hostname      string `yaml:"hostname"`
	APIKey        string `yaml:"apikey"`
	Video         string `yaml:"video"`
	VideoType     string `yaml:"video_type"`
	VideoSettings string `yaml:"video_settings"`
	Link          string `yaml:"link"`
}

// Fleet is the parsed printers file: printer id -> its configuration.
type Fleet struct {
	Printers map[string]PrinterConfig `yaml:"printers"`
}
