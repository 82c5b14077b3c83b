package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var Conf Config

func Load() {
	var err error

	_, err = os.Stat(".env")

	if err != nil {
		log.Println(".env file does not exist\nReading from the environment directly")
	} else {
		err = godotenv.Load(".env")

		if err != nil {
			log.Fatal(err)
		}
	}

	Conf = Config{
		Environment:   os.Getenv("ENVIRONMENT"),
		LogFolder:     os.Getenv("LOG_FOLDER"),
		PrintersFile:  getenv("PRINTERS_FILE", "printers.yaml"),
		StreamFolder:  getenv("STREAM_FOLDER", "/dev/shm/vid-stream"),
		ModelFolder:   getenv("MODEL_FOLDER", "model-cache"),
		StaticFolder:  getenv("STATIC_FOLDER", "static"),
		BoardUpstream: os.Getenv("BOARD_UPSTREAM"),
		Port:          getenv("PORT", "8888"),
		PollInterval: func() time.Duration {
			interval, err := time.ParseDuration(os.Getenv("POLL_INTERVAL"))
			if err != nil || interval <= 0 {
				return 5 * time.Second
			}
			return interval
		}(),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func GetConfig() Config {
	return Conf
}

// LoadFleet reads the printers file. A missing file is an empty fleet,
// not an error: the board must come up even before any printer is
// configured.
func LoadFleet(path string) (Fleet, error) {
	var fleet Fleet

	data, err := os.ReadFile(path)

	if err != nil {
		if os.IsNotExist(err) {
			return Fleet{Printers: map[string]PrinterConfig{}}, nil
		}
		return fleet, err
	}

	if err = yaml.Unmarshal(data, &fleet); err != nil {
		return fleet, err
	}

	if fleet.Printers == nil {
		fleet.Printers = map[string]PrinterConfig{}
	}
	return fleet, nil
}
