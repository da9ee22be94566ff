package cli

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"phytogen/internal/config"
	"phytogen/internal/model"
	"phytogen/pkg/phytogen"
)

var (
	seedFlag    int64
	configFlag  string
	storeFlag   string
	dbFlag      string
	sessionFlag string
)

// RootCmd returns the root command with the persistent flags shared by
// every subcommand.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phytogenctl",
		Short: "phytogenctl drives the phytogen breeding and adaptation engines",
		Long: `phytogenctl is a CLI front end for the phytogen library.
It creates founder genotypes, crosses them, expresses phenotypes under an
environment, applies stress exposure, and replays persisted sessions.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Int64Var(&seedFlag, "seed", 0, "random seed (0 uses the clock)")
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&storeFlag, "store", "", "store backend (memory or sqlite)")
	cmd.PersistentFlags().StringVar(&dbFlag, "db", "", "sqlite database path")
	cmd.PersistentFlags().StringVar(&sessionFlag, "session", "default", "session id keying persisted state")

	return cmd
}

// newClient builds and initializes a client from the persistent flags.
// The caller owns the returned client and must Close it.
func newClient(cmd *cobra.Command) (*phytogen.Client, error) {
	var cfg *config.Config
	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	client, err := phytogen.New(phytogen.Options{
		StoreKind: storeFlag,
		DBPath:    dbFlag,
		SessionID: sessionFlag,
		Seed:      seedFlag,
		Config:    cfg,
		Logger:    log.New(os.Stderr, "phytogenctl: ", 0),
	})
	if err != nil {
		return nil, err
	}
	client.Init(cmd.Context())
	return client, nil
}

// envFlags holds the environment knobs shared by express, expose, and
// simulate.
type envFlags struct {
	temperature float64
	humidity    float64
	light       float64
	co2         float64
	health      float64
}

func addEnvFlags(cmd *cobra.Command) *envFlags {
	f := &envFlags{}
	cmd.Flags().Float64Var(&f.temperature, "temp", 24, "temperature in degrees C")
	cmd.Flags().Float64Var(&f.humidity, "humidity", 55, "relative humidity %")
	cmd.Flags().Float64Var(&f.light, "light", 600, "light level (PPFD)")
	cmd.Flags().Float64Var(&f.co2, "co2", 800, "CO2 ppm")
	cmd.Flags().Float64Var(&f.health, "health", 1, "plant health [0,1]")
	return f
}

func (f *envFlags) environment() *model.Environment {
	return &model.Environment{
		Temperature: f.temperature,
		Humidity:    f.humidity,
		Light:       f.light,
		CO2:         f.co2,
		Health:      f.health,
	}
}
