package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/samuelfneumann/goppo/experiment"
)

func main() {
	configFile := flag.String("config", "", "JSON experiment configuration "+
		"file, defaults are used if empty")
	logDir := flag.String("logdir", "", "directory to write metrics, "+
		"checkpoints, and episode data to, overrides the configuration")
	flag.Parse()

	c := experiment.DefaultConfig()
	if *configFile != "" {
		var err error
		if c, err = experiment.Load(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	if *logDir != "" {
		c.LogDir = *logDir
	}
	if c.PPO.TotalTimesteps == 0 {
		c.PPO.TotalTimesteps = 1_000_000
	}

	// Stop training between updates on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := c.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
