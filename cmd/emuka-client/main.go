package main

import (
	"context"
	"time"

	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/audio/output"
	"github.com/emuka/emuka/pkg/client"
	"github.com/emuka/emuka/pkg/logger"
	eos "github.com/emuka/emuka/pkg/os"
	"github.com/spf13/pflag"
)

func main() {
	base := pflag.StringP("server", "s", "http://localhost:8000", "Emulator server address")
	buffer := pflag.Duration("buffer", 50*time.Millisecond, "Audio output buffer")
	period := pflag.Duration("period", client.DefaultPeriod, "Audio polling period")
	debug := pflag.BoolP("debug", "d", false, "Print debug info")
	pflag.Parse()

	log := logger.NewConsole(*debug, "client", false)

	// the remote samples are replayed through a local queue
	local := audio.NewDistributor()
	out, err := output.New(local, *buffer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("audio")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := eos.ExpectTermination()
	go func() { <-stop; cancel() }()

	c := client.New(*base, log, client.WithPeriod(*period))
	id, err := c.Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("server")
	}
	log.Info().Msgf("audio consumer %v", id)

	out.Run()
	go c.Poll(ctx, id, func(samples audio.Samples) {
		for _, s := range samples {
			local.Push(s)
		}
	})

	<-ctx.Done()
	_ = out.Shutdown(context.Background())
}
