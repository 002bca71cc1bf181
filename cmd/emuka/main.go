package main

import (
	"context"
	"os"
	"time"

	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/audio/output"
	"github.com/emuka/emuka/pkg/audio/recorder"
	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/emulator/libretro"
	"github.com/emuka/emuka/pkg/emulator/libretro/bridge"
	"github.com/emuka/emuka/pkg/emulator/libretro/manager"
	"github.com/emuka/emuka/pkg/emulator/libretro/nanoarch"
	"github.com/emuka/emuka/pkg/games"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/emuka/emuka/pkg/monitoring"
	"github.com/emuka/emuka/pkg/network/httpx"
	eos "github.com/emuka/emuka/pkg/os"
	"github.com/emuka/emuka/pkg/server"
	"github.com/emuka/emuka/pkg/service"
	"github.com/spf13/pflag"
)

var Version = "?"

const shutdownTimeout = 10 * time.Second

// loadConfig reads the --conf flag first, so the other flags
// could override the values of that config file.
func loadConfig(args []string) *config.Config {
	pre := pflag.NewFlagSet("emuka", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	config.FlagConfigPath(pre)
	_ = pre.Parse(args)

	conf, err := config.NewConfig()
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config")
	}

	fs := pflag.NewFlagSet("emuka", pflag.ExitOnError)
	var path string
	fs.StringVarP(&path, "conf", "c", "", "Set custom configuration file path")
	conf.WithFlags(fs)
	_ = fs.Parse(args)
	return conf
}

func main() {
	conf := loadConfig(os.Args[1:])
	log := logger.NewConsole(conf.Debug, "emuka", false)
	log.Info().Msgf("version %s", Version)
	log.Debug().Msgf("conf: %+v", conf)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := manager.New(conf.Emulator, log).Sync(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("core sync")
	}
	cancel()

	dist := audio.NewDistributor(audio.WithMaxQueue(conf.Audio.MaxQueue))
	joypad := &emulator.Joypad{}

	frontend, err := libretro.NewFrontend(conf.Emulator, joypad, dist, log)
	if err != nil {
		log.Fatal().Err(err).Msg("frontend")
	}
	b := bridge.New(log)
	frontend.Attach(b)

	core, err := nanoarch.Load(conf.Emulator.Core, b, nanoarch.Options{
		FrameRate:      conf.Emulator.FrameRate,
		AudioFrequency: conf.Emulator.AudioFrequency,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("core")
	}
	defer func() { _ = core.Close() }()

	var services service.Group

	var out *output.Output
	if conf.Audio.Output {
		if out, err = output.New(dist, time.Duration(conf.Audio.BufferMs)*time.Millisecond, log); err != nil {
			log.Fatal().Err(err).Msg("audio")
		}
	}

	var pacer *emulator.Pacer
	opts := []emulator.Option{
		emulator.WithLockThread(conf.Emulator.LockThread),
		emulator.WithFrameRateHook(func(fps float64) { pacer.Reset(fps) }),
	}
	if out != nil {
		opts = append(opts, emulator.WithRunningHook(out.SetPlaying))
	}
	actor := emulator.NewActor(core, b, joypad, log, opts...)
	pacer = emulator.NewPacer(actor, core.FrameRate(), log)

	lib, err := games.NewLib(conf.Library, log)
	if err != nil {
		log.Fatal().Err(err).Msg("library")
	}
	rec := recorder.New(dist, log)

	api := server.New(actor, dist, log,
		server.WithLibrary(lib),
		server.WithRecorder(rec),
		server.WithExtensions(conf.Library.Supported),
		server.WithOrigins(conf.Server.Origins),
	)
	srv, err := httpx.NewServer(
		conf.Server.GetAddr(),
		func(*httpx.Server) httpx.Handler { return api.Handler() },
		httpx.WithServerConfig(conf.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("http server")
	}

	if conf.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Monitoring, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitoring")
		}
		services.Add(mon)
	}
	// the order matters: stopped in reverse
	services.Add(actor, pacer, lib, rec)
	if out != nil {
		services.Add(out)
	}
	services.Add(srv, api)
	services.Start()

	<-eos.ExpectTermination()

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := services.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}
