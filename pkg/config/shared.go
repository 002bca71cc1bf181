package config

import "github.com/spf13/pflag"

type Library struct {
	// some directory which is going to be
	// the root folder for the library
	BasePath string `default:"assets/games"`
	// a list of supported file extensions
	Supported []string
	// a list of ignored words in the files
	Ignored []string
	// enable directory changes watch
	WatchMode bool
}

func (l Library) GetSupportedExtensions() []string { return l.Supported }

type Audio struct {
	// Output plays the audio on the local device.
	Output bool
	// BufferMs is the local output buffer size.
	BufferMs int `default:"50"`
	// MaxQueue caps each consumer queue in samples, 0 is unbounded.
	MaxQueue int
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool `json:"metric_enabled"`
	ProfilingEnabled bool `json:"profiling_enabled"`
	StatsView        struct {
		Enabled bool
		Address string `default:"localhost:18066"`
	}
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

type Server struct {
	Address string `default:":8000"`
	Https   bool
	Tls     struct {
		Address   string `default:":443"`
		Domain    string
		HttpsKey  string
		HttpsCert string
	}
	// CORS allowed origins, all when empty
	Origins []string
}

func (s *Server) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.Address, "address", s.Address, "HTTP server address (host:port)")
	fs.StringVar(&s.Tls.Address, "httpsAddress", s.Tls.Address, "HTTPS server address (host:port)")
	fs.StringVar(&s.Tls.HttpsKey, "httpsKey", s.Tls.HttpsKey, "HTTPS key")
	fs.StringVar(&s.Tls.HttpsCert, "httpsCert", s.Tls.HttpsCert, "HTTPS chain")
}

func (s *Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}
