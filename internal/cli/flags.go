package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	JSON     bool   `long:"json" description:"Output in JSON format"`
	LogLevel string `long:"log-level" description:"Override LOG_LEVEL (debug, info, warn, error)"`
	Version  bool   `long:"version" description:"Show version and exit"`
}

// FetchCommand runs the feed pipeline once and prints the presented records.
type FetchCommand struct {
	MinMagnitude string `long:"min-magnitude" description:"Minimum magnitude (defaults to MIN_MAGNITUDE)"`
	OrderBy      string `long:"order-by" description:"Sort order: time | magnitude (defaults to ORDER_BY)"`
	Limit        string `long:"limit" description:"Maximum number of events (defaults to RESULT_LIMIT)"`
	Endpoint     string `long:"endpoint" description:"Override USGS_ENDPOINT"`

	globals *GlobalFlags
	version string
}

// ServeCommand runs the HTTP service.
type ServeCommand struct {
	Addr   string `long:"addr" description:"Override HTTP_ADDR"`
	NoWarm bool   `long:"no-warm" description:"Skip the startup fetch with the default filters"`

	globals *GlobalFlags
	version string
}
