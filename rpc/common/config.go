package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/dTodo/lib/db"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a dTodo server.
type ServerConfig struct {
	// HTTP api settings
	Endpoint string

	// Storage
	Backend           string // file, memory or sqlite
	DataDir           string
	QuarantineCorrupt bool

	// Actor settings
	TimeoutSecond         int64 // bound of every request/reply call
	ShutdownTimeoutSecond int64
	MaxWorkers            int // 0 = unlimited

	// Logging configuration
	LogLevel string

	// Optional config file, watched for changes
	ConfigFile string
}

// Validate checks the configuration for values the server can not start with.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("endpoint must not be empty"))
	}
	if _, err := db.ParseImplementation(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Backend != string(db.ImplMemory) && c.DataDir == "" {
		errs = append(errs, fmt.Errorf("backend %s needs a data directory", c.Backend))
	}
	if c.TimeoutSecond < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.ShutdownTimeoutSecond <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if c.MaxWorkers < 0 {
		errs = append(errs, errors.New("max workers must not be negative"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CallTimeout returns the bound for request/reply calls (0 = unbounded).
func (c *ServerConfig) CallTimeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// ShutdownTimeout returns the bound for a graceful shutdown.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecond) * time.Second
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Call Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Shutdown Timeout", fmt.Sprintf("%d sec", c.ShutdownTimeoutSecond))

	addSection("Workers")
	if c.MaxWorkers == 0 {
		addField("Max Workers", "unlimited")
	} else {
		addField("Max Workers", strconv.Itoa(c.MaxWorkers))
	}

	addSection("Storage")
	addField("Backend", c.Backend)
	if c.Backend != string(db.ImplMemory) {
		addField("Data Directory", c.DataDir)
	}
	addField("Quarantine Corrupt", strconv.FormatBool(c.QuarantineCorrupt))

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	if c.ConfigFile != "" {
		addField("Config File", c.ConfigFile+" (watched)")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
