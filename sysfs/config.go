package sysfs

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/reach"
)

// DefaultPollInterval is how often link state is re-read when no
// filesystem event arrives.
const DefaultPollInterval = 5 * time.Second

// DefaultErrorHistory is the number of notifier errors retained.
const DefaultErrorHistory = 16

// validate is the shared validator instance.
var validate = validator.New()

// Config describes where link state is read from and what wakes the notifier.
type Config struct {
	// Root is the sysfs mount point. Links are read from Root/class/net.
	Root string `yaml:"root" json:"root" validate:"required"`

	// WakePaths are files or directories whose changes trigger a re-read.
	// Paths that do not exist are skipped and recorded in the error history.
	WakePaths []string `yaml:"wake_paths" json:"wake_paths" validate:"dive,required"`

	// PollInterval re-reads link state periodically. Zero disables polling.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" validate:"min=0"`

	// Exclude lists interface name prefixes that never count as connectivity,
	// such as container bridges.
	Exclude []string `yaml:"exclude" json:"exclude" validate:"dive,required"`

	// CellularPrefixes lists interface name prefixes classified as cellular
	// when the kernel does not report DEVTYPE=wwan.
	CellularPrefixes []string `yaml:"cellular_prefixes" json:"cellular_prefixes" validate:"dive,required"`

	// ErrorHistory is how many notifier errors to retain. Zero disables history.
	ErrorHistory int `yaml:"error_history" json:"error_history" validate:"min=0,max=1024"`
}

// DefaultConfig returns the configuration used by New when no options are given.
func DefaultConfig() Config {
	return Config{
		Root: "/sys",
		WakePaths: []string{
			"/etc/resolv.conf",
			"/run/systemd/netif/links",
			"/run/NetworkManager",
		},
		PollInterval:     DefaultPollInterval,
		Exclude:          []string{"docker", "veth", "br-", "virbr", "lxc", "cni", "flannel"},
		CellularPrefixes: []string{"wwan", "rmnet", "ccmni"},
		ErrorHistory:     DefaultErrorHistory,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// LoadConfig decodes data with codec over DefaultConfig and validates the
// result. Fields absent from data keep their defaults.
//
// Example:
//
//	data, _ := os.ReadFile("/etc/player/reach.yaml")
//	cfg, err := sysfs.LoadConfig(data, reach.YAMLCodec{})
func LoadConfig(data []byte, codec reach.Codec) (Config, error) {
	cfg := DefaultConfig()
	if err := codec.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode %s config: %w", codec.ContentType(), err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads path and decodes it with the codec matching its
// extension. See LoadConfig.
func LoadConfigFile(path string) (Config, error) {
	codec, err := reach.CodecForPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return LoadConfig(data, codec)
}
