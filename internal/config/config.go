package config

import (
	"slices"
	"time"

	"caspfetch/internal/components/telemetry"
	"caspfetch/internal/pipelines"
	"caspfetch/internal/scrapers/predictioncenter"
	"caspfetch/lib/configutil"
)

// DefaultPath is looked up relative to the working directory.
const DefaultPath = "caspfetch.json5"

// Timeouts are in seconds, 0 disables a timeout. The fields are pointers so that an
// explicit 0 in a config file survives the merge with the defaults.
type Timeouts struct {
	Listing          *int `json:"listing"`
	Sequence         *int `json:"sequence"`
	LigandTargetList *int `json:"ligand_target_list"`
	TargetList       *int `json:"target_list"`
	Download         *int `json:"download"`
}

type Config struct {
	BaseUrl      string               `json:"base_url"`
	UserAgent    string               `json:"user_agent"`
	Timeouts     Timeouts             `json:"timeouts"`
	Supertargets []string             `json:"supertargets"`
	HttpDumpDir  string               `json:"http_dump_dir"`
	Otlp         telemetry.OtlpConfig `json:"otlp"`
}

// Defaults returns the built-in configuration, `userAgent` differs between the two programs.
func Defaults(userAgent string) Config {
	return Config{
		BaseUrl:   predictioncenter.DefaultBaseUrl,
		UserAgent: userAgent,
		Timeouts: Timeouts{
			Listing:          ptr(60),
			Sequence:         ptr(60),
			LigandTargetList: ptr(90),
			TargetList:       ptr(60),
			Download:         ptr(120),
		},
		Supertargets: slices.Clone(pipelines.DefaultSupertargets),
	}
}

// Load reads `path` (plus its `.local` override) and fills every unset field from `defaults`.
func Load(path string, defaults Config) (Config, error) {
	return configutil.ReadConfigWithDefaults(path, defaults)
}

func ptr(n int) *int {
	return &n
}

func seconds(n *int) time.Duration {
	if n == nil {
		return 0
	}
	return time.Duration(*n) * time.Second
}

func (c Config) ClientOptions(tel telemetry.API, output telemetry.MessageOutput) predictioncenter.ClientOptions {
	return predictioncenter.ClientOptions{
		BaseUrl:   c.BaseUrl,
		UserAgent: c.UserAgent,
		Timeouts: predictioncenter.Timeouts{
			Listing:          seconds(c.Timeouts.Listing),
			Sequence:         seconds(c.Timeouts.Sequence),
			LigandTargetList: seconds(c.Timeouts.LigandTargetList),
			TargetList:       seconds(c.Timeouts.TargetList),
			Download:         seconds(c.Timeouts.Download),
		},
		Telemetry: tel,
		Output:    output,
	}
}
