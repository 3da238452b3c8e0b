//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gvallee/mpi2otf2/internal/pkg/format"
	"github.com/gvallee/mpi2otf2/internal/pkg/logger"
)

// DefaultTimerResolution is the number of clock ticks per second when none
// is given. The timestamps of the logs are meaningless with it.
const DefaultTimerResolution uint64 = 1

// Config gathers the settings of a conversion
type Config struct {
	// Verbosity is one of silent, error, warn, info or abort
	Verbosity logger.Verbosity `yaml:"verbosity"`

	// TimerResolution is the number of clock ticks per second of the
	// timestamps found in the logs
	TimerResolution uint64 `yaml:"timer_resolution"`

	// GlobalCommIDs means that the communicator handles of the logs already
	// are global ids; no local definitions are written then
	GlobalCommIDs bool `yaml:"global_comm_ids"`

	// Jobs is the maximum number of ranks converted at the same time, 0
	// meaning no limit
	Jobs int `yaml:"jobs"`

	// ArchiveName is the name of the archive inside the output directory
	ArchiveName string `yaml:"archive_name"`

	// BinThresholds are the message sizes delimiting the bins of the report
	BinThresholds []int `yaml:"bin_thresholds,omitempty"`
}

// Default returns the configuration used when nothing is specified
func Default() *Config {
	return &Config{
		Verbosity:       logger.Warn,
		TimerResolution: DefaultTimerResolution,
		ArchiveName:     format.DefaultArchiveName,
		BinThresholds:   []int{format.DefaultMsgSizeThreshold},
	}
}

// Load reads a configuration file on top of the default configuration
func Load(path string) (*Config, error) {
	cfg := Default()
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	err = dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to parse configuration file %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration can be used
func (c *Config) Validate() error {
	if c.TimerResolution == 0 {
		return fmt.Errorf("invalid timer resolution: 0")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("invalid number of jobs: %d", c.Jobs)
	}
	if c.ArchiveName == "" {
		return fmt.Errorf("empty archive name")
	}
	if !sort.IntsAreSorted(c.BinThresholds) {
		return fmt.Errorf("bin thresholds must be sorted: %v", c.BinThresholds)
	}
	return nil
}

// ParseThresholds parses a comma-separated list of bin thresholds
func ParseThresholds(s string) ([]int, error) {
	var thresholds []int
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("invalid bin threshold %q: %w", t, err)
		}
		thresholds = append(thresholds, n)
	}
	return thresholds, nil
}
