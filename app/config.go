package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	// Database is the postgres DSN of the reaction store.
	Database string `yaml:"database"`

	Logging struct {
		// Level is a logrus level name, info when empty.
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Rating struct {
		// MaxPoint is the star scale, 5 when unset.
		MaxPoint int `yaml:"maxpoint"`
	} `yaml:"rating"`
}

// CollectConfig merges YAML files left to right, then applies
// environment variables starting with environPrefix. Env keys map to
// config paths by underscore: PREFIX_LOGGING_LEVEL sets
// logging.level. Values inside files are expanded with ${VAR} before
// parsing.
func CollectConfig(environPrefix string, paths ...string) (*Config, error) {
	global := make(map[string]interface{})
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}

		config := make(map[string]interface{})
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}

		global = merge(global, config)
	}

	global = merge(global, environ(environPrefix))

	data, err := yaml.Marshal(global)
	if err != nil {
		return nil, errors.Wrap(err, "encode global config")
	}

	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "decode global config")
	}

	return config, nil
}

func environ(prefix string) map[string]interface{} {
	m := make(map[string]interface{})
	for _, line := range os.Environ() {
		if !strings.HasPrefix(line, prefix) {
			continue
		}

		line = line[len(prefix):]
		equals := strings.Index(line, "=")
		key, value := line[:equals], line[equals+1:]
		keyTokens := strings.Split(key, "_")
		keyTokensLastIdx := len(keyTokens) - 1
		entry := m
		for i, keyToken := range keyTokens {
			if keyToken == "" {
				break
			}

			keyToken = strings.ToLower(keyToken)
			if i == keyTokensLastIdx {
				if ev, ok := entry[keyToken]; ok {
					if _, ok := ev.(map[string]interface{}); ok {
						logrus.Warnf("discarding env var %s due to type incompatibility", key)
						continue
					}
				}

				entry[keyToken] = sniff(value)
			} else {
				var mev map[string]interface{}
				if ev, ok := entry[keyToken]; ok {
					if mev, ok = ev.(map[string]interface{}); !ok {
						logrus.Warnf("overriding parent as object for env var %s", key)
						mev = make(map[string]interface{})
						entry[keyToken] = mev
					}
				} else {
					mev = make(map[string]interface{})
					entry[keyToken] = mev
				}

				entry = mev
			}
		}
	}

	return m
}

func sniff(value string) interface{} {
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v
	}

	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v
	}

	if v, err := strconv.ParseBool(value); err == nil {
		return v
	}

	return value
}

func merge(a, b map[string]interface{}) map[string]interface{} {
	for k, v := range b {
		if av, ok := a[k]; !ok {
			a[k] = v
			continue
		} else if mav, ok := av.(map[string]interface{}); ok {
			if mv, ok := v.(map[string]interface{}); ok {
				a[k] = merge(mav, mv)
				continue
			}
		} else if _, ok := v.(map[string]interface{}); !ok {
			a[k] = v
			continue
		}

		logrus.Fatalf("configuration keys %s must have the same type", k)
	}

	return a
}
