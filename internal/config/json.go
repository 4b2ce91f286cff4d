package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		TenantID string `json:"tenant_id"`
		Version  string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		Driver Driver `json:"driver"`

		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Remote struct {
			BaseURL        string   `json:"url"`
			APIKey         string   `json:"api_key"`
			AccessToken    string   `json:"access_token"`
			RequestTimeout Duration `json:"request_timeout"`
		} `json:"remote,omitempty"`
	} `json:"storage,omitempty"`

	Crypto struct {
		ArgonTime            uint32 `json:"argon_time"`
		ArgonMemory          uint32 `json:"argon_memory"`
		ArgonThreads         uint8  `json:"argon_threads"`
		CompressionThreshold int    `json:"compression_threshold"`
	} `json:"crypto,omitempty"`

	Workers struct {
		AutoLockAfter Duration `json:"auto_lock_after"`
		CheckInterval Duration `json:"check_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	if jsonCfg.Storage.Driver != "" {
		driver := jsonCfg.Storage.Driver
		if err := driver.Set(string(driver)); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
		jsonCfg.Storage.Driver = driver
	}

	cfg := &StructuredConfig{
		App: App{
			TenantID: jsonCfg.App.TenantID,
			Version:  jsonCfg.App.Version,
		},
		Storage: Storage{
			Driver: jsonCfg.Storage.Driver,
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Remote: Remote{
				BaseURL:        jsonCfg.Storage.Remote.BaseURL,
				APIKey:         jsonCfg.Storage.Remote.APIKey,
				AccessToken:    jsonCfg.Storage.Remote.AccessToken,
				RequestTimeout: time.Duration(jsonCfg.Storage.Remote.RequestTimeout),
			},
		},
		Crypto: Crypto{
			ArgonTime:            jsonCfg.Crypto.ArgonTime,
			ArgonMemory:          jsonCfg.Crypto.ArgonMemory,
			ArgonThreads:         jsonCfg.Crypto.ArgonThreads,
			CompressionThreshold: jsonCfg.Crypto.CompressionThreshold,
		},
		Workers: Workers{
			AutoLockAfter: time.Duration(jsonCfg.Workers.AutoLockAfter),
			CheckInterval: time.Duration(jsonCfg.Workers.CheckInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
