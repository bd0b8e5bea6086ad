// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

// DefaultEnvFile is read when present and no other file is named.
const DefaultEnvFile = ".env"

// EnvLookup returns a getenv for Load. Variables set in the process
// environment win over those in the dotenv file at path. When mustExist is
// false a missing file is ignored. The process environment is not modified.
func EnvLookup(path string, mustExist bool) (func(string) string, error) {
	if path == "" {
		return os.Getenv, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return os.Getenv, nil
		}
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("env_file", path).Wrap(err)
	}

	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return values[key]
	}, nil
}
