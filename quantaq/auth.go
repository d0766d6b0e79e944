// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package quantaq

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
)

type (
	// Token is the complete Authorization header value for the device API.
	// It is obtained once per invocation and passed to every request.
	Token string

	// TokenProvider looks up the API credential and returns it as a Token.
	TokenProvider func(context.Context) (Token, error)
)

// BasicToken encodes an API key as HTTP basic credentials with an empty
// password, which is what the device API expects.
func BasicToken(key string) Token {
	return Token("Basic " + base64.StdEncoding.EncodeToString([]byte(key+":")))
}

// ConstantKey is a TokenProvider that always returns the given API key.
func ConstantKey(key string) TokenProvider {
	return func(context.Context) (Token, error) {
		if key == "" {
			return "", fmt.Errorf("empty API key")
		}
		return BasicToken(key), nil
	}
}

// FileKey is a TokenProvider that reads the API key from a file (such as a
// mounted secret) on every call, so rotated secrets are picked up.
func FileKey(filename string) TokenProvider {
	return func(context.Context) (Token, error) {
		data, err := os.ReadFile(filename)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key := string(bytes.TrimSpace(data))
		if key == "" {
			return "", fmt.Errorf("API key file %s is empty", filename)
		}
		return BasicToken(key), nil
	}
}

// EnvKey is a TokenProvider that reads the API key from an environment
// variable.
func EnvKey(name string) TokenProvider {
	return func(context.Context) (Token, error) {
		key, ok := os.LookupEnv(name)
		if !ok || key == "" {
			return "", fmt.Errorf("environment variable %s not set", name)
		}
		return BasicToken(key), nil
	}
}
