package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	apperrors "lxpfetch/pkg/errors"
)

// credentialsFile is the JSON shape of a credentials file
type credentialsFile struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoadCredentialsFile reads a login pair from a file. Files ending in .json
// carry {"login": ..., "password": ...}; anything else is parsed as a dotenv
// file with LXPFETCH_LOGIN/LXPFETCH_PASSWORD (or LOGIN/PASSWORD) keys.
func LoadCredentialsFile(path string) (login, password string, err error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", apperrors.Wrap(apperrors.ErrorTypeConfig, "failed to read credentials file", err)
		}
		var creds credentialsFile
		if err := json.Unmarshal(data, &creds); err != nil {
			return "", "", apperrors.Wrap(apperrors.ErrorTypeConfig, "failed to parse credentials file", err)
		}
		return creds.Login, creds.Password, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrorTypeConfig, "failed to read credentials file", err)
	}

	login = firstNonEmpty(env["LXPFETCH_LOGIN"], env["LOGIN"])
	password = firstNonEmpty(env["LXPFETCH_PASSWORD"], env["PASSWORD"])
	return login, password, nil
}

// ResolveCredentials returns the login pair with the usual precedence:
// values already set on the config (flags or environment) win, then the
// credentials file fills the gaps. Missing values come back empty; the
// caller decides whether to prompt.
func (c *Config) ResolveCredentials() (login, password string, err error) {
	login = c.Credentials.Login
	password = c.Credentials.Password

	if (login == "" || password == "") && c.Credentials.File != "" {
		fileLogin, filePassword, err := LoadCredentialsFile(c.Credentials.File)
		if err != nil {
			return "", "", err
		}
		if login == "" {
			login = fileLogin
		}
		if password == "" {
			password = filePassword
		}
	}

	return login, password, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
