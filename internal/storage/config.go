package storage

import (
	"errors"
	"strings"
)

// MinIOConfig selects the bucket and key prefix that hold the flat document
// layout (<slug>.html plus <slug>.meta.json).
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Prefix is prepended to every object key, e.g. "documents/".
	Prefix string
}

func (c *MinIOConfig) validate() error {
	if c == nil || c.Endpoint == "" {
		return errors.New("minio config missing")
	}
	if c.Bucket == "" {
		return errors.New("minio bucket missing")
	}
	return nil
}

// keyPrefix normalises Prefix so that it is either empty or ends in "/".
func (c *MinIOConfig) keyPrefix() string {
	p := strings.TrimLeft(c.Prefix, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
