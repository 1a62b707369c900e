// Package credentials resolves the access credentials the storage adapter
// builds its client from. Providers are the adapter's only credential source;
// the AWS SDK default chain is intentionally not consulted so that the
// hosting framework stays in control of identity.
package credentials

import (
	"context"
	"fmt"
	"os"
)

// Credentials is the resolved credential set for one storage principal.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Provider produces credentials on demand. Implementations may be called
// once per adapter lifetime; results are cached only inside the built client.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// FromMap builds Credentials from a generic mapping, accepting both
// key-naming conventions: access_key_id/secret_access_key take precedence,
// username/password are the fallback aliases.
func FromMap(m map[string]string) Credentials {
	c := Credentials{
		AccessKeyID:     m["access_key_id"],
		SecretAccessKey: m["secret_access_key"],
		Region:          m["region"],
	}
	if c.AccessKeyID == "" {
		c.AccessKeyID = m["username"]
	}
	if c.SecretAccessKey == "" {
		c.SecretAccessKey = m["password"]
	}
	return c
}

// Static is a Provider returning a fixed credential set.
type Static struct {
	Value Credentials
}

// NewStatic creates a provider around fixed credentials.
func NewStatic(accessKeyID, secretAccessKey, region string) *Static {
	return &Static{Value: Credentials{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		Region:          region,
	}}
}

// Credentials returns the fixed credential set.
func (s *Static) Credentials(_ context.Context) (Credentials, error) {
	return s.Value, nil
}

// Env resolves credentials from the conventional AWS environment variables.
type Env struct{}

// Credentials reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_REGION
// (falling back to AWS_DEFAULT_REGION). Missing keys are an error.
func (Env) Credentials(_ context.Context) (Credentials, error) {
	c := Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Region:          os.Getenv("AWS_REGION"),
	}
	if c.Region == "" {
		c.Region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return Credentials{}, fmt.Errorf("AWS credentials not present in environment")
	}
	return c, nil
}
