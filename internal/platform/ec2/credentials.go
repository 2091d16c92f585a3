package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/imamik/hacluster/internal/attributes"
	"github.com/imamik/hacluster/internal/config"
)

// CredentialSource loads AWS credentials from the default chain
// (environment, shared files, instance role). It implements
// attributes.CredentialSource.
type CredentialSource struct {
	load func(ctx context.Context) (aws.Config, error)
}

// NewCredentialSource creates a source that honours the region and profile
// of a provider section. Static keys in the section are ignored; the
// composer only asks for defaults when they are missing.
func NewCredentialSource(cloud config.CloudConfig) *CredentialSource {
	cloud.AccessKeyID = ""
	cloud.SecretAccessKey = ""
	return &CredentialSource{load: func(ctx context.Context) (aws.Config, error) {
		return LoadAWSConfig(ctx, cloud)
	}}
}

// LoadDefault implements attributes.CredentialSource.
func (s *CredentialSource) LoadDefault(ctx context.Context, provider string) (attributes.Credentials, error) {
	if provider != config.ProviderEC2 {
		return attributes.Credentials{}, fmt.Errorf("no default credentials for provider %q", provider)
	}

	awsCfg, err := s.load(ctx)
	if err != nil {
		return attributes.Credentials{}, err
	}
	if awsCfg.Credentials == nil {
		return attributes.Credentials{}, fmt.Errorf("no AWS credential provider configured")
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return attributes.Credentials{}, fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}
	return attributes.Credentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}, nil
}
