// internal/common/aws/clients.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Clients holds the AWS service clients used for escalation notifications.
type Clients struct {
	SES *ses.Client
	SNS *sns.Client
}

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// NewClients builds only the clients that are enabled.
func NewClients(ctx context.Context, region string, withSES, withSNS bool) (*Clients, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	c := &Clients{}
	if withSES {
		c.SES = ses.NewFromConfig(cfg)
	}
	if withSNS {
		c.SNS = sns.NewFromConfig(cfg)
	}
	return c, nil
}
