package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/constants"
)

// Subset of the S3 client used for mirroring.
type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Mirror struct {
	client s3PutObjectAPI
	bucket string
}

func newS3Mirror(ctx context.Context, sc config.StorageConfig) (*s3Mirror, error) {
	opts := []func(*awsconfig.LoadOptions) error{}

	region := sc.Region
	if sc.Endpoint != "" {
		// Route S3 calls to a custom endpoint (Filebase, MinIO, ...)
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, r string, options ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					PartitionID:       "aws",
					URL:               sc.Endpoint,
					SigningRegion:     r,
					HostnameImmutable: true,
				}, nil
			}
			// returning EndpointNotFoundError will allow the service to fallback to it's default resolution
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(customResolver))

		if region == "" {
			region = constants.DefaultS3Region
		}
	}

	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &s3Mirror{
		client: s3.NewFromConfig(awscfg, func(o *s3.Options) {
			o.UsePathStyle = sc.Endpoint != ""
		}),
		bucket: sc.Bucket,
	}, nil
}

func (m *s3Mirror) Upload(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType(key)),
		Metadata:    metadata,
	})
	return err
}

func (m *s3Mirror) Close() error {
	return nil
}
