package backends

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"easyprofile/internal/backends/ddb"
	"easyprofile/internal/backends/file"
	"easyprofile/internal/ports"
	"easyprofile/internal/types"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"

	redisbackend "easyprofile/internal/backends/redis"
)

const AmazonRootCA1PEM = `-----BEGIN CERTIFICATE-----
MIIDQTCCAimgAwIBAgITBmyfz5m/jAo54vB4ikPmljZbyjANBgkqhkiG9w0BAQsF
ADA5MQswCQYDVQQGEwJVUzEPMA0GA1UEChMGQW1hem9uMRkwFwYDVQQDExBBbWF6
b24gUm9vdCBDQSAxMB4XDTE1MDUyNjAwMDAwMFoXDTM4MDExNzAwMDAwMFowOTEL
MAkGA1UEBhMCVVMxDzANBgNVBAoTBkFtYXpvbjEZMBcGA1UEAxMQQW1hem9uIFJv
b3QgQ0EgMTCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEBALJ4gHHKeNXj
ca9HgFB0fW7Y14h29Jlo91ghYPl0hAEvrAIthtOgQ3pOsqTQNroBvo3bSMgHFzZM
9O6II8c+6zf1tRn4SWiw3te5djgdYZ6k/oI2peVKVuRF4fn9tBb6dNqcmzU5L/qw
IFAGbHrQgLKm+a/sRxmPUDgH3KKHOVj4utWp+UhnMJbulHheb4mjUcAwhmahRWa6
VOujw5H5SNz/0egwLX0tdHA114gk957EWW67c4cX8jJGKLhD+rcdqsq08p8kDi1L
93FcXmn/6pUCyziKrlA4b9v7LWIbxcceVOF34GfID5yHI9Y/QCB/IIDEgEw+OyQm
jgSubJrIqg0CAwEAAaNCMEAwDwYDVR0TAQH/BAUwAwEB/zAOBgNVHQ8BAf8EBAMC
AYYwHQYDVR0OBBYEFIQYzIU07LwMlJQuCFmcx7IQTgoIMA0GCSqGSIb3DQEBCwUA
A4IBAQCY8jdaQZChGsV2USggNiMOruYou6r4lK5IpDB/G/wkjUu0yKGX9rbxenDI
U5PMCCjjmCXPI6T53iHTfIUJrU6adTrCC2qJeHZERxhlbI1Bjjt/msv0tadQ1wUs
N+gDS63pYaACbvXy8MWy7Vu33PqUXHeeE6V/Uq2V8viTO96LXFvKWlJbYK8U90vv
o/ufQJVtMVT8QtPHRh8jrdkPSHCa2XV4cdFyQzR1bldZwgJcJmApzyMZFo6IQ6XU
5MsI+yMRQ+hDKXJioaldXgjUkK642M4UwtBV8ob2xJNDd2ZhwLnoQdeXeGADbkpy
rqXRfboQnoZsG4q5WTP468SQvvG5
-----END CERTIFICATE-----`

// ProfileStoreFromConfig constructs the ProfileStore selected by cfg.Backend. Only the
// settings of the selected backend are read.
func ProfileStoreFromConfig(ctx context.Context, cfg types.Config) (ports.ProfileStore, error) {
	switch cfg.Backend {
	case types.BackendFile, "":
		return file.NewProfileStore(cfg.File), nil

	case types.BackendRedis:
		redisClient, err := RedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return redisbackend.NewProfileStore(redisClient), nil

	case types.BackendDDB:
		ddbClient, err := DDBClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		ddbStore, err := ddb.NewProfileStore(ctx, cfg.DDBTable, ddbClient)
		if err != nil {
			return nil, err
		}
		return ddbStore, nil

	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "%q", cfg.Backend)
	}
}

// DDBClient creates a DynamoDB client. An endpoint override selects a local mock and static
// credentials.
func DDBClient(ctx context.Context, cfg types.Config) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	ddbClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DDBEndpoint != "" {
			// This is used for testing only locally
			o.BaseEndpoint = aws.String(cfg.DDBEndpoint)
			o.Region = cfg.AWSRegion
			o.Credentials = localCredentials()
		}
	})
	return ddbClient, nil
}

// SNSClient creates an SNS client, pointed at cfg.SNSEndpoint when set.
func SNSClient(ctx context.Context, cfg types.Config) (*sns.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.SNSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SNSEndpoint)
			if o.Region == "" {
				o.Region = cfg.AWSRegion
			}
			o.Credentials = localCredentials()
		}
	}), nil
}

// RedisClient creates a Redis client and pings it.
func RedisClient(ctx context.Context, cfg types.Config) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if cfg.RedisTLS {
		// Create a CA certificate pool and add our CA certificate
		caCerts := x509.NewCertPool()
		if !caCerts.AppendCertsFromPEM([]byte(AmazonRootCA1PEM)) {
			return nil, fmt.Errorf("failed to retrieve CA certificate")
		}
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    caCerts,
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:      fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Username:  cfg.RedisUser,
		Password:  cfg.RedisPass,
		DB:        cfg.RedisDB,
		TLSConfig: tlsConfig,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "failed to ping Redis")
	}
	return redisClient, nil
}

func localCredentials() credentials.StaticCredentialsProvider {
	return credentials.NewStaticCredentialsProvider(
		getenv("AWS_ACCESS_KEY_ID", "x"),
		getenv("AWS_SECRET_ACCESS_KEY", "x"),
		"",
	)
}

// getenv retrieves the value of the environment variable named by the key.
func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
