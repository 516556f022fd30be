package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/pkg/keystore"
	badgerstore "github.com/marmos91/studysync/pkg/keystore/badger"
	memorystore "github.com/marmos91/studysync/pkg/keystore/memory"
	"github.com/marmos91/studysync/pkg/storage"
	"github.com/marmos91/studysync/pkg/storage/fallback"
	"github.com/marmos91/studysync/pkg/storage/native"
	s3storage "github.com/marmos91/studysync/pkg/storage/s3"
	"github.com/marmos91/studysync/pkg/study"
)

// CreateKeystore creates a key/value store based on configuration.
//
// Supported types:
//   - "badger": persistent BadgerDB store
//   - "memory": in-process map, lost on exit
func CreateKeystore(ctx context.Context, cfg *KeystoreConfig) (keystore.Store, error) {
	switch cfg.Type {
	case "badger":
		var storeCfg badgerstore.Config
		if err := mapstructure.Decode(cfg.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger keystore config: %w", err)
		}
		store, err := badgerstore.Open(ctx, storeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger keystore: %w", err)
		}
		return store, nil
	case "memory":
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown keystore type: %q (supported: badger, memory)", cfg.Type)
	}
}

// CreateStrategy creates a storage strategy based on configuration.
//
// The prompters supply the user-gesture boundaries for the native strategy;
// passing nil prompters makes native unsupported, which "auto" resolves to
// the fallback strategy.
//
// Supported types:
//   - "auto": native when a directory prompter is available, else fallback
//   - "native": directory-backed storage, fails if unsupported
//   - "fallback": blobs in the key/value store
//   - "s3": objects in an S3 bucket
func CreateStrategy(
	ctx context.Context,
	cfg *StorageConfig,
	store keystore.Store,
	studyID study.ID,
	dirs storage.DirectoryPrompter,
	perms storage.PermissionPrompter,
) (storage.Strategy, error) {
	switch cfg.Type {
	case "auto":
		candidate := createNativeStrategy(cfg.Native, store, studyID, dirs, perms)
		if candidate.Supported() {
			return candidate, nil
		}
		logger.Info("Directory storage not supported here, using fallback store")
		return fallback.New(store, studyID), nil
	case "native":
		candidate := createNativeStrategy(cfg.Native, store, studyID, dirs, perms)
		if !candidate.Supported() {
			return nil, fmt.Errorf("native storage is not supported in this environment")
		}
		return candidate, nil
	case "fallback":
		return fallback.New(store, studyID), nil
	case "s3":
		return createS3Strategy(ctx, cfg.S3, studyID)
	default:
		return nil, fmt.Errorf("unknown storage type: %q (supported: auto, native, fallback, s3)", cfg.Type)
	}
}

// createNativeStrategy builds the directory strategy. A configured directory
// pins the picker to a fixed path, bypassing the interactive prompter.
func createNativeStrategy(
	options map[string]any,
	store keystore.Store,
	studyID study.ID,
	dirs storage.DirectoryPrompter,
	perms storage.PermissionPrompter,
) *native.Strategy {
	type NativeStrategyConfig struct {
		Directory string `mapstructure:"directory"`
	}

	var strategyCfg NativeStrategyConfig
	// Decode errors leave the zero config, which just means no pinned directory
	_ = mapstructure.Decode(options, &strategyCfg)

	if strategyCfg.Directory != "" {
		dirs = storage.StaticDirectoryPrompter{Dir: strategyCfg.Directory}
	}

	return native.New(store, studyID, dirs, perms)
}

// createS3Strategy builds the S3 strategy with a configured AWS client.
func createS3Strategy(ctx context.Context, options map[string]any, studyID study.ID) (storage.Strategy, error) {
	type S3StrategyConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
	}

	var strategyCfg S3StrategyConfig
	if err := mapstructure.Decode(options, &strategyCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 storage config: %w", err)
	}

	if strategyCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 storage: bucket is required")
	}
	if strategyCfg.Region == "" {
		return nil, fmt.Errorf("S3 storage: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(strategyCfg.Region))

	// Custom endpoint support for MinIO, Localstack, etc.
	if strategyCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               strategyCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain
	if strategyCfg.AccessKeyID != "" && strategyCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			strategyCfg.AccessKeyID,
			strategyCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if strategyCfg.Endpoint != "" {
			// Path-style addressing is required by most S3-compatible servers
			o.UsePathStyle = true
		}
	})

	return s3storage.New(s3storage.Config{
		Client:    client,
		Bucket:    strategyCfg.Bucket,
		KeyPrefix: strategyCfg.KeyPrefix,
	}, studyID)
}
