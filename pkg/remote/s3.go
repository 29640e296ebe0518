package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
	"go.opentelemetry.io/otel/trace"

	"github.com/datatools/dataforge/dfapi"
	"github.com/datatools/dataforge/pkg/dab"
	"github.com/datatools/dataforge/pkg/tracing"
)

// S3Registry serves dataset records from a bucket that mirrors the
// metastore layout (`<namespace>/<project>/<dataset>/_dataset.json` etc.,
// under an optional key prefix).
type S3Registry struct {
	client *s3.Client
	cfg    dfapi.S3RegistryConfig
}

func newS3Registry(ctx context.Context, cfg dfapi.S3RegistryConfig) (S3Registry, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
					SigningRegion:     cfg.Region,
				}, nil
			})),
	)
	if err != nil {
		return S3Registry{}, dfapi.ErrorRegistry("failed to load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg)

	// make sure we can access the specified bucket
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return S3Registry{}, dfapi.ErrorRegistry(fmt.Sprintf("could not access bucket %q", cfg.Bucket), err)
	}

	return S3Registry{
		client: client,
		cfg:    cfg,
	}, nil
}

func (reg *S3Registry) Kind() string {
	return "s3"
}

func (reg *S3Registry) key(parts ...string) string {
	if reg.cfg.Path != nil {
		parts = append([]string{*reg.cfg.Path}, parts...)
	}
	return path.Join(parts...)
}

func (reg *S3Registry) datasetKey(ref dfapi.DatasetRef) string {
	return reg.key(string(ref.Namespace), string(ref.Project), string(ref.Name), dab.MagicFilename_Dataset)
}

func (reg *S3Registry) versionKey(ref dfapi.DatasetRef, version dfapi.VersionName) string {
	return reg.key(string(ref.Namespace), string(ref.Project), string(ref.Name), dab.MagicDirname_Versions, string(version)+".json")
}

func isNotFound(err error) bool {
	var responseError *awshttp.ResponseError
	return errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == http.StatusNotFound
}

func (reg *S3Registry) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := reg.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(reg.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// GetDataset fetches a dataset record from the bucket.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
// 	- dataforge-error-catalog-parse -- when the remote record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
func (reg *S3Registry) GetDataset(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.Dataset, error) {
	ctx, span := tracing.Start(ctx, "s3 get dataset", trace.WithAttributes(tracing.AttrFullExecNameS3, tracing.AttrFullExecOperationS3Get))
	defer span.End()
	key := reg.datasetKey(ref)
	serial, err := reg.getObject(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, dfapi.ErrorDatasetNotFound(ref.FullName())
		}
		return nil, dfapi.ErrorRegistry(fmt.Sprintf("failed to fetch %q", key), err)
	}

	capsule := dfapi.DatasetCapsule{}
	_, err = ipld.Unmarshal(serial, json.Decode, &capsule, dfapi.TypeSystem.TypeByName("DatasetCapsule"))
	if err != nil || capsule.Dataset == nil {
		return nil, dfapi.ErrorCatalogParse(key, err)
	}
	return capsule.Dataset, nil
}

// GetVersion fetches the version record named by ref.Version.
//
// Errors:
//
// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
// 	- dataforge-error-catalog-parse -- when the remote record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
func (reg *S3Registry) GetVersion(ctx context.Context, ref dfapi.DatasetRef) (*dfapi.DatasetVersion, error) {
	ctx, span := tracing.Start(ctx, "s3 get version", trace.WithAttributes(tracing.AttrFullExecNameS3, tracing.AttrFullExecOperationS3Get))
	defer span.End()
	key := reg.versionKey(ref, ref.Version)
	serial, err := reg.getObject(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(ref.Version))
		}
		return nil, dfapi.ErrorRegistry(fmt.Sprintf("failed to fetch %q", key), err)
	}

	capsule := dfapi.DatasetVersionCapsule{}
	_, err = ipld.Unmarshal(serial, json.Decode, &capsule, dfapi.TypeSystem.TypeByName("DatasetVersionCapsule"))
	if err != nil || capsule.DatasetVersion == nil {
		return nil, dfapi.ErrorCatalogParse(key, err)
	}
	return capsule.DatasetVersion, nil
}

// ListDatasets fetches every dataset record in the bucket.
//
// Errors:
//
// 	- dataforge-error-catalog-parse -- when a remote record cannot be parsed
// 	- dataforge-error-registry -- when talking to the registry fails
func (reg *S3Registry) ListDatasets(ctx context.Context) ([]RemoteDataset, error) {
	ctx, span := tracing.Start(ctx, "s3 list datasets", trace.WithAttributes(tracing.AttrFullExecNameS3, tracing.AttrFullExecOperationS3List))
	defer span.End()
	var prefix string
	if reg.cfg.Path != nil {
		prefix = *reg.cfg.Path + "/"
	}
	var result []RemoteDataset
	paginator := s3.NewListObjectsV2Paginator(reg.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(reg.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, dfapi.ErrorRegistry("failed to list bucket", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, prefix)
			// Only dataset record markers; layout is <ns>/<proj>/<ds>/_dataset.json.
			parts := strings.Split(rel, "/")
			if len(parts) != 4 || parts[3] != dab.MagicFilename_Dataset {
				continue
			}
			serial, err := reg.getObject(ctx, key)
			if err != nil {
				return nil, dfapi.ErrorRegistry(fmt.Sprintf("failed to fetch %q", key), err)
			}
			capsule := dfapi.DatasetCapsule{}
			_, err = ipld.Unmarshal(serial, json.Decode, &capsule, dfapi.TypeSystem.TypeByName("DatasetCapsule"))
			if err != nil || capsule.Dataset == nil {
				return nil, dfapi.ErrorCatalogParse(key, err)
			}
			result = append(result, RemoteDataset{
				Namespace: dfapi.NamespaceName(parts[0]),
				Project:   dfapi.ProjectName(parts[1]),
				Dataset:   capsule.Dataset,
			})
		}
	}
	return result, nil
}

// RemoveDataset removes one version (latest when ref.Version is unset),
// or every object under the dataset's prefix when force is set.
//
// Errors:
//
// 	- dataforge-error-dataset-not-found -- when the registry has no such dataset
// 	- dataforge-error-dataset-version-not-found -- when the registry has no such version
// 	- dataforge-error-registry -- when talking to the registry fails
// 	- dataforge-error-serialization -- when re-serializing the updated record fails
func (reg *S3Registry) RemoveDataset(ctx context.Context, ref dfapi.DatasetRef, force bool) error {
	ds, err := reg.GetDataset(ctx, ref)
	if err != nil {
		return err
	}

	if force {
		return reg.removePrefix(ctx, reg.key(string(ref.Namespace), string(ref.Project), string(ref.Name))+"/")
	}

	version := ref.Version
	if version == "" {
		version = dfapi.LatestVersion(ds.Versions.Keys)
	}
	if _, ok := ds.Versions.Values[version]; !ok {
		return dfapi.ErrorDatasetVersionNotFound(ref.FullName(), string(version))
	}

	_, err = reg.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(reg.cfg.Bucket),
		Key:    aws.String(reg.versionKey(ref, version)),
	})
	if err != nil {
		return dfapi.ErrorRegistry("failed to delete version object", err)
	}

	keys := make([]dfapi.VersionName, 0, len(ds.Versions.Keys)-1)
	for _, k := range ds.Versions.Keys {
		if k != version {
			keys = append(keys, k)
		}
	}
	delete(ds.Versions.Values, version)
	ds.Versions.Keys = keys
	if len(keys) == 0 {
		// last version removed; drop the whole dataset
		return reg.removePrefix(ctx, reg.key(string(ref.Namespace), string(ref.Project), string(ref.Name))+"/")
	}

	capsule := dfapi.DatasetCapsule{Dataset: ds}
	serial, err := ipld.Marshal(json.Encode, &capsule, dfapi.TypeSystem.TypeByName("DatasetCapsule"))
	if err != nil {
		return dfapi.ErrorSerialization("failed to serialize updated dataset record", err)
	}
	uploader := manager.NewUploader(reg.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(reg.cfg.Bucket),
		Key:    aws.String(reg.datasetKey(ref)),
		Body:   strings.NewReader(string(serial)),
	})
	if err != nil {
		return dfapi.ErrorRegistry("failed to upload updated dataset record", err)
	}
	return nil
}

func (reg *S3Registry) removePrefix(ctx context.Context, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(reg.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(reg.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return dfapi.ErrorRegistry("failed to list bucket", err)
		}
		for _, obj := range page.Contents {
			_, err := reg.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(reg.cfg.Bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return dfapi.ErrorRegistry("failed to delete object", err)
			}
		}
	}
	return nil
}
