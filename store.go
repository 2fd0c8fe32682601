package classifier

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mklyu/MatrixClassifier/blobstore"
	blobminio "github.com/mklyu/MatrixClassifier/blobstore/minio"
	blobs3 "github.com/mklyu/MatrixClassifier/blobstore/s3"
	blobsqlite "github.com/mklyu/MatrixClassifier/blobstore/sqlite"
)

// OpenStore opens the blob store described by sc. The returned store also
// implements io.Closer when it holds a connection (sqlite).
func OpenStore(ctx context.Context, sc StoreConfig) (blobstore.Store, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}

	switch sc.Kind {
	case "local":
		return blobstore.NewLocalStore(sc.Path), nil
	case "sqlite":
		s, err := blobsqlite.Open(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", sc.Path, err)
		}
		return s, nil
	case "s3":
		var opts []blobs3.Option
		if sc.Prefix != "" {
			opts = append(opts, blobs3.WithPrefix(sc.Prefix))
		}
		if sc.Region != "" {
			opts = append(opts, blobs3.WithRegion(sc.Region))
		}
		if sc.Endpoint != "" {
			opts = append(opts, blobs3.WithEndpoint(sc.Endpoint, sc.PathStyle))
		}
		s, err := blobs3.New(ctx, sc.Bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("open s3 store %s: %w", sc.Bucket, err)
		}
		return s, nil
	case "minio":
		client, err := minio.New(sc.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
			Secure: sc.UseSSL,
			Region: sc.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio store %s: %w", sc.Endpoint, err)
		}
		return blobminio.NewStore(client, sc.Bucket, sc.Prefix), nil
	default:
		return nil, configError("store.kind", "no store configured", nil)
	}
}

// withOwnedStore is WithStore for a store opened on the caller's behalf.
func withOwnedStore(store blobstore.Store, name string) Option {
	return func(o *options) {
		WithStore(store, name)(o)
		if c, ok := store.(io.Closer); ok {
			o.closers = append(o.closers, c)
		}
	}
}
