// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("caches/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = distances.SaveTo(ctx, store, "cifar10-frobenius.mdc")
//
// # Features
//
//   - Streaming uploads through the S3 upload manager (multipart for large caches)
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
