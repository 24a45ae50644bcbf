// Package s3 implements blobstore.Store on Amazon S3.
//
// Artifacts are uploaded with the SDK transfer manager, which handles multipart
// uploads transparently. S3 object writes are atomic by construction: an object
// only becomes visible once the upload completes, so a failed export never
// leaves a partial artifact.
package s3
