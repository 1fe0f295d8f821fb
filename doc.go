// Package pixo provides the metadata and object-lifecycle core of a small
// photo-hosting backend.
//
// Pixo keeps four JSON collections (users, albums, images and guest slots)
// referentially consistent and keeps an object store in step with the
// image-bearing metadata. Every mutation reads a whole collection, validates,
// mutates and writes the whole collection back.
//
// # Key Components
//
//   - Collection: whole-document load/save of one collection over a DocumentStore
//   - UserRegistry: sign-up, sign-in, profile and password changes
//   - AlbumRegistry: albums owned by a single user, cascade detach on delete
//   - ImageRegistry: owned uploads, rename, delete and album assignment
//   - GuestSlotManager: one live anonymous upload per guest identity
//   - Service: all of the above wired over shared collections
//
// # Backends
//
// DocumentStore implementations live in the jsonfile, database/sqlite and
// database/postgres packages. ObjectStore implementations live in the
// filesystem, objectstore/minio and objectstore/awss3 packages.
//
// # Example Usage
//
//	service, err := pixo.NewService(pixo.ServiceConfig{
//	    Documents:   documents,
//	    Objects:     objects,
//	    Credentials: credential.Plain{},
//	    Collections: pixo.DefaultCollections(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	user, err := service.Register(ctx, "a@a.com", "123")
//	img, err := service.UploadImage(ctx, user.ID, upload, "")
//
// See the http package for the REST API built on top of Service.
package pixo
