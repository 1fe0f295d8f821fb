// Package http provides the JSON API of pixo.
//
// The package exposes user accounts, albums, owned images and single-slot
// guest uploads over a chi router. Every response is a JSON envelope; errors
// are written as {"error": code, "message": text} with the codes the web
// client understands.
//
// # Routes
//
//	GET  /api/ping
//	POST /api/sign-up
//	POST /api/sign-in
//	POST /api/upload-guest                    multipart: file, title
//	GET  /api/guest                           current guest slot (cookie)
//	POST /api/upload-user                     multipart: user_id, file, title
//	GET  /api/gallery/{user_id}
//	GET  /api/image/{image_id}
//	POST /api/image/{image_id}/rename         {user_id, title}
//	POST /api/image/{image_id}/delete         {user_id}
//	POST /api/image/{image_id}/set-album      {user_id, album_id}
//	POST /api/albums                          {user_id, title}
//	GET  /api/albums/{user_id}
//	GET  /api/album/{album_id}
//	POST /api/album/{album_id}/rename         {user_id, title}
//	POST /api/album/{album_id}/delete         {user_id}
//	GET  /api/user/{user_id}
//	POST /api/user/{user_id}/update           {email, username, lang}
//	POST /api/user/{user_id}/change-password  {old_password, new_password}
//	GET  /files/*                             only with a filesystem object store
//
// # Guest identity
//
// Guest uploads are tied to the guest_id cookie. A request without the cookie
// gets a fresh identity; every guest upload renews the cookie for a day.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    CORS:          cfg.CORS,
//	    MaxUploadSize: cfg.Server.MaxUploadSize,
//	    Files:         backend.Files, // nil for remote object stores
//	}, service)
//	srv := &nethttp.Server{Addr: ":5000", Handler: handler.Router()}
//
// The service parameter must implement the Service interface; *pixo.Service does.
package http
