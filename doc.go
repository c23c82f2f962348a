// Package zipstream streams server-side directories to HTTP clients as zip
// archives without materializing the archive on disk.
//
// Each download owns exactly one archiver subprocess (by default `zip -r - .`)
// whose working directory is the requested archive directory. The subprocess's
// standard output is relayed to the client in bounded chunks, one write in
// flight at a time, so a slow client stalls the archiver instead of growing
// memory. The subprocess is killed and reaped on every exit path.
//
// # Key Components
//
//   - ArchiveService: resolves names, spawns archivers and records downloads
//   - Archive: a single in-flight download and its subprocess
//   - Relay: the read-then-write loop between the archiver and the client
//   - DirectoryStore: resolves archive names inside the archive root (see filesystem)
//   - Spawner / Process: the subprocess capability (see process)
//   - DownloadRepo: optional download history (see database)
//
// # Example Usage
//
//	service, err := zipstream.NewArchiveService(store, spawner, nil, zipstream.ServiceConfig{
//	    Stream: zipstream.StreamConfig{ChunkSize: 50_000},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	archive, err := service.Open(ctx, "vacation2023")
//	if err != nil {
//	    // errors.Is(err, zipstream.ErrNotFound) when the directory is absent
//	    return err
//	}
//	defer service.Finish(archive)
//
//	err = archive.Stream(ctx, w)
//
// See the http package for the REST surface and cmd/zipstream for the server.
package zipstream
