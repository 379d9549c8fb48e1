// Package dodo is the Composition Root of the dodo storage bridge.
//
// It connects the bridge (Domain Layer) with the store adapters (Persistence
// Layer) using the Hexagonal Architecture pattern.
//
// The bridge persists one application document under a fixed key of a
// key-value store. Saves and loads never block the caller: every operation
// runs asynchronously and reports its outcome on a channel, failures included.
// Loaded documents are normalized to the current schema, so the "v1" field is
// always present (nil for documents written before it existed).
//
// Features:
//
//   - **Versioned message contract**: v1 ("save"/"load"/"loaded") and v2
//     ("saveStorage"/"loadStorage"/"storageContents") names, negotiated per message.
//   - **Typed errors**: StorageUnavailable and MalformedDocument results instead of logs.
//   - **Adapters**: filesystem (atomic writes, file locks, optional git history,
//     fsnotify watch), SQLite and in-memory stores.
//   - **Typed state**: generic wrapper (`NewTyped[T]`) for struct-shaped documents.
//
// Usage:
//
//	b, err := dodo.New("./state", dodo.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer b.Close(ctx)
//
//	if err := <-b.Save(ctx, dodo.Document{"count": 3}); err != nil {
//		return err
//	}
//	res := <-b.Load(ctx) // {"count": 3, "v1": nil}
package dodo
