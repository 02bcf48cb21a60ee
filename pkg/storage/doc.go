// Package storage keeps mirrored Behance assets on local disk.
//
// The storage package handles:
//   - Creating the asset directory
//   - Saving assets with atomic write operations
//   - Remembering which asset refs are already present
//
// Files are named <ref><ext>, where ref is the content-independent reference
// the mirror derives from the asset URL. Existing files are indexed when the
// Manager is created, so later runs find assets saved by earlier ones without
// downloading them again.
//
// Usage:
//
//	manager, err := storage.NewManager("./assets")
//	if err != nil {
//	    return err
//	}
//
//	if path, ok := manager.Lookup(ref); ok {
//	    return path, nil
//	}
//	path, err := manager.SaveAsset(body, ref, ".jpg")
package storage
