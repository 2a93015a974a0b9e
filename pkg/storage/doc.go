// Package storage writes the analytics artifacts to disk.
//
// The storage package handles:
//   - Creating the output directory
//   - Encoding reports as indented JSON without HTML escaping
//   - Atomic writes through a temporary file and rename
//
// Usage:
//
//	manager, err := storage.NewManager(cfg.Output)
//	if err != nil {
//	    return err
//	}
//
//	files, err := manager.WriteReports(result)
//	if err != nil {
//	    return err
//	}
//	fmt.Println("summary saved to", files.Summary)
package storage
