// Package paths locates the per-user files sketchbox keeps on disk.
//
// # Directory Structure
//
//	$SKETCHBOX_HOME or <user config dir>/sketchbox/
//	  ├── history.db         (local run history)
//	  └── credentials.yaml   (bearer token and user record)
//
// # Usage
//
//	path, err := paths.Resolve(cfg.Storage.HistoryDB)
//	if err == nil {
//	    err = paths.Ensure(path)
//	}
package paths
